package app

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"table-service-go/internal/domain"
)

type Config struct {
	Addr    string `mapstructure:"addr"`
	BaseURL string `mapstructure:"base_url"`

	DataDir string `mapstructure:"data_dir"`
	DBPath  string `mapstructure:"db_path"`

	SessionHashKeyHex string `mapstructure:"session_hash_key_hex"`

	BootstrapManager BootstrapConfig `mapstructure:"bootstrap_manager"`
	Log              LogConfig       `mapstructure:"log"`
	RabbitMQ         RabbitMQConfig  `mapstructure:"rabbitmq"`

	// Stations overrides the category to station routing, e.g. {"desserts": "cold"}.
	Stations  map[string]string `mapstructure:"stations"`
	Discounts []DiscountConfig  `mapstructure:"discounts"`
}

type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type DiscountConfig struct {
	Name  string `mapstructure:"name"`
	Kind  string `mapstructure:"kind"`
	Value int64  `mapstructure:"value"`
}

const EnvPrefix = "TABLESERVICE"

// SetDefaults registers every known key so env overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("data_dir", "/data")
	v.SetDefault("db_path", "")
	v.SetDefault("session_hash_key_hex", "")
	v.SetDefault("bootstrap_manager.username", "")
	v.SetDefault("bootstrap_manager.password", "")
	v.SetDefault("bootstrap_manager.name", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "kitchen_topic")
}

// LoadConfig layers defaults, the optional config file and TABLESERVICE_* env vars.
// Flags are expected to be bound on v by the caller.
func LoadConfig(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.DataDir == "" {
		c.DataDir = "/data"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "tableservice.db")
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "kitchen_topic"
	}
}

// SessionKey decodes the configured signing key; nil means none was set.
func (c Config) SessionKey() ([]byte, error) {
	hk := strings.TrimSpace(c.SessionHashKeyHex)
	if hk == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(hk)
	if err != nil {
		return nil, fmt.Errorf("session_hash_key_hex invalid hex: %w", err)
	}
	return b, nil
}

// StationMap is the default routing with the configured overrides applied.
func (c Config) StationMap() (domain.StationMap, error) {
	m := domain.DefaultStationMap()
	extra, err := domain.NewStationMap(c.Stations)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		m[k] = v
	}
	return m, nil
}

// DiscountSet holds the built-in policies plus configured ones; a configured
// policy with a built-in name replaces it.
func (c Config) DiscountSet() (*domain.DiscountSet, error) {
	policies := domain.DefaultDiscounts()
	for _, d := range c.Discounts {
		policies = append(policies, domain.DiscountPolicy{
			Name:  d.Name,
			Kind:  domain.DiscountKind(strings.ToLower(strings.TrimSpace(d.Kind))),
			Value: d.Value,
		})
	}
	return domain.NewDiscountSet(policies...)
}
