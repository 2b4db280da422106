package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"table-service-go/internal/db"
	"table-service-go/internal/mq"
	"table-service-go/internal/service"
)

type App struct {
	cfg        Config
	store      *db.Store
	log        *slog.Logger
	svc        *service.Service
	sseHub     *SSEHub
	tickets    *mq.Client
	sessionKey []byte

	now func() time.Time
}

// Options lets callers (mostly tests) swap collaborators.
type Options struct {
	Notifiers []service.Notifier
	Now       func() time.Time
	// SkipRabbitMQ keeps the app off the broker even when a URL is configured.
	SkipRabbitMQ bool
}

func New(ctx context.Context, cfg Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	cfg.normalize()
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	key, err := cfg.SessionKey()
	if err != nil {
		return nil, err
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
		logger.Warn("session_hash_key_hex not set (or too short), generating an ephemeral key; sessions reset on restart")
	}

	stations, err := cfg.StationMap()
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	discounts, err := cfg.DiscountSet()
	if err != nil {
		return nil, fmt.Errorf("discounts: %w", err)
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Migrate(store.DB); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{
		cfg:        cfg,
		store:      store,
		log:        logger,
		sseHub:     NewSSEHub(logger),
		sessionKey: key,
		now:        opts.Now,
	}

	notifiers := []service.Notifier{a.sseHub}
	if cfg.RabbitMQ.URL != "" && !opts.SkipRabbitMQ {
		if c, err := a.dialTickets(); err != nil {
			logger.Warn("rabbitmq unavailable, kitchen tickets go to SSE only", "err", err)
		} else {
			a.tickets = c
			notifiers = append(notifiers, mq.NewPublisher(c, cfg.RabbitMQ.Exchange, logger))
		}
	}
	notifiers = append(notifiers, opts.Notifiers...)

	a.svc = service.New(store, service.Options{
		Stations:  stations,
		Discounts: discounts,
		Notifiers: notifiers,
		Logger:    logger,
		Now:       opts.Now,
	})

	if err := a.bootstrapManager(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if seeded, err := db.SeedFloor(ctx, store); err != nil {
		a.log.Warn("floor seed failed", "err", err)
	} else if seeded {
		a.log.Info("floor plan seeded")
	}

	return a, nil
}

func (a *App) dialTickets() (*mq.Client, error) {
	c, err := mq.Dial(a.cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	if err := c.DeclareExchange(a.cfg.RabbitMQ.Exchange); err != nil {
		c.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", a.cfg.RabbitMQ.Exchange, err)
	}
	return c, nil
}

// bootstrapManager creates the configured manager account when no manager exists yet.
func (a *App) bootstrapManager(ctx context.Context) error {
	has, err := a.store.Q.HasAnyManager(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	bm := a.cfg.BootstrapManager
	username := NormalizeUsername(bm.Username)
	pass := strings.TrimSpace(bm.Password)
	name := strings.TrimSpace(bm.Name)
	if username == "" || pass == "" {
		a.log.Warn("no manager account exists and bootstrap_manager is not configured")
		return nil
	}
	if name == "" {
		name = username
	}
	if _, err := a.CreateStaff(ctx, username, pass, RoleManager, name); err != nil {
		return fmt.Errorf("bootstrap manager: %w", err)
	}
	a.log.Info("bootstrapped manager account", "username", username)
	return nil
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.tickets != nil {
		a.tickets.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) Store() *db.Store          { return a.store }
func (a *App) Service() *service.Service { return a.svc }
func (a *App) SSE() *SSEHub              { return a.sseHub }
func (a *App) Config() Config            { return a.cfg }
func (a *App) Logger() *slog.Logger      { return a.log }
