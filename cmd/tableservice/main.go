package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"table-service-go/internal/app"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "tableservice",
	Short:         "Restaurant table-service ordering backend",
	Long:          `tableservice runs the ordering API for waiters, kitchen stations and managers, plus the helpers around it: seeding, kitchen ticket printing and password hashing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().String("data-dir", "/data", "directory for the sqlite database")
	rootCmd.PersistentFlags().String("db-path", "", "sqlite database path (default <data-dir>/tableservice.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "text or json")
	rootCmd.PersistentFlags().String("rabbitmq-url", "", "amqp:// url for kitchen tickets (empty disables)")

	bindFlag(rootCmd, "data_dir", "data-dir")
	bindFlag(rootCmd, "db_path", "db-path")
	bindFlag(rootCmd, "log.level", "log-level")
	bindFlag(rootCmd, "log.format", "log-format")
	bindFlag(rootCmd, "rabbitmq.url", "rabbitmq-url")

	rootCmd.AddCommand(serveCmd, seedCmd, ticketsCmd, hashPasswordCmd)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	cobra.CheckErr(viper.BindPFlag(key, f))
}

// loadConfig builds the config and logger every command starts from.
func loadConfig() (app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return app.Config{}, nil, err
	}
	logger, err := app.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return app.Config{}, nil, err
	}
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Info("using config file", "path", f)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
