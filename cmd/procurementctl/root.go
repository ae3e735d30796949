package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-procurement/internal/common/config"
	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
)

var flagLogLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")
}

var rootCmd = &cobra.Command{
	Use:           "procurementctl",
	Short:         "Operate the procurement service database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is what every subcommand needs: configuration, a logger and an open
// database.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	log := logger.New(logger.Config{
		Level:       level,
		Environment: cfg.Service.Environment,
		ServiceName: "procurementctl",
		Version:     cfg.Service.Version,
		Output:      os.Stderr,
	})

	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    2,
		MinConns:    1,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
}
