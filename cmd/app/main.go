package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"orderdesk/internal/adapters/cli"
	"orderdesk/internal/app"
	"orderdesk/internal/core"
	"orderdesk/internal/db"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger()
	ctx := context.Background()

	store, closeStore, err := db.NewStore(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("store initialization failed")
	}
	defer closeStore()

	cfg := core.ConfigFromEnv()
	mailer := core.LogMailer{Log: logger}

	bins := core.NewBinningEngine(store, cfg, logger)
	rules := core.NewBusinessRuleEngine(store, logger)
	classifier := core.NewSKUClassifier(store, bins, cfg, logger)
	orders := core.NewOrderLifecycleManager(store, rules, mailer, cfg, logger)
	grn := core.NewGRNService(store, orders, cfg, logger)

	svc := app.NewAppService(classifier, bins, rules, orders, grn)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: app <command> [args]")
		fmt.Fprintln(os.Stderr, "Run 'app help' for the command list.")
		os.Exit(2)
	}
	cli.Run(ctx, svc, os.Args[1:])
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}
	return logger
}
