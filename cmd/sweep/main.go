// Command sweep runs the periodic housekeeping pass once: auto-approve
// stale receipts and customer orders, close overdue purchase orders, and
// dispatch anything approved but unsent. It is intended as a cron target.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"orderdesk/internal/app"
	"orderdesk/internal/core"
	"orderdesk/internal/db"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("job", "sweep").Logger()

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

	failed := false

	if result, err := svc.AutoApproveOldGRNs(ctx); err != nil {
		logger.Error().Err(err).Msg("receipt auto-approval failed")
		failed = true
	} else {
		logger.Info().Int("approved", result.Processed).Msg("receipt auto-approval done")
	}

	if result, err := svc.AutoApproveOldCOs(ctx); err != nil {
		logger.Error().Err(err).Msg("customer order auto-approval failed")
		failed = true
	} else {
		logger.Info().Int("approved", result.Processed).Msg("customer order auto-approval done")
	}

	if result, err := svc.CloseOldOrders(ctx); err != nil {
		logger.Error().Err(err).Msg("order closing failed")
		failed = true
	} else {
		logger.Info().Int("closed", result.Processed).Msg("order closing done")
	}

	if result, err := svc.SendApprovedPOs(ctx); err != nil {
		logger.Error().Err(err).Msg("order dispatch failed")
		failed = true
	} else {
		logger.Info().Int("sent", result.Processed).Msg("order dispatch done")
	}

	if failed {
		os.Exit(1)
	}
}
