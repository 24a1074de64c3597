package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	webAdapter "orderdesk/internal/adapters/web"
	"orderdesk/internal/app"
	"orderdesk/internal/core"
	"orderdesk/internal/db"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

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

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, logger)

	logger.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
