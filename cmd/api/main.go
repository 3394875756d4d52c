package main

import (
	"os"

	"github.com/joho/godotenv"

	"adpulse/adapters/rng"
	"adpulse/app"
	"adpulse/internal"
	"adpulse/internal/config"
	"adpulse/ui"
)

func main() {
	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	service, err := app.NewEvaluationService(cfg, rng.NewSeededAdapter(), logger)
	if err != nil {
		logger.Error("failed to build evaluation service: %v", err)
		os.Exit(1)
	}

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	server := ui.NewServer(service, cfg, logger)
	if err := server.ListenAndServe(addr); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
