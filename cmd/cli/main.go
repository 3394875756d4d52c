package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"adpulse/adapters/excel"
	"adpulse/adapters/rng"
	"adpulse/app"
	"adpulse/internal"
	"adpulse/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		inputPath = flag.String("input", "", "path to XLSX or CSV daily series file")
		seed      = flag.Int64("seed", 0, "override the resampling seed (0 keeps config)")
		topN      = flag.Int("top", 0, "print only the top N hypotheses (0 prints all)")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: adpulse -input <series.xlsx|series.csv> [-seed N] [-top N]")
		os.Exit(2)
	}

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	service, err := app.NewEvaluationService(cfg, rng.NewSeededAdapter(), logger)
	if err != nil {
		logger.Error("failed to build evaluation service: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	reader := excel.NewDataReader(*inputPath, logger)
	data, err := reader.ReadAccountData(ctx)
	if err != nil {
		logger.Error("failed to read input: %v", err)
		os.Exit(1)
	}

	result, err := service.Evaluate(ctx, *data)
	if err != nil {
		logger.Error("evaluation failed: %v", err)
		os.Exit(1)
	}

	if *topN > 0 && *topN < len(result.Hypotheses) {
		result.Hypotheses = result.Hypotheses[:*topN]
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Error("failed to encode result: %v", err)
		os.Exit(1)
	}
}
