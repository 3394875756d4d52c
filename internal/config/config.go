package config

import (
	"math"
	"os"
	"strconv"

	"adpulse/domain/core"
)

// FusionStrategyName selects how metric and driver confidences are fused
type FusionStrategyName string

const (
	FusionWeightedAverage FusionStrategyName = "weighted_average"
	FusionMax             FusionStrategyName = "max"
)

// EvalConfig holds every threshold and weight used by one evaluation run.
// It is passed explicitly into each component and is read-only for the
// duration of the run.
type EvalConfig struct {
	RecentWindowDays   int
	PreviousWindowDays int

	PValueThreshold float64
	BootstrapIters  int
	// MaxBootstrapIters is a hard per-run ceiling, not adaptive.
	MaxBootstrapIters   int
	ValidationThreshold float64
	Seed                int64

	BehaviorWeight float64
	TextWeight     float64
	FatigueWeight  float64

	RoasDropThresholdPct   float64
	LowCTRThreshold        float64
	ChsThreshold           float64
	MinImpressionsForStats int

	FusionStrategy FusionStrategyName

	// MaxWorkers bounds concurrent per-campaign evaluation. <=0 means serial.
	MaxWorkers int
}

// Default returns the baseline configuration
func Default() EvalConfig {
	return EvalConfig{
		RecentWindowDays:       14,
		PreviousWindowDays:     14,
		PValueThreshold:        0.05,
		BootstrapIters:         1000,
		MaxBootstrapIters:      100000,
		ValidationThreshold:    0.5,
		Seed:                   42,
		BehaviorWeight:         0.5,
		TextWeight:             0.3,
		FatigueWeight:          0.2,
		RoasDropThresholdPct:   -20.0,
		LowCTRThreshold:        0.02,
		ChsThreshold:           50.0,
		MinImpressionsForStats: 1000,
		FusionStrategy:         FusionWeightedAverage,
		MaxWorkers:             4,
	}
}

// Load reads the evaluation configuration from environment variables,
// starting from defaults, and validates it.
func Load() (EvalConfig, error) {
	cfg := Default()

	cfg.RecentWindowDays = getEnvIntOrDefault("RECENT_WINDOW_DAYS", cfg.RecentWindowDays)
	cfg.PreviousWindowDays = getEnvIntOrDefault("PREVIOUS_WINDOW_DAYS", cfg.PreviousWindowDays)
	cfg.PValueThreshold = getEnvFloatOrDefault("P_VALUE_THRESHOLD", cfg.PValueThreshold)
	cfg.BootstrapIters = getEnvIntOrDefault("BOOTSTRAP_ITERS", cfg.BootstrapIters)
	cfg.MaxBootstrapIters = getEnvIntOrDefault("MAX_BOOTSTRAP_ITERS", cfg.MaxBootstrapIters)
	cfg.ValidationThreshold = getEnvFloatOrDefault("VALIDATION_THRESHOLD", cfg.ValidationThreshold)
	cfg.Seed = int64(getEnvIntOrDefault("EVAL_SEED", int(cfg.Seed)))
	cfg.BehaviorWeight = getEnvFloatOrDefault("BEHAVIOR_WEIGHT", cfg.BehaviorWeight)
	cfg.TextWeight = getEnvFloatOrDefault("TEXT_WEIGHT", cfg.TextWeight)
	cfg.FatigueWeight = getEnvFloatOrDefault("FATIGUE_WEIGHT", cfg.FatigueWeight)
	cfg.RoasDropThresholdPct = getEnvFloatOrDefault("ROAS_DROP_THRESHOLD_PCT", cfg.RoasDropThresholdPct)
	cfg.LowCTRThreshold = getEnvFloatOrDefault("LOW_CTR_THRESHOLD", cfg.LowCTRThreshold)
	cfg.ChsThreshold = getEnvFloatOrDefault("CHS_THRESHOLD", cfg.ChsThreshold)
	cfg.MinImpressionsForStats = getEnvIntOrDefault("MIN_IMPRESSIONS_FOR_STATS", cfg.MinImpressionsForStats)
	cfg.MaxWorkers = getEnvIntOrDefault("MAX_WORKERS", cfg.MaxWorkers)
	if v := os.Getenv("FUSION_STRATEGY"); v != "" {
		cfg.FusionStrategy = FusionStrategyName(v)
	}

	if err := cfg.Validate(); err != nil {
		return EvalConfig{}, err
	}
	return cfg, nil
}

// Validate rejects malformed configuration before any computation starts.
// This is the only run-fatal error condition.
func (c EvalConfig) Validate() error {
	if c.RecentWindowDays <= 0 {
		return core.NewConfigError("recent_window_days", "must be positive")
	}
	if c.PreviousWindowDays <= 0 {
		return core.NewConfigError("previous_window_days", "must be positive")
	}
	if c.PValueThreshold <= 0 || c.PValueThreshold >= 1 {
		return core.NewConfigError("p_value_threshold", "must be in (0,1)")
	}
	if c.BootstrapIters <= 0 {
		return core.NewConfigError("bootstrap_iters", "must be positive")
	}
	if c.MaxBootstrapIters < c.BootstrapIters {
		return core.NewConfigError("max_bootstrap_iters", "must be >= bootstrap_iters")
	}
	weightSum := c.BehaviorWeight + c.TextWeight + c.FatigueWeight
	if math.Abs(weightSum-1.0) > 1e-9 {
		return core.NewConfigError("chs weights", "must sum to 1")
	}
	if c.BehaviorWeight < 0 || c.TextWeight < 0 || c.FatigueWeight < 0 {
		return core.NewConfigError("chs weights", "must be non-negative")
	}
	if c.MinImpressionsForStats < 0 {
		return core.NewConfigError("min_impressions_for_stats", "must be non-negative")
	}
	switch c.FusionStrategy {
	case FusionWeightedAverage, FusionMax:
	default:
		return core.NewConfigError("fusion_strategy", "must be weighted_average or max")
	}
	return nil
}

// EffectiveBootstrapIters applies the hard iteration ceiling
func (c EvalConfig) EffectiveBootstrapIters() int {
	if c.BootstrapIters > c.MaxBootstrapIters {
		return c.MaxBootstrapIters
	}
	return c.BootstrapIters
}

// Helper functions for environment variable parsing
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
