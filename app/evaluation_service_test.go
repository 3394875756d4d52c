package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"adpulse/adapters/rng"
	"adpulse/domain/campaign"
	"adpulse/domain/core"
	"adpulse/domain/insight"
	"adpulse/internal/config"
	"adpulse/internal/testkit"
)

func testConfig() config.EvalConfig {
	cfg := config.Default()
	cfg.BootstrapIters = 300
	return cfg
}

func newService(t *testing.T, cfg config.EvalConfig) *EvaluationService {
	t.Helper()
	service, err := NewEvaluationService(cfg, rng.NewSeededAdapter(), nil)
	require.NoError(t, err)
	return service
}

func dropScenario() campaign.AccountData {
	data := testkit.BuildAccountData(
		testkit.SeriesSpec{
			Campaign:         "camp-drop",
			StartDate:        testkit.Date(2026, 7, 1),
			Days:             28,
			DailyImpressions: 8000,
			CTR:              0.04,
			DailySpend:       100,
			ROAS:             10,
			DropAfterDay:     14,
			ROASDropFactor:   0.5,
			CTRDropFactor:    0.5,
		},
		testkit.SeriesSpec{
			Campaign:         "camp-stable",
			StartDate:        testkit.Date(2026, 7, 1),
			Days:             28,
			DailyImpressions: 8000,
			CTR:              0.04,
			DailySpend:       100,
			ROAS:             10,
		},
	)
	data.Creatives = []campaign.CreativeProfile{
		testkit.Profile("camp-drop", map[string]int{"thing": 10}, 0.3, 0.9),
		testkit.Profile("camp-stable", map[string]int{"comfort": 10}, 0.3, 0.3),
	}
	return data
}

// TestEvaluate_DropScenario runs the full pipeline over a clean halving of
// one campaign's ROAS and CTR and checks the end-to-end shape of the result.
func TestEvaluate_DropScenario(t *testing.T) {
	service := newService(t, testConfig())

	result, err := service.Evaluate(context.Background(), dropScenario())
	require.NoError(t, err)
	require.NotEmpty(t, result.Hypotheses)
	require.NotEmpty(t, result.RunID)

	// Both campaigns carry CHS records regardless of hypothesis status
	require.Contains(t, result.ChsSummary, core.CampaignName("camp-drop"))
	require.Contains(t, result.ChsSummary, core.CampaignName("camp-stable"))

	var creativeHyp *insight.Hypothesis
	for i := range result.Hypotheses {
		h := &result.Hypotheses[i]
		require.NotNil(t, h.Metric, "every hypothesis must carry metric evidence, %s has none", h.ID)
		require.NotNil(t, h.FinalConfidence, "every hypothesis must carry final confidence")
		if h.CampaignName == "camp-drop" && h.DriverType == insight.DriverCreative {
			creativeHyp = h
		}
	}
	require.NotNil(t, creativeHyp, "a collapsing CTR should produce a creative hypothesis")

	// Metric evidence reflects the halved ROAS
	require.NotNil(t, creativeHyp.Metric.EffectSizePct)
	require.InDelta(t, -50.0, *creativeHyp.Metric.EffectSizePct, 2.0)
	require.NotNil(t, creativeHyp.Metric.PValueROAS)
	require.Less(t, *creativeHyp.Metric.PValueROAS, 0.05)

	// Creative evidence reflects the rising top-creative share
	require.NotNil(t, creativeHyp.Creative, "creative hypothesis must carry CHS evidence")
	require.NotNil(t, creativeHyp.Creative.ChsDelta)
	require.Negative(t, *creativeHyp.Creative.ChsDelta)
	require.Positive(t, creativeHyp.Creative.CreativeConfidence)

	// Ranked descending by confidence
	for i := 1; i < len(result.Hypotheses); i++ {
		require.GreaterOrEqual(t,
			result.Hypotheses[i-1].Confidence(), result.Hypotheses[i].Confidence(),
			"hypotheses must be ranked descending")
	}
}

// TestEvaluate_Deterministic verifies two runs with the same seed produce
// identical confidences and ordering.
func TestEvaluate_Deterministic(t *testing.T) {
	data := dropScenario()

	first, err := newService(t, testConfig()).Evaluate(context.Background(), data)
	require.NoError(t, err)
	second, err := newService(t, testConfig()).Evaluate(context.Background(), data)
	require.NoError(t, err)

	require.Equal(t, len(first.Hypotheses), len(second.Hypotheses))
	for i := range first.Hypotheses {
		a, b := first.Hypotheses[i], second.Hypotheses[i]
		require.Equal(t, a.ID, b.ID, "ordering must be reproducible")
		require.Equal(t, *a.FinalConfidence, *b.FinalConfidence)
		if a.Metric.PValueROAS != nil {
			require.Equal(t, *a.Metric.PValueROAS, *b.Metric.PValueROAS)
		}
	}
}

// TestEvaluate_DeadRecentWindow verifies a campaign that stops serving
// still appears in the output with a nil CTR p-value.
func TestEvaluate_DeadRecentWindow(t *testing.T) {
	data := testkit.BuildAccountData(testkit.SeriesSpec{
		Campaign:         "camp-dead",
		StartDate:        testkit.Date(2026, 7, 1),
		Days:             28,
		DailyImpressions: 8000,
		CTR:              0.04,
		DailySpend:       100,
		ROAS:             10,
	})
	// Kill delivery in the recent window but keep spend flowing
	for i := range data.CampaignDaily {
		if data.CampaignDaily[i].Date.After(testkit.Date(2026, 7, 14)) {
			data.CampaignDaily[i].Impressions = 0
			data.CampaignDaily[i].Clicks = 0
			data.CampaignDaily[i].Revenue = 100 // ROAS 1, down from 10
		}
	}
	for i := range data.AccountDaily {
		if data.AccountDaily[i].Date.After(testkit.Date(2026, 7, 14)) {
			data.AccountDaily[i].Impressions = 0
			data.AccountDaily[i].Clicks = 0
			data.AccountDaily[i].Revenue = 100
		}
	}

	service := newService(t, testConfig())
	result, err := service.Evaluate(context.Background(), data)
	require.NoError(t, err)

	var found bool
	for _, h := range result.Hypotheses {
		if h.CampaignName != "camp-dead" {
			continue
		}
		found = true
		require.NotNil(t, h.Metric)
		require.Nil(t, h.Metric.PValueCTR, "zero recent impressions must null the CTR p-value")
		require.NotNil(t, h.Metric.PValueROAS, "ROAS test should still run on spend/revenue")
	}
	require.True(t, found, "the dead campaign's hypothesis must stay in the output")
}

// TestEvaluate_ShortCampaignDegradesGracefully verifies a campaign without
// enough history degrades to unvalidated instead of failing the run.
func TestEvaluate_ShortCampaignDegradesGracefully(t *testing.T) {
	data := dropScenario()
	// A brand new campaign with 3 days of data cannot form a window pair
	short := testkit.GenerateSeries(testkit.SeriesSpec{
		Campaign:         "camp-new",
		StartDate:        testkit.Date(2026, 7, 26),
		Days:             3,
		DailyImpressions: 8000,
		CTR:              0.005, // low CTR so it generates a hypothesis
		DailySpend:       100,
		ROAS:             10,
	})
	data.CampaignDaily = append(data.CampaignDaily, short...)

	service := newService(t, testConfig())
	result, err := service.Evaluate(context.Background(), data)
	require.NoError(t, err, "one short campaign must not fail the run")
	require.NotEmpty(t, result.Hypotheses)
}

// TestNewEvaluationService_InvalidConfig verifies construction rejects
// malformed configuration.
func TestNewEvaluationService_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BehaviorWeight = 0.9 // weights no longer sum to 1
	_, err := NewEvaluationService(cfg, rng.NewSeededAdapter(), nil)
	require.Error(t, err)

	cfg = testConfig()
	cfg.FusionStrategy = "median"
	_, err = NewEvaluationService(cfg, rng.NewSeededAdapter(), nil)
	require.Error(t, err)
}

// TestEvaluate_ConfidenceBounds verifies every confidence stays in [0,1]
func TestEvaluate_ConfidenceBounds(t *testing.T) {
	service := newService(t, testConfig())
	result, err := service.Evaluate(context.Background(), dropScenario())
	require.NoError(t, err)

	for _, h := range result.Hypotheses {
		conf := h.Confidence()
		require.False(t, math.IsNaN(conf), "%s: confidence is NaN", h.ID)
		require.GreaterOrEqual(t, conf, 0.0)
		require.LessOrEqual(t, conf, 1.0)
	}
}
