package insights

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"adpulse/domain/campaign"
	"adpulse/domain/core"
	"adpulse/domain/insight"
	"adpulse/internal/config"
	"adpulse/internal/window"
)

// Generator derives hypotheses from window deltas: an account-level
// hypothesis when overall ROAS moves meaningfully, campaign hypotheses for
// ROAS drops past the configured threshold, and creative hypotheses for
// structurally low CTR. It is the upstream producer for the evaluation
// pipeline; every hypothesis starts with an initial confidence placeholder
// that later stages refine.
type Generator struct {
	cfg      config.EvalConfig
	splitter *window.Splitter
}

// NewGenerator creates an insight generator
func NewGenerator(cfg config.EvalConfig) *Generator {
	return &Generator{
		cfg:      cfg,
		splitter: window.NewSplitter(cfg.PreviousWindowDays, cfg.RecentWindowDays),
	}
}

// Generate builds the hypothesis set for one run. IDs are deterministic
// for identical input: the overall hypothesis is fixed and campaign
// hypotheses are numbered in sorted campaign-name order.
func (g *Generator) Generate(data campaign.AccountData) []insight.Hypothesis {
	hypotheses := make([]insight.Hypothesis, 0)
	hypotheses = append(hypotheses, g.overallHypotheses(data.AccountDaily)...)

	byCampaign := data.DailyByCampaign()
	counter := 1
	for _, name := range data.CampaignNames() {
		generated := g.campaignHypotheses(name, byCampaign[name], &counter)
		hypotheses = append(hypotheses, generated...)
	}
	return hypotheses
}

func (g *Generator) overallHypotheses(accountDaily []campaign.DailyRow) []insight.Hypothesis {
	pair, err := g.splitter.Split(accountDaily)
	if err != nil {
		return nil
	}

	prevROAS := meanOf(pair.Previous.DailyROAS())
	recentROAS := meanOf(pair.Recent.DailyROAS())
	prevCTR := meanOf(pair.Previous.DailyCTR())
	recentCTR := meanOf(pair.Recent.DailyCTR())

	roasChange := pctChange(prevROAS, recentROAS)
	ctrChange := pctChange(prevCTR, recentCTR)

	if roasChange == nil || math.Abs(*roasChange) <= 5 {
		return nil
	}

	direction := "decreased"
	if *roasChange > 0 {
		direction = "increased"
	}
	statement := fmt.Sprintf("Overall ROAS has %s in the recent period.", direction)
	rationale := fmt.Sprintf("ROAS changed by %.1f%% (prev=%.2f, recent=%.2f).",
		*roasChange, deref(prevROAS), deref(recentROAS))
	if ctrChange != nil {
		rationale += fmt.Sprintf(" CTR changed by %.1f%% (prev=%.4f, recent=%.4f).",
			*ctrChange, deref(prevCTR), deref(recentCTR))
	}

	magnitude := math.Min(1.0, math.Abs(*roasChange)/50.0)

	return []insight.Hypothesis{{
		ID:         "HYP-OVERALL-ROAS",
		Scope:      insight.ScopeOverall,
		DriverType: insight.DriverOverall,
		Statement:  statement,
		Rationale:  rationale,
		MetricsSnapshot: insight.MetricsSnapshot{
			Prev:      insight.WindowMetrics{ROAS: prevROAS, CTR: prevCTR, Impressions: pair.Previous.Sample.Impressions},
			Recent:    insight.WindowMetrics{ROAS: recentROAS, CTR: recentCTR, Impressions: pair.Recent.Sample.Impressions},
			PctChange: insight.PctChange{ROAS: roasChange, CTR: ctrChange},
		},
		RequiredEvidence:  []insight.EvidenceTag{insight.EvidenceMetricSignificance},
		InitialConfidence: 0.4 + 0.4*magnitude,
	}}
}

func (g *Generator) campaignHypotheses(name core.CampaignName, series []campaign.DailyRow, counter *int) []insight.Hypothesis {
	pair, err := g.splitter.Split(series)
	if err != nil {
		return nil
	}

	prevROAS := meanOf(pair.Previous.DailyROAS())
	recentROAS := meanOf(pair.Recent.DailyROAS())
	prevCTR := meanOf(pair.Previous.DailyCTR())
	recentCTR := meanOf(pair.Recent.DailyCTR())

	prevImpr := pair.Previous.Sample.Impressions
	recentImpr := pair.Recent.Sample.Impressions

	roasChange := pctChange(prevROAS, recentROAS)
	ctrChange := pctChange(prevCTR, recentCTR)

	// Low-volume campaigns generate no hypotheses of their own
	if prevImpr < g.cfg.MinImpressionsForStats && recentImpr < g.cfg.MinImpressionsForStats {
		return nil
	}
	if roasChange == nil && ctrChange == nil {
		return nil
	}

	snapshot := insight.MetricsSnapshot{
		Prev:      insight.WindowMetrics{ROAS: prevROAS, CTR: prevCTR, Impressions: prevImpr},
		Recent:    insight.WindowMetrics{ROAS: recentROAS, CTR: recentCTR, Impressions: recentImpr},
		PctChange: insight.PctChange{ROAS: roasChange, CTR: ctrChange},
	}
	volFactor := math.Min(1.0, math.Log10(math.Max(float64(prevImpr+recentImpr), 10))/5.0)

	var out []insight.Hypothesis

	if roasChange != nil && *roasChange <= g.cfg.RoasDropThresholdPct {
		driver, statement := classifyDriver(*roasChange, ctrChange)
		rationale := fmt.Sprintf("Campaign %q ROAS changed by %.1f%% (prev=%.2f, recent=%.2f). ",
			name, *roasChange, deref(prevROAS), deref(recentROAS))
		if ctrChange != nil {
			rationale += fmt.Sprintf("CTR changed by %.1f%% (prev=%.4f, recent=%.4f). ",
				*ctrChange, deref(prevCTR), deref(recentCTR))
		}
		rationale += fmt.Sprintf("Impressions prev=%d, recent=%d.", prevImpr, recentImpr)

		magnitude := math.Min(1.0, math.Abs(*roasChange)/50.0)
		required := []insight.EvidenceTag{insight.EvidenceMetricSignificance}
		switch driver {
		case insight.DriverCreative:
			required = append(required, insight.EvidenceChsTrend)
		case insight.DriverFunnel, insight.DriverAudience, insight.DriverMixed:
			required = append(required, insight.EvidenceSegmentBreakdown)
		}

		out = append(out, insight.Hypothesis{
			ID:                nextID(counter),
			Scope:             insight.ScopeCampaign,
			CampaignName:      name,
			DriverType:        driver,
			Statement:         statement,
			Rationale:         rationale,
			MetricsSnapshot:   snapshot,
			RequiredEvidence:  required,
			InitialConfidence: 0.4 + 0.3*magnitude + 0.2*volFactor,
		})
	}

	// Structurally low CTR flags a creative concern even without a ROAS crash
	if prevCTR != nil && recentCTR != nil && *recentCTR < g.cfg.LowCTRThreshold &&
		(roasChange == nil || *roasChange > g.cfg.RoasDropThresholdPct) {
		statement := fmt.Sprintf(
			"CTR is structurally low for campaign %q, likely indicating weak ad creative or mismatch with audience.", name)
		rationale := fmt.Sprintf(
			"Recent CTR=%.4f below threshold %.4f (prev CTR=%.4f). Impressions prev=%d, recent=%d.",
			*recentCTR, g.cfg.LowCTRThreshold, *prevCTR, prevImpr, recentImpr)

		magnitude := 0.5
		if g.cfg.LowCTRThreshold > 0 {
			magnitude = math.Min(1.0, math.Abs((*recentCTR-g.cfg.LowCTRThreshold)/g.cfg.LowCTRThreshold))
		}

		out = append(out, insight.Hypothesis{
			ID:              nextID(counter),
			Scope:           insight.ScopeCampaign,
			CampaignName:    name,
			DriverType:      insight.DriverCreative,
			Statement:       statement,
			Rationale:       rationale,
			MetricsSnapshot: snapshot,
			RequiredEvidence: []insight.EvidenceTag{
				insight.EvidenceMetricSignificance,
				insight.EvidenceChsTrend,
			},
			InitialConfidence: 0.4 + 0.3*magnitude + 0.2*volFactor,
		})
	}

	return out
}

// classifyDriver infers the root-cause category from how CTR moved
// alongside a ROAS drop: both down points at the creative, CTR flat at
// the post-click funnel, CTR up at low-intent audience.
func classifyDriver(roasChange float64, ctrChange *float64) (insight.DriverType, string) {
	if ctrChange == nil {
		return insight.DriverMixed, "ROAS dropped; unclear if driven by click-through or conversion."
	}
	if roasChange >= 0 {
		return insight.DriverMixed, "ROAS improved; campaign is performing better overall, but deeper drivers need evaluation."
	}
	switch {
	case *ctrChange < -5:
		return insight.DriverCreative, "ROAS and CTR both dropped; likely creative fatigue or weaker ad messaging."
	case math.Abs(*ctrChange) <= 5:
		return insight.DriverFunnel, "ROAS dropped while CTR is stable; likely a post-click or pricing/funnel issue."
	default:
		return insight.DriverAudience, "ROAS dropped while CTR increased; likely attracting low-intent clicks or a mismatch between audience and product value."
	}
}

func nextID(counter *int) core.HypothesisID {
	id := core.HypothesisID(fmt.Sprintf("HYP-%03d", *counter))
	*counter++
	return id
}

func meanOf(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return nil
	}
	return &m
}

func pctChange(prev, recent *float64) *float64 {
	if prev == nil || recent == nil || *prev == 0 {
		return nil
	}
	change := (*recent - *prev) / *prev * 100.0
	return &change
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
