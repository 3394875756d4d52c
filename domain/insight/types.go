package insight

import (
	"adpulse/domain/core"
)

// Scope distinguishes account-level from campaign-level hypotheses
type Scope string

const (
	ScopeOverall  Scope = "overall"
	ScopeCampaign Scope = "campaign"
)

// DriverType is the inferred root-cause category for a performance change
type DriverType string

const (
	DriverOverall  DriverType = "overall"
	DriverCreative DriverType = "creative"
	DriverFunnel   DriverType = "funnel"
	DriverAudience DriverType = "audience"
	DriverMixed    DriverType = "mixed"
)

// EvidenceTag names a kind of evidence a hypothesis requires
type EvidenceTag string

const (
	EvidenceMetricSignificance EvidenceTag = "metric_significance"
	EvidenceChsTrend           EvidenceTag = "chs_trend"
	EvidenceSegmentBreakdown   EvidenceTag = "segment_breakdown"
)

// WindowMetrics is one window's snapshot of the headline metrics
type WindowMetrics struct {
	ROAS        *float64 `json:"roas"`
	CTR         *float64 `json:"ctr"`
	Impressions int      `json:"impressions"`
}

// PctChange holds prev-to-recent percentage changes, nil when undefined
type PctChange struct {
	ROAS *float64 `json:"roas"`
	CTR  *float64 `json:"ctr"`
}

// MetricsSnapshot captures the window-pair metrics a hypothesis was built from
type MetricsSnapshot struct {
	Prev      WindowMetrics `json:"prev"`
	Recent    WindowMetrics `json:"recent"`
	PctChange PctChange     `json:"pct_change"`
}

// SampleSizes records the raw sample volumes used by the significance test
type SampleSizes struct {
	PrevDays           int `json:"prev_days"`
	RecentDays         int `json:"recent_days"`
	PrevImpressions    int `json:"prev_impressions"`
	RecentImpressions  int `json:"recent_impressions"`
	PrevClicks         int `json:"prev_clicks"`
	RecentClicks       int `json:"recent_clicks"`
	BootstrapDrawsUsed int `json:"bootstrap_draws_used"`
}

// MetricEvidence is the significance evaluator's contribution to a hypothesis
type MetricEvidence struct {
	Validated        bool        `json:"validated"`
	MetricConfidence float64     `json:"metric_confidence"`
	EffectSizePct    *float64    `json:"effect_size_pct"`
	PValueROAS       *float64    `json:"p_value_roas"`
	PValueCTR        *float64    `json:"p_value_ctr"`
	Sample           SampleSizes `json:"sample"`
}

// CreativeEvidence is the CHS stage's contribution to a creative hypothesis
type CreativeEvidence struct {
	ChsPrev            *float64 `json:"chs_prev"`
	ChsRecent          *float64 `json:"chs_recent"`
	ChsDelta           *float64 `json:"chs_delta"`
	CreativeConfidence float64  `json:"creative_confidence"`
	WeakEvidence       bool     `json:"weak_evidence"`
}

// Hypothesis is a candidate explanation for a performance change.
// It is enriched additively: each pipeline stage attaches its own evidence
// block and never mutates fields set by an earlier stage.
type Hypothesis struct {
	ID                core.HypothesisID `json:"id"`
	Scope             Scope             `json:"scope"`
	CampaignName      core.CampaignName `json:"campaign_name,omitempty"`
	DriverType        DriverType        `json:"driver_type"`
	Statement         string            `json:"hypothesis"`
	Rationale         string            `json:"rationale"`
	MetricsSnapshot   MetricsSnapshot   `json:"metrics_snapshot"`
	RequiredEvidence  []EvidenceTag     `json:"required_evidence"`
	InitialConfidence float64           `json:"initial_confidence"`

	Metric          *MetricEvidence   `json:"metric_evidence,omitempty"`
	Creative        *CreativeEvidence `json:"creative_evidence,omitempty"`
	FinalConfidence *float64          `json:"final_confidence,omitempty"`
}

// Requires reports whether the hypothesis asks for a given evidence kind
func (h Hypothesis) Requires(tag EvidenceTag) bool {
	for _, t := range h.RequiredEvidence {
		if t == tag {
			return true
		}
	}
	return false
}

// WithMetricEvidence returns a copy carrying the significance result.
// Existing metric evidence is never overwritten.
func (h Hypothesis) WithMetricEvidence(ev MetricEvidence) Hypothesis {
	if h.Metric != nil {
		return h
	}
	out := h
	out.Metric = &ev
	return out
}

// WithCreativeEvidence returns a copy carrying the CHS trend result.
// Existing creative evidence is never overwritten.
func (h Hypothesis) WithCreativeEvidence(ev CreativeEvidence) Hypothesis {
	if h.Creative != nil {
		return h
	}
	out := h
	out.Creative = &ev
	return out
}

// WithFinalConfidence returns a copy carrying the fused confidence.
// Existing final confidence is never overwritten.
func (h Hypothesis) WithFinalConfidence(conf float64) Hypothesis {
	if h.FinalConfidence != nil {
		return h
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	out := h
	out.FinalConfidence = &conf
	return out
}

// Confidence returns the final confidence when set, else the initial placeholder
func (h Hypothesis) Confidence() float64 {
	if h.FinalConfidence != nil {
		return *h.FinalConfidence
	}
	return h.InitialConfidence
}

// RecentImpressions returns the recent-window volume used for tie-breaking
func (h Hypothesis) RecentImpressions() int {
	return h.MetricsSnapshot.Recent.Impressions
}

// Float returns a pointer to v, for nullable snapshot and evidence fields
func Float(v float64) *float64 {
	return &v
}
