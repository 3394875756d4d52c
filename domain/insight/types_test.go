package insight

import (
	"testing"
)

// TestEnrichment_NeverOverwrites verifies the copy-on-write enrichment
// invariant for every evidence block.
func TestEnrichment_NeverOverwrites(t *testing.T) {
	base := Hypothesis{ID: "HYP-001", InitialConfidence: 0.4}

	withMetric := base.WithMetricEvidence(MetricEvidence{MetricConfidence: 0.7})
	if withMetric.Metric == nil || withMetric.Metric.MetricConfidence != 0.7 {
		t.Fatal("metric evidence not attached")
	}
	if base.Metric != nil {
		t.Error("enrichment must not mutate the original")
	}

	second := withMetric.WithMetricEvidence(MetricEvidence{MetricConfidence: 0.1})
	if second.Metric.MetricConfidence != 0.7 {
		t.Errorf("metric evidence must not be overwritten, got %f", second.Metric.MetricConfidence)
	}

	withCreative := withMetric.WithCreativeEvidence(CreativeEvidence{CreativeConfidence: 0.5})
	again := withCreative.WithCreativeEvidence(CreativeEvidence{CreativeConfidence: 0.9})
	if again.Creative.CreativeConfidence != 0.5 {
		t.Errorf("creative evidence must not be overwritten, got %f", again.Creative.CreativeConfidence)
	}

	final := withCreative.WithFinalConfidence(0.6)
	refinal := final.WithFinalConfidence(0.9)
	if *refinal.FinalConfidence != 0.6 {
		t.Errorf("final confidence must not be overwritten, got %f", *refinal.FinalConfidence)
	}
}

// TestWithFinalConfidence_Clamps verifies out-of-range confidences clamp
func TestWithFinalConfidence_Clamps(t *testing.T) {
	if got := *(Hypothesis{}.WithFinalConfidence(1.5)).FinalConfidence; got != 1.0 {
		t.Errorf("confidence above 1 should clamp to 1, got %f", got)
	}
	if got := *(Hypothesis{}.WithFinalConfidence(-0.5)).FinalConfidence; got != 0.0 {
		t.Errorf("confidence below 0 should clamp to 0, got %f", got)
	}
}

// TestConfidence_Fallback verifies the initial placeholder stands until a
// final confidence is fused.
func TestConfidence_Fallback(t *testing.T) {
	h := Hypothesis{InitialConfidence: 0.42}
	if h.Confidence() != 0.42 {
		t.Errorf("expected initial confidence, got %f", h.Confidence())
	}
	fused := h.WithFinalConfidence(0.8)
	if fused.Confidence() != 0.8 {
		t.Errorf("expected final confidence, got %f", fused.Confidence())
	}
}

// TestRequires matches tags exactly
func TestRequires(t *testing.T) {
	h := Hypothesis{RequiredEvidence: []EvidenceTag{EvidenceMetricSignificance, EvidenceChsTrend}}
	if !h.Requires(EvidenceChsTrend) {
		t.Error("expected chs_trend to be required")
	}
	if h.Requires(EvidenceSegmentBreakdown) {
		t.Error("segment_breakdown should not be required")
	}
}
