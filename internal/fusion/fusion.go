package fusion

import (
	"adpulse/domain/chs"
	"adpulse/domain/core"
	"adpulse/domain/insight"
	"adpulse/internal/config"
)

// creativeHalfDrop is the CHS drop (in points) at which creative
// confidence reaches 0.5. The curve saturates toward 1 for larger drops.
const creativeHalfDrop = 15.0

// noRecordConfidence is the conservative creative confidence assigned when
// a creative hypothesis has no CHS record to lean on.
const noRecordConfidence = 0.3

// CreativeConfidence maps a CHS delta to confidence that creative decay
// explains the performance change. A flat or improving CHS while ROAS
// falls must not implicate the creative, so the confidence is exactly 0
// for any non-negative delta and strictly increasing in the drop size
// otherwise, saturating toward 1.
func CreativeConfidence(chsDelta float64) float64 {
	if chsDelta >= 0 {
		return 0
	}
	drop := -chsDelta
	return drop / (drop + creativeHalfDrop)
}

// AttachCreativeEvidence enriches creative-driver hypotheses that require
// CHS trend evidence with their campaign's CHS record. Hypotheses outside
// that set pass through unchanged.
func AttachCreativeEvidence(hyp insight.Hypothesis, summary chs.Summary) insight.Hypothesis {
	if hyp.DriverType != insight.DriverCreative || !hyp.Requires(insight.EvidenceChsTrend) || hyp.CampaignName == "" {
		return hyp
	}

	record, ok := summary[hyp.CampaignName]
	if !ok {
		return hyp.WithCreativeEvidence(insight.CreativeEvidence{
			CreativeConfidence: noRecordConfidence,
		})
	}

	delta := record.Delta()
	return hyp.WithCreativeEvidence(insight.CreativeEvidence{
		ChsPrev:            insight.Float(record.ChsPrev),
		ChsRecent:          insight.Float(record.ChsRecent),
		ChsDelta:           insight.Float(delta),
		CreativeConfidence: CreativeConfidence(delta),
		WeakEvidence:       record.WeakEvidence,
	})
}

// Strategy fuses per-stage confidences into one final confidence. The
// result must never exceed the maximum of its inputs and must be 0 when
// all inputs are 0.
type Strategy interface {
	Name() config.FusionStrategyName
	Fuse(hyp insight.Hypothesis) float64
}

// NewStrategy resolves a configured strategy name
func NewStrategy(name config.FusionStrategyName) (Strategy, error) {
	switch name {
	case config.FusionWeightedAverage:
		return weightedAverageStrategy{}, nil
	case config.FusionMax:
		return maxStrategy{}, nil
	default:
		return nil, core.NewConfigError("fusion_strategy", "unknown strategy "+string(name))
	}
}

// weightedAverageStrategy biases creative hypotheses slightly toward
// metric evidence (0.6 metric, 0.4 creative); non-creative hypotheses
// rely on metric evidence alone. With no evidence at all the initial
// placeholder stands.
type weightedAverageStrategy struct{}

func (weightedAverageStrategy) Name() config.FusionStrategyName { return config.FusionWeightedAverage }

func (weightedAverageStrategy) Fuse(hyp insight.Hypothesis) float64 {
	if hyp.Metric == nil && hyp.Creative == nil {
		return clamp01(hyp.InitialConfidence)
	}
	if hyp.DriverType == insight.DriverCreative && hyp.Creative != nil {
		m := 0.0
		if hyp.Metric != nil {
			m = hyp.Metric.MetricConfidence
		}
		return clamp01(0.6*m + 0.4*hyp.Creative.CreativeConfidence)
	}
	if hyp.Metric != nil {
		return clamp01(hyp.Metric.MetricConfidence)
	}
	return clamp01(hyp.InitialConfidence)
}

// maxStrategy takes the strongest single evidence source
type maxStrategy struct{}

func (maxStrategy) Name() config.FusionStrategyName { return config.FusionMax }

func (maxStrategy) Fuse(hyp insight.Hypothesis) float64 {
	if hyp.Metric == nil && hyp.Creative == nil {
		return clamp01(hyp.InitialConfidence)
	}
	best := 0.0
	if hyp.Metric != nil && hyp.Metric.MetricConfidence > best {
		best = hyp.Metric.MetricConfidence
	}
	if hyp.Creative != nil && hyp.Creative.CreativeConfidence > best {
		best = hyp.Creative.CreativeConfidence
	}
	return clamp01(best)
}

// Finalize applies the strategy and stamps the final confidence
func Finalize(hyp insight.Hypothesis, strategy Strategy) insight.Hypothesis {
	return hyp.WithFinalConfidence(strategy.Fuse(hyp))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
