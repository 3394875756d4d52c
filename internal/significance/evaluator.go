package significance

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"adpulse/domain/campaign"
	"adpulse/domain/insight"
	"adpulse/internal/config"
	"adpulse/ports"
)

// resampleShards is the fixed number of worker shards for bootstrap draws.
// Keeping it constant (rather than GOMAXPROCS-dependent) makes p-values
// reproducible for a given seed regardless of the host.
const resampleShards = 4

// Evaluator decides whether an observed prev-to-recent change in ROAS
// and/or CTR is likely real. ROAS uses a resampling test because daily
// ROAS is heavy-tailed and small-sample; CTR uses an exact two-proportion
// z-test because it is a true binomial-rate comparison.
type Evaluator struct {
	cfg     config.EvalConfig
	rngPort ports.RNGPort
}

// NewEvaluator creates a significance evaluator
func NewEvaluator(cfg config.EvalConfig, rngPort ports.RNGPort) *Evaluator {
	return &Evaluator{cfg: cfg, rngPort: rngPort}
}

// Evaluate computes metric evidence for one hypothesis from its window
// pair and returns the enriched copy. It never fails: undefined metrics
// null the dependent p-value and, when no test is computable at all or the
// pair violates the non-overlap invariant, the hypothesis is marked
// unvalidated with zero confidence.
func (e *Evaluator) Evaluate(ctx context.Context, hyp insight.Hypothesis, pair campaign.WindowPair) insight.Hypothesis {
	if err := pair.Validate(); err != nil {
		return Unvalidated(hyp)
	}

	prev := pair.Previous
	recent := pair.Recent

	prevROAS := prev.DailyROAS()
	recentROAS := recent.DailyROAS()

	var pROAS *float64
	drawsUsed := 0
	if len(prevROAS) >= 2 && len(recentROAS) >= 2 {
		draws := e.cfg.EffectiveBootstrapIters()
		p := e.bootstrapPValue(ctx, string(hyp.ID), prevROAS, recentROAS, draws)
		pROAS = &p
		drawsUsed = draws
	}

	pCTR := proportionZTest(
		prev.Sample.Clicks, prev.Sample.Impressions,
		recent.Sample.Clicks, recent.Sample.Impressions,
	)

	effect := effectSizePct(prev, recent)

	sample := insight.SampleSizes{
		PrevDays:           prev.DaysPresent(),
		RecentDays:         recent.DaysPresent(),
		PrevImpressions:    prev.Sample.Impressions,
		RecentImpressions:  recent.Sample.Impressions,
		PrevClicks:         prev.Sample.Clicks,
		RecentClicks:       recent.Sample.Clicks,
		BootstrapDrawsUsed: drawsUsed,
	}

	conf := e.metricConfidence(pROAS, pCTR, prev, recent)
	validated := conf >= e.cfg.ValidationThreshold && (pROAS != nil || pCTR != nil)

	return hyp.WithMetricEvidence(insight.MetricEvidence{
		Validated:        validated,
		MetricConfidence: conf,
		EffectSizePct:    effect,
		PValueROAS:       pROAS,
		PValueCTR:        pCTR,
		Sample:           sample,
	})
}

// Unvalidated marks a hypothesis whose windows could not be built. The run
// continues; only this hypothesis carries zero metric confidence.
func Unvalidated(hyp insight.Hypothesis) insight.Hypothesis {
	return hyp.WithMetricEvidence(insight.MetricEvidence{
		Validated:        false,
		MetricConfidence: 0,
	})
}

// effectSizePct is (recent-prev)/prev*100 on the means of the daily ROAS
// values, the same sample the resampling test draws from, so the reported
// effect always agrees in sign with the tested mean difference. Falls back
// to the daily CTR means when either window has no defined ROAS, else nil.
func effectSizePct(prev, recent campaign.Window) *float64 {
	if pct := meanChangePct(prev.DailyROAS(), recent.DailyROAS()); pct != nil {
		return pct
	}
	return meanChangePct(prev.DailyCTR(), recent.DailyCTR())
}

// meanChangePct returns the percent change between the means of two daily
// value samples, nil when either sample is empty or the base mean is zero.
func meanChangePct(prevVals, recentVals []float64) *float64 {
	if len(prevVals) == 0 || len(recentVals) == 0 {
		return nil
	}
	prevMean, _ := stats.Mean(prevVals)
	recentMean, _ := stats.Mean(recentVals)
	if prevMean == 0 {
		return nil
	}
	return insight.Float((recentMean - prevMean) / prevMean * 100.0)
}

// bootstrapPValue runs a two-sided pooled resampling test for the
// difference in means. Under the null both windows come from the same
// distribution, so both resamples draw with replacement from the combined
// pool; the p-value is the fraction of resampled differences at least as
// extreme as the observed one.
func (e *Evaluator) bootstrapPValue(ctx context.Context, streamName string, prevVals, recentVals []float64, iters int) float64 {
	prevMean, _ := stats.Mean(prevVals)
	recentMean, _ := stats.Mean(recentVals)
	observed := math.Abs(recentMean - prevMean)

	combined := make([]float64, 0, len(prevVals)+len(recentVals))
	combined = append(combined, prevVals...)
	combined = append(combined, recentVals...)

	n1 := len(prevVals)
	n2 := len(recentVals)

	// Shard the draws across a fixed set of workers, each with its own
	// derived stream, so the count is deterministic for a given seed.
	perShard := iters / resampleShards
	remainder := iters % resampleShards

	counts := make([]int, resampleShards)
	var wg sync.WaitGroup
	for shard := 0; shard < resampleShards; shard++ {
		draws := perShard
		if shard < remainder {
			draws++
		}
		if draws == 0 {
			continue
		}
		wg.Add(1)
		go func(shard, draws int) {
			defer wg.Done()
			rng, err := e.rngPort.SeededStream(ctx, streamName, e.cfg.Seed+int64(shard))
			if err != nil {
				rng = rand.New(rand.NewSource(e.cfg.Seed + int64(shard)))
			}
			extreme := 0
			for i := 0; i < draws; i++ {
				diff := resampleMeanDiff(rng, combined, n1, n2)
				if math.Abs(diff) >= observed {
					extreme++
				}
			}
			counts[shard] = extreme
		}(shard, draws)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	p := float64(total) / float64(iters)
	if p > 1.0 {
		p = 1.0
	}
	return p
}

// resampleMeanDiff draws two with-replacement samples from the pool and
// returns the difference of their means.
func resampleMeanDiff(rng *rand.Rand, pool []float64, n1, n2 int) float64 {
	sum1 := 0.0
	for i := 0; i < n1; i++ {
		sum1 += pool[rng.Intn(len(pool))]
	}
	sum2 := 0.0
	for i := 0; i < n2; i++ {
		sum2 += pool[rng.Intn(len(pool))]
	}
	return sum2/float64(n2) - sum1/float64(n1)
}

// proportionZTest computes a two-sided pooled two-proportion z-test
// p-value for the CTR difference. Returns nil when either window has no
// impressions or the pooled proportion is degenerate.
func proportionZTest(k1, n1, k2, n2 int) *float64 {
	if n1 <= 0 || n2 <= 0 {
		return nil
	}
	p1 := float64(k1) / float64(n1)
	p2 := float64(k2) / float64(n2)
	pPool := float64(k1+k2) / float64(n1+n2)
	if pPool <= 0 || pPool >= 1 {
		return nil
	}
	denom := math.Sqrt(pPool * (1 - pPool) * (1/float64(n1) + 1/float64(n2)))
	if denom == 0 {
		return nil
	}
	z := (p1 - p2) / denom
	p := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
	return insight.Float(p)
}

// metricConfidence is the product of three [0,1] factors, so it is
// monotonic and continuous in each. When neither p-value could be
// computed the confidence is 0.
func (e *Evaluator) metricConfidence(pROAS, pCTR *float64, prev, recent campaign.Window) float64 {
	if pROAS == nil && pCTR == nil {
		return 0
	}
	pForConf := pROAS
	if pForConf == nil {
		pForConf = pCTR
	}
	volume := volumeFactor(prev.Sample.Impressions + recent.Sample.Impressions)
	significance := significanceFactor(pForConf, e.cfg.PValueThreshold)
	stability := stabilityFactor(
		prev.DaysPresent()+recent.DaysPresent(),
		prev.RequestedDays+recent.RequestedDays,
	)
	return volume * significance * stability
}

// volumeFactor saturates log-scaled impression volume into [0,1], with
// 10^5 total impressions as the reference for full volume.
func volumeFactor(totalImpressions int) float64 {
	if totalImpressions <= 0 {
		return 0.3
	}
	return math.Min(1.0, math.Log10(float64(totalImpressions))/5.0)
}

// significanceFactor is 1.0 at or below the p-value threshold and decays
// linearly and continuously to a 0.3 floor at p=1. A missing p-value
// scores a neutral 0.5.
func significanceFactor(pValue *float64, threshold float64) float64 {
	if pValue == nil {
		return 0.5
	}
	p := *pValue
	if p <= threshold {
		return 1.0
	}
	return 1.0 - (p-threshold)/(1.0-threshold)*0.7
}

// stabilityFactor is the fraction of requested window days actually present
func stabilityFactor(daysPresent, daysRequested int) float64 {
	if daysRequested <= 0 {
		return 0
	}
	return math.Min(1.0, float64(daysPresent)/float64(daysRequested))
}
