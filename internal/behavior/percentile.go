package behavior

import (
	"sort"

	"adpulse/domain/core"
)

// CampaignMetrics carries one campaign's window-level metric values used
// for relative ranking. Nil means the metric was undefined in that window.
type CampaignMetrics struct {
	Name       core.CampaignName
	PrevROAS   *float64
	RecentROAS *float64
	PrevCTR    *float64
	RecentCTR  *float64
}

// Score is a campaign's relative standing per window, in [0,1]
type Score struct {
	BehaviorPrev   float64
	BehaviorRecent float64
}

// Scorer converts raw ROAS/CTR values into percentile ranks across all
// campaigns in a window. Scores are relative, not absolute: a campaign
// with falling raw ROAS can keep a stable behavior score if peers fell
// further.
type Scorer struct {
	roasWeight float64 // blend weight for the ROAS percentile; CTR gets the rest
}

// NewScorer creates a percentile scorer with the default equal blend
func NewScorer() *Scorer {
	return &Scorer{roasWeight: 0.5}
}

// NewScorerWithBlend creates a scorer with a custom ROAS/CTR blend weight
func NewScorerWithBlend(roasWeight float64) *Scorer {
	if roasWeight < 0 {
		roasWeight = 0
	}
	if roasWeight > 1 {
		roasWeight = 1
	}
	return &Scorer{roasWeight: roasWeight}
}

// Scores ranks every campaign on each metric in each window and blends
// the percentiles into per-window behavior scores. Ranking requires
// seeing all campaigns' values before scoring any one campaign, so this
// is the pipeline's synchronization barrier.
func (s *Scorer) Scores(campaigns []CampaignMetrics) map[core.CampaignName]Score {
	prevROAS := percentiles(campaigns, func(c CampaignMetrics) *float64 { return c.PrevROAS })
	recentROAS := percentiles(campaigns, func(c CampaignMetrics) *float64 { return c.RecentROAS })
	prevCTR := percentiles(campaigns, func(c CampaignMetrics) *float64 { return c.PrevCTR })
	recentCTR := percentiles(campaigns, func(c CampaignMetrics) *float64 { return c.RecentCTR })

	scores := make(map[core.CampaignName]Score, len(campaigns))
	for _, c := range campaigns {
		scores[c.Name] = Score{
			BehaviorPrev:   s.blend(prevROAS[c.Name], prevCTR[c.Name]),
			BehaviorRecent: s.blend(recentROAS[c.Name], recentCTR[c.Name]),
		}
	}
	return scores
}

func (s *Scorer) blend(roasPct, ctrPct float64) float64 {
	return s.roasWeight*roasPct + (1-s.roasWeight)*ctrPct
}

// percentiles converts one metric's values into percentile ranks.
// Percentile = (rank-1)/(n-1) with tied values sharing their average
// rank; a single defined value scores 1.0 by convention (degenerate
// ranking, nothing to compare against); a missing value scores a neutral
// 0.5.
func percentiles(campaigns []CampaignMetrics, pick func(CampaignMetrics) *float64) map[core.CampaignName]float64 {
	type entry struct {
		name  core.CampaignName
		value float64
	}
	defined := make([]entry, 0, len(campaigns))
	for _, c := range campaigns {
		if v := pick(c); v != nil {
			defined = append(defined, entry{name: c.Name, value: *v})
		}
	}

	out := make(map[core.CampaignName]float64, len(campaigns))
	for _, c := range campaigns {
		out[c.Name] = 0.5
	}

	n := len(defined)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[defined[0].name] = 1.0
		return out
	}

	sort.Slice(defined, func(i, j int) bool { return defined[i].value < defined[j].value })

	// Assign ranks, averaging over ties
	i := 0
	for i < n {
		j := i
		for j < n-1 && defined[j+1].value == defined[i].value {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1
		pct := (avgRank - 1) / float64(n-1)
		for k := i; k <= j; k++ {
			out[defined[k].name] = pct
		}
		i = j + 1
	}
	return out
}
