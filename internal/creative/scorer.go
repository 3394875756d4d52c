package creative

import (
	"adpulse/domain/campaign"
	"adpulse/domain/chs"
	"adpulse/domain/core"
	"adpulse/internal/behavior"
	"adpulse/internal/config"
)

// Language marker dictionaries for the text-quality heuristic. Matching is
// against the externally supplied top creative text tokens.
var (
	benefitWords = wordSet(
		"comfort", "comfortable", "soft", "seamless", "breathable", "support",
		"fit", "stretch", "lightweight", "invisible", "smooth",
	)
	urgencyWords = wordSet(
		"today", "now", "limited", "last", "sale", "deal", "offer", "hurry",
	)
	socialWords = wordSet(
		"rated", "reviews", "bestseller", "favorite", "loved", "customers",
	)
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// CampaignInput bundles everything the CHS needs for one campaign
type CampaignInput struct {
	Name             core.CampaignName
	Behavior         behavior.Score
	Profile          campaign.CreativeProfile
	HasProfile       bool
	TotalImpressions int
}

// Scorer fuses behavioral percentile, text-quality and creative-fatigue
// signals into one composite Creative Health Score per campaign per window
type Scorer struct {
	cfg config.EvalConfig
}

// NewScorer creates a CHS scorer with the given weights and thresholds
func NewScorer(cfg config.EvalConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Summary computes the per-campaign CHS records for one run. Campaigns
// below the minimum impression volume are still scored but flagged as
// weak evidence, never silently dropped.
func (s *Scorer) Summary(inputs []CampaignInput) chs.Summary {
	summary := make(chs.Summary, len(inputs))
	for _, in := range inputs {
		summary[in.Name] = s.score(in)
	}
	return summary
}

func (s *Scorer) score(in CampaignInput) chs.CampaignRecord {
	textQuality := textQualityScore(in.Profile.TextTerms)
	fatiguePrev, fatigueRecent := fatigueScores(in.Profile, in.HasProfile)

	record := chs.CampaignRecord{
		CampaignName:   in.Name,
		BehaviorPrev:   in.Behavior.BehaviorPrev,
		BehaviorRecent: in.Behavior.BehaviorRecent,
		TextQuality:    textQuality,
		FatigueScore:   fatigueRecent,
		WeakEvidence:   in.TotalImpressions < s.cfg.MinImpressionsForStats,
	}
	record.ChsPrev = s.composite(in.Behavior.BehaviorPrev, textQuality, fatiguePrev)
	record.ChsRecent = s.composite(in.Behavior.BehaviorRecent, textQuality, fatigueRecent)
	record.BelowThreshold = record.ChsRecent < s.cfg.ChsThreshold
	return record
}

// composite is 100 * (wb*behavior + wt*text + wf*fatigue). Weights sum to
// 1 and every score is in [0,1], so the result lies in [0,100].
func (s *Scorer) composite(behaviorScore, textScore, fatigueScore float64) float64 {
	return 100.0 * (s.cfg.BehaviorWeight*behaviorScore +
		s.cfg.TextWeight*textScore +
		s.cfg.FatigueWeight*fatigueScore)
}

// textQualityScore rates the presence of benefit, urgency and social-proof
// language in the campaign's top creative tokens. No tokens at all scores
// a neutral midpoint rather than 0, to avoid penalizing sparse data.
func textQualityScore(terms []campaign.TextTerm) float64 {
	if len(terms) == 0 {
		return 0.5
	}
	total := 0
	benefit, urgency, social := 0, 0, 0
	for _, t := range terms {
		total += t.Count
		if benefitWords[t.Term] {
			benefit += t.Count
		}
		if urgencyWords[t.Term] {
			urgency += t.Count
		}
		if socialWords[t.Term] {
			social += t.Count
		}
	}
	if total <= 0 {
		return 0.5
	}
	score := 0.3 +
		0.4*float64(benefit)/float64(total) +
		0.2*float64(urgency)/float64(total) +
		0.1*float64(social)/float64(total)
	return clamp01(score)
}

// fatigueScores converts per-window impression share of the top creative
// into fatigue scores: high concentration on one creative means a low
// score (more fatigue risk). Unknown share scores neutral.
func fatigueScores(profile campaign.CreativeProfile, known bool) (prev, recent float64) {
	if !known || !profile.TopShareKnown {
		return 0.5, 0.5
	}
	return clamp01(1.0 - profile.TopSharePrev), clamp01(1.0 - profile.TopShareRecent)
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
