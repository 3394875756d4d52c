package chs

import (
	"adpulse/domain/core"
)

// CampaignRecord is the per-campaign Creative Health Score summary for one
// run. Records are recomputed wholesale each run, never updated in place.
type CampaignRecord struct {
	CampaignName   core.CampaignName `json:"campaign_name"`
	ChsPrev        float64           `json:"chs_prev"`
	ChsRecent      float64           `json:"chs_recent"`
	BehaviorPrev   float64           `json:"behavior_prev"`
	BehaviorRecent float64           `json:"behavior_recent"`
	TextQuality    float64           `json:"text_quality"`
	FatigueScore   float64           `json:"fatigue_score"`
	// WeakEvidence marks records whose supporting sample was below the
	// configured minimum impression volume.
	WeakEvidence bool `json:"weak_evidence"`
	// BelowThreshold marks campaigns whose recent CHS fell under the
	// configured health threshold.
	BelowThreshold bool `json:"below_threshold"`
}

// Delta returns chs_recent - chs_prev. A larger negative delta is a
// stronger signal that creative decay explains a performance drop.
func (r CampaignRecord) Delta() float64 {
	return r.ChsRecent - r.ChsPrev
}

// Summary maps campaign name to its CHS record for one run
type Summary map[core.CampaignName]CampaignRecord
