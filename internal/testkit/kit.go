package testkit

import (
	"math/rand"
	"time"

	"adpulse/domain/campaign"
	"adpulse/domain/core"
)

// SeriesSpec describes one campaign's synthetic daily series. Generation
// is fully deterministic for a given spec, so tests can assert on exact
// window behavior.
type SeriesSpec struct {
	Campaign  core.CampaignName
	StartDate time.Time
	Days      int

	DailyImpressions int
	CTR              float64
	DailySpend       float64
	ROAS             float64

	// DropAfterDay applies the drop factors from this day index onward.
	// Zero factors mean no drop.
	DropAfterDay   int
	CTRDropFactor  float64
	ROASDropFactor float64

	// JitterPct adds seeded multiplicative noise to spend and revenue
	JitterPct float64
	Seed      int64
}

// GenerateSeries builds a deterministic daily series from a spec
func GenerateSeries(spec SeriesSpec) []campaign.DailyRow {
	rng := rand.New(rand.NewSource(spec.Seed + int64(len(spec.Campaign))))
	rows := make([]campaign.DailyRow, 0, spec.Days)
	for day := 0; day < spec.Days; day++ {
		ctr := spec.CTR
		roas := spec.ROAS
		if spec.DropAfterDay > 0 && day >= spec.DropAfterDay {
			if spec.CTRDropFactor > 0 {
				ctr *= spec.CTRDropFactor
			}
			if spec.ROASDropFactor > 0 {
				roas *= spec.ROASDropFactor
			}
		}

		spend := spec.DailySpend * jitter(rng, spec.JitterPct)
		revenue := spend * roas * jitter(rng, spec.JitterPct)

		rows = append(rows, campaign.DailyRow{
			Date:         spec.StartDate.AddDate(0, 0, day),
			CampaignName: spec.Campaign,
			Impressions:  spec.DailyImpressions,
			Clicks:       int(float64(spec.DailyImpressions) * ctr),
			Spend:        spend,
			Revenue:      revenue,
			Purchases:    int(revenue / 50.0),
		})
	}
	return rows
}

// BuildAccountData assembles campaign series into a full input bundle,
// deriving the account series by summing campaigns per day.
func BuildAccountData(specs ...SeriesSpec) campaign.AccountData {
	var campaignDaily []campaign.DailyRow
	accountByDate := make(map[time.Time]campaign.DailyRow)

	for _, spec := range specs {
		series := GenerateSeries(spec)
		campaignDaily = append(campaignDaily, series...)
		for _, row := range series {
			agg := accountByDate[row.Date]
			agg.Date = row.Date
			agg.Impressions += row.Impressions
			agg.Clicks += row.Clicks
			agg.Spend += row.Spend
			agg.Revenue += row.Revenue
			agg.Purchases += row.Purchases
			accountByDate[row.Date] = agg
		}
	}

	accountDaily := make([]campaign.DailyRow, 0, len(accountByDate))
	for _, row := range accountByDate {
		accountDaily = append(accountDaily, row)
	}
	return campaign.AccountData{
		AccountDaily:  accountDaily,
		CampaignDaily: campaignDaily,
	}
}

// Profile builds a creative profile fixture from term counts and top shares
func Profile(name core.CampaignName, terms map[string]int, sharePrev, shareRecent float64) campaign.CreativeProfile {
	profile := campaign.CreativeProfile{
		CampaignName:   name,
		TopShareKnown:  true,
		TopSharePrev:   sharePrev,
		TopShareRecent: shareRecent,
	}
	for term, count := range terms {
		profile.TextTerms = append(profile.TextTerms, campaign.TextTerm{Term: term, Count: count})
	}
	return profile
}

// Date is shorthand for a UTC midnight timestamp in fixtures
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func jitter(rng *rand.Rand, pct float64) float64 {
	if pct <= 0 {
		return 1.0
	}
	return 1.0 + (rng.Float64()*2-1)*pct
}
