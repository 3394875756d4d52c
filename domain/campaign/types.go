package campaign

import (
	"fmt"
	"sort"
	"time"

	"adpulse/domain/core"
)

// DailyRow is one calendar day of delivery metrics for a campaign or for
// the account total (empty CampaignName).
type DailyRow struct {
	Date         time.Time         `json:"date"`
	CampaignName core.CampaignName `json:"campaign_name,omitempty"`
	Impressions  int               `json:"impressions"`
	Clicks       int               `json:"clicks"`
	Spend        float64           `json:"spend"`
	Revenue      float64           `json:"revenue"`
	Purchases    int               `json:"purchases"`
}

// CTR returns the day's click-through rate, 0 when no impressions
func (r DailyRow) CTR() float64 {
	if r.Impressions <= 0 {
		return 0
	}
	return float64(r.Clicks) / float64(r.Impressions)
}

// ROAS returns the day's return on ad spend and whether it is defined
func (r DailyRow) ROAS() (float64, bool) {
	if r.Spend <= 0 {
		return 0, false
	}
	return r.Revenue / r.Spend, true
}

// Period is a contiguous date range, inclusive on both ends
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Days returns the number of calendar days covered by the period
func (p Period) Days() int {
	if p.EndDate.Before(p.StartDate) {
		return 0
	}
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// MetricSample aggregates delivery metrics over one window
type MetricSample struct {
	Period      Period  `json:"period"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Purchases   int     `json:"purchases"`
}

// NewMetricSample aggregates daily rows into a window-level sample
func NewMetricSample(period Period, rows []DailyRow) MetricSample {
	s := MetricSample{Period: period}
	for _, r := range rows {
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
		s.Spend += r.Spend
		s.Revenue += r.Revenue
		s.Purchases += r.Purchases
	}
	return s
}

// CTR returns clicks/impressions, 0 when impressions is 0
func (s MetricSample) CTR() float64 {
	if s.Impressions <= 0 {
		return 0
	}
	return float64(s.Clicks) / float64(s.Impressions)
}

// HasCTR reports whether CTR is defined for this sample
func (s MetricSample) HasCTR() bool {
	return s.Impressions > 0
}

// ROAS returns revenue/spend; the boolean is false when spend is 0
func (s MetricSample) ROAS() (float64, bool) {
	if s.Spend <= 0 {
		return 0, false
	}
	return s.Revenue / s.Spend, true
}

// CVR returns purchases/clicks, 0 when clicks is 0
func (s MetricSample) CVR() float64 {
	if s.Clicks <= 0 {
		return 0
	}
	return float64(s.Purchases) / float64(s.Clicks)
}

// Window is a sub-range of a daily series plus its aggregate sample.
// LowVolume is set when fewer days were present than requested.
type Window struct {
	Sample        MetricSample `json:"sample"`
	Rows          []DailyRow   `json:"-"`
	RequestedDays int          `json:"requested_days"`
	LowVolume     bool         `json:"low_volume"`
}

// DaysPresent returns the number of daily rows actually in the window
func (w Window) DaysPresent() int {
	return len(w.Rows)
}

// DailyROAS collects the window's defined daily ROAS values
func (w Window) DailyROAS() []float64 {
	vals := make([]float64, 0, len(w.Rows))
	for _, r := range w.Rows {
		if v, ok := r.ROAS(); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// DailyCTR collects the window's daily CTR values for days with impressions
func (w Window) DailyCTR() []float64 {
	vals := make([]float64, 0, len(w.Rows))
	for _, r := range w.Rows {
		if r.Impressions > 0 {
			vals = append(vals, r.CTR())
		}
	}
	return vals
}

// WindowPair is a previous/recent window comparison.
// Invariant: Previous ends strictly before Recent starts.
type WindowPair struct {
	Previous Window `json:"previous"`
	Recent   Window `json:"recent"`
}

// Validate checks the non-overlap invariant
func (p WindowPair) Validate() error {
	if !p.Previous.Sample.Period.EndDate.Before(p.Recent.Sample.Period.StartDate) {
		return fmt.Errorf("previous window must end before recent window starts (prev end %s, recent start %s)",
			p.Previous.Sample.Period.EndDate.Format("2006-01-02"),
			p.Recent.Sample.Period.StartDate.Format("2006-01-02"))
	}
	return nil
}

// TextTerm is one token from a campaign's top creative text with its count
type TextTerm struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CreativeProfile carries externally supplied creative signals per campaign
type CreativeProfile struct {
	CampaignName core.CampaignName `json:"campaign_name"`
	TextTerms    []TextTerm        `json:"text_terms,omitempty"`
	// Impression share of the single most-served creative, per window.
	TopShareKnown  bool    `json:"top_share_known"`
	TopSharePrev   float64 `json:"top_share_prev"`
	TopShareRecent float64 `json:"top_share_recent"`
}

// AccountData is the full typed input bundle for one evaluation run
type AccountData struct {
	AccountDaily  []DailyRow        `json:"account_daily"`
	CampaignDaily []DailyRow        `json:"campaign_daily"`
	Creatives     []CreativeProfile `json:"creatives,omitempty"`
}

// DailyByCampaign indexes the campaign rows by name, each series date-sorted
func (d AccountData) DailyByCampaign() map[core.CampaignName][]DailyRow {
	byCampaign := make(map[core.CampaignName][]DailyRow)
	for _, row := range d.CampaignDaily {
		if row.CampaignName == "" {
			continue
		}
		byCampaign[row.CampaignName] = append(byCampaign[row.CampaignName], row)
	}
	for name, series := range byCampaign {
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		byCampaign[name] = series
	}
	return byCampaign
}

// CreativeByCampaign indexes creative profiles by campaign name
func (d AccountData) CreativeByCampaign() map[core.CampaignName]CreativeProfile {
	byCampaign := make(map[core.CampaignName]CreativeProfile, len(d.Creatives))
	for _, p := range d.Creatives {
		byCampaign[p.CampaignName] = p
	}
	return byCampaign
}

// CampaignNames returns the distinct campaign names in stable sorted order
func (d AccountData) CampaignNames() []core.CampaignName {
	seen := make(map[core.CampaignName]bool)
	names := make([]core.CampaignName, 0)
	for _, row := range d.CampaignDaily {
		if row.CampaignName != "" && !seen[row.CampaignName] {
			seen[row.CampaignName] = true
			names = append(names, row.CampaignName)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
