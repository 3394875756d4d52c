package window

import (
	"sort"
	"time"

	"adpulse/domain/campaign"
	"adpulse/domain/core"
)

// Splitter partitions a daily series into previous/recent windows anchored
// at the series' maximum date.
type Splitter struct {
	previousDays int
	recentDays   int
}

// NewSplitter creates a splitter for the given window lengths
func NewSplitter(previousDays, recentDays int) *Splitter {
	return &Splitter{previousDays: previousDays, recentDays: recentDays}
}

// Split divides a date-indexed series into a previous/recent window pair.
// The recent window covers the last recentDays calendar days ending at the
// series' maximum date; the previous window covers the previousDays days
// immediately before it. Windows with fewer days present than requested
// are flagged low-volume. An empty window yields ErrInsufficientData.
func (s *Splitter) Split(series []campaign.DailyRow) (campaign.WindowPair, error) {
	if len(series) == 0 {
		return campaign.WindowPair{}, core.NewInsufficientDataError("series", 0)
	}

	sorted := make([]campaign.DailyRow, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	maxDate := sorted[len(sorted)-1].Date
	prevEnd := maxDate.AddDate(0, 0, -s.recentDays)
	prevStart := prevEnd.AddDate(0, 0, -s.previousDays)

	var prevRows, recentRows []campaign.DailyRow
	for _, row := range sorted {
		d := row.Date
		switch {
		case d.After(prevStart) && !d.After(prevEnd):
			prevRows = append(prevRows, row)
		case d.After(prevEnd) && !d.After(maxDate):
			recentRows = append(recentRows, row)
		}
	}

	if len(prevRows) == 0 {
		return campaign.WindowPair{}, core.NewInsufficientDataError("previous", 0)
	}
	if len(recentRows) == 0 {
		return campaign.WindowPair{}, core.NewInsufficientDataError("recent", 0)
	}

	pair := campaign.WindowPair{
		Previous: buildWindow(prevRows, addDay(prevStart), prevEnd, s.previousDays),
		Recent:   buildWindow(recentRows, addDay(prevEnd), maxDate, s.recentDays),
	}
	return pair, nil
}

func buildWindow(rows []campaign.DailyRow, start, end time.Time, requestedDays int) campaign.Window {
	period := campaign.Period{StartDate: start, EndDate: end}
	return campaign.Window{
		Sample:        campaign.NewMetricSample(period, rows),
		Rows:          rows,
		RequestedDays: requestedDays,
		LowVolume:     len(rows) < requestedDays,
	}
}

func addDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}
