package window

import (
	"testing"
	"time"

	"adpulse/domain/campaign"
	"adpulse/domain/core"
)

func day(n int) time.Time {
	return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func makeSeries(days int) []campaign.DailyRow {
	rows := make([]campaign.DailyRow, 0, days)
	for i := 0; i < days; i++ {
		rows = append(rows, campaign.DailyRow{
			Date:        day(i),
			Impressions: 1000,
			Clicks:      20,
			Spend:       50,
			Revenue:     200,
		})
	}
	return rows
}

// TestSplit_FullSeries verifies a 28-day series splits into two clean
// 14-day windows with no overlap.
func TestSplit_FullSeries(t *testing.T) {
	splitter := NewSplitter(14, 14)

	pair, err := splitter.Split(makeSeries(28))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if got := pair.Previous.DaysPresent(); got != 14 {
		t.Errorf("previous window: expected 14 days, got %d", got)
	}
	if got := pair.Recent.DaysPresent(); got != 14 {
		t.Errorf("recent window: expected 14 days, got %d", got)
	}
	if err := pair.Validate(); err != nil {
		t.Errorf("windows overlap: %v", err)
	}
	if pair.Previous.LowVolume || pair.Recent.LowVolume {
		t.Error("full windows should not be flagged low-volume")
	}
}

// TestSplit_WindowBoundaries verifies rows land in the correct window at
// the boundary dates.
func TestSplit_WindowBoundaries(t *testing.T) {
	splitter := NewSplitter(14, 14)
	series := makeSeries(28)

	pair, err := splitter.Split(series)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Series covers day(0)..day(27); recent window is the last 14 days.
	lastPrev := pair.Previous.Rows[len(pair.Previous.Rows)-1].Date
	firstRecent := pair.Recent.Rows[0].Date
	if !lastPrev.Equal(day(13)) {
		t.Errorf("previous window should end at %s, got %s", day(13), lastPrev)
	}
	if !firstRecent.Equal(day(14)) {
		t.Errorf("recent window should start at %s, got %s", day(14), firstRecent)
	}
}

// TestSplit_UnsortedInput verifies the splitter does not depend on input order
func TestSplit_UnsortedInput(t *testing.T) {
	splitter := NewSplitter(14, 14)
	series := makeSeries(28)
	// Reverse the series
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}

	pair, err := splitter.Split(series)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if pair.Previous.DaysPresent() != 14 || pair.Recent.DaysPresent() != 14 {
		t.Errorf("expected 14/14 days, got %d/%d",
			pair.Previous.DaysPresent(), pair.Recent.DaysPresent())
	}
}

// TestSplit_SparseSeries verifies missing days flag the window low-volume
// instead of failing.
func TestSplit_SparseSeries(t *testing.T) {
	splitter := NewSplitter(14, 14)
	series := makeSeries(28)
	// Remove half the recent window days
	sparse := append([]campaign.DailyRow{}, series[:21]...)
	sparse = append(sparse, series[27])

	pair, err := splitter.Split(sparse)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !pair.Recent.LowVolume {
		t.Error("sparse recent window should be flagged low-volume")
	}
	if pair.Recent.DaysPresent() >= 14 {
		t.Errorf("expected fewer than 14 recent days, got %d", pair.Recent.DaysPresent())
	}
}

// TestSplit_InsufficientData verifies empty or one-sided series fail with
// the insufficient-data sentinel.
func TestSplit_InsufficientData(t *testing.T) {
	splitter := NewSplitter(14, 14)

	cases := []struct {
		name   string
		series []campaign.DailyRow
	}{
		{"empty series", nil},
		{"recent only", makeSeries(5)}, // all rows fall in the recent window
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := splitter.Split(tc.series)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsInsufficientData(err) {
				t.Errorf("expected insufficient-data error, got %v", err)
			}
		})
	}
}
