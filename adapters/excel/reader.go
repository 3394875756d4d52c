package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adpulse/domain/campaign"
	"adpulse/domain/core"
	"adpulse/internal"
	apperrors "adpulse/internal/errors"
	"adpulse/ports"
)

// creativesSheet is the optional second sheet carrying per-campaign
// creative signals in XLSX inputs.
const creativesSheet = "Creatives"

var dateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// DataReader loads daily delivery series from Excel or CSV files.
// Sheet1 (or the CSV body) must carry date, campaign_name, impressions,
// clicks, spend, revenue and optionally purchases columns; rows with an
// empty campaign name are treated as account totals. When no account
// rows exist the account series is derived by summing campaigns per day.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

var _ ports.SeriesReader = (*DataReader)(nil)

// NewDataReader creates a reader for the given file, dispatching on extension
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadAccountData reads and types the full input bundle for one run
func (r *DataReader) ReadAccountData(ctx context.Context) (*campaign.AccountData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.ReaderError(r.filePath, err)
	}

	start := time.Now()
	var (
		rows      [][]string
		creatives [][]string
		err       error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, creatives, err = r.readExcelRows()
	default:
		return nil, apperrors.InvalidInput("unsupported file type: " + r.fileType)
	}
	if err != nil {
		return nil, apperrors.ReaderError(r.filePath, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.InvalidInput("input must have a header row and at least one data row")
	}

	data, err := r.buildAccountData(rows, creatives)
	if err != nil {
		return nil, err
	}
	r.logger.Info("read %d campaign rows, %d account rows, %d creative profiles from %s in %s",
		len(data.CampaignDaily), len(data.AccountDaily), len(data.Creatives),
		r.filePath, time.Since(start))
	return data, nil
}

func (r *DataReader) readExcelRows() (daily, creatives [][]string, err error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	daily, err = f.GetRows("Sheet1")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	// The creatives sheet is optional
	if idx, _ := f.GetSheetIndex(creativesSheet); idx >= 0 {
		creatives, err = f.GetRows(creativesSheet)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s sheet: %w", creativesSheet, err)
		}
	}
	return daily, creatives, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *DataReader) buildAccountData(rows, creativeRows [][]string) (*campaign.AccountData, error) {
	cols, err := indexColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var accountDaily, campaignDaily []campaign.DailyRow
	for i, row := range rows[1:] {
		parsed, err := parseDailyRow(cols, row)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d: %v", i+2, err))
		}
		if parsed.CampaignName == "" {
			accountDaily = append(accountDaily, parsed)
		} else {
			campaignDaily = append(campaignDaily, parsed)
		}
	}
	if len(campaignDaily) == 0 && len(accountDaily) == 0 {
		return nil, apperrors.InsufficientData("no daily rows in input")
	}
	if len(accountDaily) == 0 {
		accountDaily = aggregateAccountDaily(campaignDaily)
	}

	data := &campaign.AccountData{
		AccountDaily:  accountDaily,
		CampaignDaily: campaignDaily,
	}
	if len(creativeRows) > 1 {
		profiles, err := parseCreatives(creativeRows)
		if err != nil {
			return nil, err
		}
		data.Creatives = profiles
	}
	return data, nil
}

type columnIndex struct {
	date, name, impressions, clicks, spend, revenue, purchases int
}

func indexColumns(header []string) (columnIndex, error) {
	idx := columnIndex{date: -1, name: -1, impressions: -1, clicks: -1, spend: -1, revenue: -1, purchases: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "date", "day":
			idx.date = i
		case "campaign_name", "campaign":
			idx.name = i
		case "impressions", "impr":
			idx.impressions = i
		case "clicks":
			idx.clicks = i
		case "spend", "cost":
			idx.spend = i
		case "revenue", "purchase_value", "conversion_value":
			idx.revenue = i
		case "purchases", "conversions", "orders":
			idx.purchases = i
		}
	}
	for col, pos := range map[string]int{
		"date":        idx.date,
		"impressions": idx.impressions,
		"clicks":      idx.clicks,
		"spend":       idx.spend,
		"revenue":     idx.revenue,
	} {
		if pos < 0 {
			return idx, apperrors.InvalidInput("missing required column: " + col)
		}
	}
	return idx, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func parseDailyRow(cols columnIndex, row []string) (campaign.DailyRow, error) {
	date, err := parseDate(cell(row, cols.date))
	if err != nil {
		return campaign.DailyRow{}, err
	}
	impressions, err := parseInt(cell(row, cols.impressions))
	if err != nil {
		return campaign.DailyRow{}, fmt.Errorf("impressions: %w", err)
	}
	clicks, err := parseInt(cell(row, cols.clicks))
	if err != nil {
		return campaign.DailyRow{}, fmt.Errorf("clicks: %w", err)
	}
	spend, err := parseFloat(cell(row, cols.spend))
	if err != nil {
		return campaign.DailyRow{}, fmt.Errorf("spend: %w", err)
	}
	revenue, err := parseFloat(cell(row, cols.revenue))
	if err != nil {
		return campaign.DailyRow{}, fmt.Errorf("revenue: %w", err)
	}
	purchases := 0
	if cols.purchases >= 0 {
		purchases, err = parseInt(cell(row, cols.purchases))
		if err != nil {
			return campaign.DailyRow{}, fmt.Errorf("purchases: %w", err)
		}
	}
	return campaign.DailyRow{
		Date:         date,
		CampaignName: core.CampaignName(strings.TrimSpace(cell(row, cols.name))),
		Impressions:  impressions,
		Clicks:       clicks,
		Spend:        spend,
		Revenue:      revenue,
		Purchases:    purchases,
	}, nil
}

// parseCreatives reads the optional creatives sheet. Expected columns:
// campaign_name, top_terms (semicolon-separated "term:count" pairs),
// top_share_prev, top_share_recent.
func parseCreatives(rows [][]string) ([]campaign.CreativeProfile, error) {
	header := make(map[string]int)
	for i, h := range rows[0] {
		header[normalizeHeader(h)] = i
	}
	nameIdx, ok := header["campaign_name"]
	if !ok {
		return nil, apperrors.InvalidInput("creatives sheet missing campaign_name column")
	}

	var profiles []campaign.CreativeProfile
	for i, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameIdx))
		if name == "" {
			continue
		}
		profile := campaign.CreativeProfile{CampaignName: core.CampaignName(name)}
		if idx, ok := header["top_terms"]; ok {
			profile.TextTerms = parseTextTerms(cell(row, idx))
		}
		prevIdx, hasPrev := header["top_share_prev"]
		recentIdx, hasRecent := header["top_share_recent"]
		if hasPrev && hasRecent && cell(row, prevIdx) != "" && cell(row, recentIdx) != "" {
			prev, err := parseFloat(cell(row, prevIdx))
			if err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("creatives row %d: top_share_prev: %v", i+2, err))
			}
			recent, err := parseFloat(cell(row, recentIdx))
			if err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("creatives row %d: top_share_recent: %v", i+2, err))
			}
			profile.TopShareKnown = true
			profile.TopSharePrev = prev
			profile.TopShareRecent = recent
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func parseTextTerms(raw string) []campaign.TextTerm {
	var terms []campaign.TextTerm
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term := part
		count := 1
		if colon := strings.LastIndex(part, ":"); colon > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(part[colon+1:])); err == nil {
				term = strings.TrimSpace(part[:colon])
				count = n
			}
		}
		terms = append(terms, campaign.TextTerm{Term: strings.ToLower(term), Count: count})
	}
	return terms
}

// aggregateAccountDaily sums campaign rows into one account row per day
func aggregateAccountDaily(campaignDaily []campaign.DailyRow) []campaign.DailyRow {
	byDate := make(map[time.Time]campaign.DailyRow)
	for _, row := range campaignDaily {
		day := row.Date
		agg := byDate[day]
		agg.Date = day
		agg.Impressions += row.Impressions
		agg.Clicks += row.Clicks
		agg.Spend += row.Spend
		agg.Revenue += row.Revenue
		agg.Purchases += row.Purchases
		byDate[day] = agg
	}
	out := make([]campaign.DailyRow, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, nil
	}
	// Excel often renders integers as floats
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), nil
	}
	return strconv.Atoi(raw)
}

func parseFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
