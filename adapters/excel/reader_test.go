package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"adpulse/domain/core"
	apperrors "adpulse/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestReadAccountData_CSV verifies CSV parsing into the typed bundle
func TestReadAccountData_CSV(t *testing.T) {
	path := writeCSV(t, `date,campaign_name,impressions,clicks,spend,revenue,purchases
2026-07-01,camp-a,1000,20,50.00,200.00,4
2026-07-01,camp-b,2000,60,80.00,320.00,6
2026-07-02,camp-a,1100,22,55.00,210.00,4
2026-07-02,camp-b,1900,57,78.00,300.00,5
`)

	reader := NewDataReader(path, nil)
	data, err := reader.ReadAccountData(context.Background())
	require.NoError(t, err)

	require.Len(t, data.CampaignDaily, 4)
	require.Equal(t, []core.CampaignName{"camp-a", "camp-b"}, data.CampaignNames())

	// No explicit account rows, so the account series is derived per day
	require.Len(t, data.AccountDaily, 2)
	require.Equal(t, 3000, data.AccountDaily[0].Impressions)
	require.Equal(t, 80, data.AccountDaily[0].Clicks)
	require.InDelta(t, 130.0, data.AccountDaily[0].Spend, 1e-9)

	row := data.CampaignDaily[0]
	require.Equal(t, core.CampaignName("camp-a"), row.CampaignName)
	require.Equal(t, 1000, row.Impressions)
	require.InDelta(t, 200.0, row.Revenue, 1e-9)
	require.Equal(t, 4, row.Purchases)
}

// TestReadAccountData_AccountRows verifies rows with an empty campaign
// name land in the account series untouched.
func TestReadAccountData_AccountRows(t *testing.T) {
	path := writeCSV(t, `date,campaign_name,impressions,clicks,spend,revenue
2026-07-01,,5000,100,200,800
2026-07-01,camp-a,1000,20,50,200
`)

	data, err := NewDataReader(path, nil).ReadAccountData(context.Background())
	require.NoError(t, err)
	require.Len(t, data.AccountDaily, 1)
	require.Equal(t, 5000, data.AccountDaily[0].Impressions)
	require.Len(t, data.CampaignDaily, 1)
}

// TestReadAccountData_HeaderAliases verifies common column-name variants
// are recognized.
func TestReadAccountData_HeaderAliases(t *testing.T) {
	path := writeCSV(t, `Day,Campaign,Impr,Clicks,Cost,Conversion Value,Orders
2026-07-01,camp-a,1000,20,"1,050.50",200,4
`)

	data, err := NewDataReader(path, nil).ReadAccountData(context.Background())
	require.NoError(t, err)
	require.Len(t, data.CampaignDaily, 1)
	require.InDelta(t, 1050.50, data.CampaignDaily[0].Spend, 1e-9)
	require.Equal(t, 4, data.CampaignDaily[0].Purchases)
}

// TestReadAccountData_Errors verifies the reader's failure modes carry
// the right error codes.
func TestReadAccountData_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewDataReader("/nonexistent/series.csv", nil).ReadAccountData(context.Background())
		require.Error(t, err)
		require.Equal(t, apperrors.CodeReaderError, apperrors.GetCode(err))
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeCSV(t, "date,campaign_name,clicks,spend,revenue\n2026-07-01,a,10,5,20\n")
		_, err := NewDataReader(path, nil).ReadAccountData(context.Background())
		require.Error(t, err)
		require.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("bad date", func(t *testing.T) {
		path := writeCSV(t, "date,campaign_name,impressions,clicks,spend,revenue\nnot-a-date,a,10,1,5,20\n")
		_, err := NewDataReader(path, nil).ReadAccountData(context.Background())
		require.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeCSV(t, "date,campaign_name,impressions,clicks,spend,revenue\n")
		_, err := NewDataReader(path, nil).ReadAccountData(context.Background())
		require.Error(t, err)
	})
}

// TestParseTextTerms verifies the term:count list format
func TestParseTextTerms(t *testing.T) {
	terms := parseTextTerms("Comfort:12; soft:5;seamless")
	require.Len(t, terms, 3)
	require.Equal(t, "comfort", terms[0].Term)
	require.Equal(t, 12, terms[0].Count)
	require.Equal(t, "seamless", terms[2].Term)
	require.Equal(t, 1, terms[2].Count)
}
