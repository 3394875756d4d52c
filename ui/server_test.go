package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"adpulse/adapters/rng"
	"adpulse/app"
	"adpulse/domain/core"
	"adpulse/internal/config"
	"adpulse/internal/testkit"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.BootstrapIters = 200
	service, err := app.NewEvaluationService(cfg, rng.NewSeededAdapter(), nil)
	require.NoError(t, err)
	return NewServer(service, cfg, nil)
}

// TestHealthEndpoint verifies the liveness probe
func TestHealthEndpoint(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

// TestEvaluateEndpoint runs a full evaluation over a JSON body
func TestEvaluateEndpoint(t *testing.T) {
	server := testServer(t)

	data := testkit.BuildAccountData(testkit.SeriesSpec{
		Campaign:         "camp-drop",
		StartDate:        testkit.Date(2026, 7, 1),
		Days:             28,
		DailyImpressions: 8000,
		CTR:              0.04,
		DailySpend:       100,
		ROAS:             10,
		DropAfterDay:     14,
		ROASDropFactor:   0.5,
		CTRDropFactor:    0.5,
	})
	body, err := json.Marshal(data)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", bytes.NewReader(body))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result app.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.RunID)
	require.NotEmpty(t, result.Hypotheses)
	require.Contains(t, result.ChsSummary, core.CampaignName("camp-drop"))
}

// TestEvaluateEndpoint_BadBody verifies malformed JSON maps to 400
func TestEvaluateEndpoint_BadBody(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader("{not json"))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

// TestConfigEndpoint exposes the active configuration
func TestConfigEndpoint(t *testing.T) {
	server := testServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
