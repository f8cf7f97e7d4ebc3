package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/scraper"
)

func TestCalculateWebsite(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/website/calculate", "", map[string]any{
		"breakdown":    map[string]int64{"html": 100_000, "css": 50_000, "js": 200_000, "image": 150_000},
		"greenHosting": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Breakdown engine.ByteBreakdown          `json:"breakdown"`
		Result    *engine.WebsiteEmissionResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	expected, ok := engine.CalculateWebsiteEmissions(500_000, true)
	require.True(t, ok)
	assert.Equal(t, expected, *resp.Result)
	assert.Equal(t, int64(500_000), resp.Breakdown.Total())
}

func TestCalculateWebsite_EmptyPageHasNoResult(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/website/calculate", "", map[string]any{"breakdown": map[string]int64{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"breakdown":{"html":0,"css":0,"js":0,"image":0,"font":0,"other":0},"result":null}`, w.Body.String())
}

func TestCalculateWebsite_Rejects(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/website/calculate", "", map[string]any{"greenHosting": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"breakdown is required."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/website/calculate", "", map[string]any{"breakdown": map[string]int64{"js": -1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Byte counts must be non-negative."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/website/calculate", "",
		map[string]any{"breakdown": map[string]int64{"html": 1 << 62, "other": 1 << 62}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Byte counts are too large."}`, w.Body.String())
}

func TestAnalyzeWebsite(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.analysis = &scraper.Analysis{URL: "https://example.com/", Host: "example.com", AssetCount: 3}

	w := env.do(t, http.MethodPost, "/api/website/analyze", "", map[string]any{"url": "example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"host":"example.com"`)

	w = env.do(t, http.MethodPost, "/api/website/analyze", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"url is required."}`, w.Body.String())
}

func TestAnalyzeWebsite_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.err = &engine.UpstreamError{Service: "website fetch", Status: http.StatusForbidden}

	w := env.do(t, http.MethodPost, "/api/website/analyze", "", map[string]any{"url": "https://example.com"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"website fetch returned status 403","upstreamStatus":403}`, w.Body.String())
}

func TestFunFacts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/funfacts", "", map[string]any{"co2Kg": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var eq engine.Equivalents
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eq))
	assert.Equal(t, 2.5, eq.MicrowaveUses)

	w = env.do(t, http.MethodPost, "/api/funfacts", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"co2Kg is required."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/funfacts", "", map[string]any{"co2Kg": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/vapid_public_key", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"publicKey":"public-key"}`, w.Body.String())
}

func TestGetVAPIDPublicKey_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.handler.webpush = nil

	w := env.do(t, http.MethodGet, "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Push notifications are not configured."}`, w.Body.String())
}
