package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/server"
	"github.com/priceforge/priceforge/internal/store"
)

type fixture struct {
	srv    *server.Server
	engine *engine.Engine
	exp    *store.Experiment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	eng := engine.New(s)

	exp, err := eng.Create(context.Background(), "acme", engine.CreateParams{
		Name: "checkout pricing",
		Variants: []engine.VariantParams{
			{Name: "control", Price: 29.99},
			{Name: "premium", Price: 39.99},
		},
	})
	require.NoError(t, err)
	_, err = eng.Activate(context.Background(), exp.ID, "acme")
	require.NoError(t, err)

	return &fixture{
		srv:    server.New(eng, s, 0, "test-token", zap.NewNop()),
		engine: eng,
		exp:    exp,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestPricing_AssignsAndRecordsView(t *testing.T) {
	f := newFixture(t)

	url := fmt.Sprintf("/api/pricing?experiment=%s&user=user-42", f.exp.ID)
	rec := f.do(httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ExperimentID string        `json:"experimentId"`
		Variant      store.Variant `json:"variant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, f.exp.ID, body.ExperimentID)
	assert.NotEmpty(t, body.Variant.ID)

	// A second call by the same user lands on the same variant.
	again := f.do(httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, again.Code)
	var second struct {
		Variant store.Variant `json:"variant"`
	}
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &second))
	assert.Equal(t, body.Variant.ID, second.Variant.ID)

	results, err := f.engine.Results(context.Background(), f.exp.ID, "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(2), results.Variants[body.Variant.ID].Views)
}

func TestPricing_UnknownExperimentIs204(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/pricing?experiment=ghost&user=u1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPricing_MissingParams(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/pricing?experiment=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversion_FallsBackToVariantPrice(t *testing.T) {
	f := newFixture(t)

	assigned, err := f.engine.AssignVariant(context.Background(), f.exp.ID, "user-42")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	payload := fmt.Sprintf(`{"experimentId":%q,"userId":"user-42"}`, f.exp.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/conversions", bytes.NewBufferString(payload))
	rec := f.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	results, err := f.engine.Results(context.Background(), f.exp.ID, "acme")
	require.NoError(t, err)
	m := results.Variants[assigned.ID]
	assert.Equal(t, int64(1), m.Conversions)
	assert.InDelta(t, assigned.Price, m.Revenue, 0.001)
}

func TestConversion_ExplicitRevenue(t *testing.T) {
	f := newFixture(t)

	assigned, err := f.engine.AssignVariant(context.Background(), f.exp.ID, "user-7")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	payload := fmt.Sprintf(`{"experimentId":%q,"userId":"user-7","revenue":99.50}`, f.exp.ID)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/conversions", bytes.NewBufferString(payload)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	results, err := f.engine.Results(context.Background(), f.exp.ID, "acme")
	require.NoError(t, err)
	assert.InDelta(t, 99.50, results.Variants[assigned.ID].Revenue, 0.001)
}

func TestConversion_UnknownExperimentAccepted(t *testing.T) {
	f := newFixture(t)
	payload := `{"experimentId":"ghost","userId":"u1"}`
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/conversions", bytes.NewBufferString(payload)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/experiments?tenant=acme", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/experiments?tenant=acme", nil)
	req.Header.Set("X-API-Token", "wrong")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestListExperiments_Authorized(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/experiments", nil)
	req.Header.Set("X-API-Token", "test-token")
	req.Header.Set("X-Tenant-ID", "acme")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var experiments []store.Experiment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &experiments))
	require.Len(t, experiments, 1)
	assert.Equal(t, f.exp.ID, experiments[0].ID)
}

func TestListExperiments_RequiresTenant(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/experiments", nil)
	req.Header.Set("X-API-Token", "test-token")
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)
}

func TestResults_NotFound(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/experiments/ghost/results", nil)
	req.Header.Set("X-API-Token", "test-token")
	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, http.StatusNotFound, f.do(req).Code)
}

func TestRecommendation_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Enough traffic on both variants to analyze.
	for _, v := range f.exp.Variants {
		for i := 0; i < 100; i++ {
			require.NoError(t, f.engine.RecordView(ctx, f.exp.ID, v.ID))
		}
		for i := 0; i < 10; i++ {
			require.NoError(t, f.engine.RecordConversion(ctx, f.exp.ID, v.ID, v.Price))
		}
	}

	url := fmt.Sprintf("/api/experiments/%s/recommendation", f.exp.ID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"objective":"revenue"}`))
	req.Header.Set("X-API-Token", "test-token")
	req.Header.Set("X-Tenant-ID", "acme")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		CurrentPrice     float64  `json:"currentPrice"`
		RecommendedPrice float64  `json:"recommendedPrice"`
		Confidence       float64  `json:"confidence"`
		Reasoning        []string `json:"reasoning"`
		NextSteps        []string `json:"nextSteps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Greater(t, body.RecommendedPrice, 0.0)
	assert.NotEmpty(t, body.Reasoning)
	assert.NotEmpty(t, body.NextSteps)
}

func TestRecommendation_UnknownObjective(t *testing.T) {
	f := newFixture(t)

	url := fmt.Sprintf("/api/experiments/%s/recommendation", f.exp.ID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"objective":"growth"}`))
	req.Header.Set("X-API-Token", "test-token")
	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)
}

func TestQuickAnalysis(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/quick-analysis?current=100&proposed=110&elasticity=-0.3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RevenueChange float64 `json:"revenueChange"`
		Verdict       string  `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "proceed", body.Verdict)
	assert.InDelta(t, 6.7, body.RevenueChange, 0.01)
}

func TestQuickAnalysis_BadParams(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/quick-analysis?current=abc&proposed=110", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A malformed elasticity must not silently fall back to the default.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/quick-analysis?current=100&proposed=110&elasticity=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
