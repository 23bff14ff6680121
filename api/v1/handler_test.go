// Package v1_test contains tests for the API v1 handlers
package v1_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal"
	"reportlens/internal/config"
	"reportlens/internal/pipeline"
	"reportlens/internal/testsupport"
)

type staticResolver struct{}

func (staticResolver) Resolve(code string) (string, string) { return code, "Europe" }

func newTestApp(t *testing.T, apiKey string) *fiber.App {
	t.Helper()
	dbManager, logger := testsupport.SetupTestDBManager(t)
	cfg := &config.Config{
		AppName:        "reportlens",
		Environment:    config.Test,
		APIKey:         apiKey,
		Locale:         config.LocaleItalian,
		TopPagesLimit:  10,
		GeoLabelMaxLen: 3,
		MaxUploadBytes: 64 * 1024,
		Workers:        1,
	}
	analyzer, err := pipeline.NewAnalyzer(cfg, logger, pipeline.WithCountryResolver(staticResolver{}))
	require.NoError(t, err)
	return internal.NewServer(cfg, dbManager, analyzer, logger)
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(data, &decoded), string(data))
	}
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "")
	status, body := do(t, app, "GET", "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db_status"])
}

func TestCreateSummary(t *testing.T) {
	app := newTestApp(t, "")

	t.Run("summary only", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/v1/summaries?source=jan.csv", testsupport.ExportFixture)
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, "jan.csv", body["source"])
		assert.NotContains(t, body, "record")
		assert.NotContains(t, body, "daily")

		users := body["summary"].(map[string]any)["users"].(map[string]any)
		assert.Equal(t, 122.0, users["total_active_users"])
		assert.Equal(t, "growth", users["growth_trend"])
	})

	t.Run("with record and daily points", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/v1/summaries?include=record,daily", testsupport.ExportFixture)
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, "upload.csv", body["source"])
		record := body["record"].(map[string]any)
		assert.Equal(t, "Portfolio GA4", record["metadata"].(map[string]any)["property"])

		daily := body["daily"].([]any)
		require.Len(t, daily, 7)
		assert.Equal(t, map[string]any{"date": "2026-01-01", "value": 10.0}, daily[0])
	})

	t.Run("empty body", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/v1/summaries", "  \n")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_EXPORT", body["code"])
	})

	t.Run("binary body", func(t *testing.T) {
		status, _ := do(t, app, "POST", "/api/v1/summaries", "PK\x03\x04\x00\x00")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("body over the upload limit", func(t *testing.T) {
		status, _ := do(t, app, "POST", "/api/v1/summaries", strings.Repeat("x", 70*1024))
		assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	})
}

func TestSnapshotLifecycle(t *testing.T) {
	app := newTestApp(t, "")

	status, jan := do(t, app, "POST", "/api/v1/snapshots?source=jan.csv", testsupport.ExportFixture)
	require.Equal(t, http.StatusCreated, status)
	janID := jan["id"].(string)
	assert.NotEmpty(t, janID)
	assert.Equal(t, "Portfolio GA4", jan["property"])
	assert.NotContains(t, jan, "record")

	status, dup := do(t, app, "POST", "/api/v1/snapshots", testsupport.ExportFixture)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_SNAPSHOT", dup["code"])
	assert.Equal(t, janID, dup["id"])

	status, feb := do(t, app, "POST", "/api/v1/snapshots?source=feb.csv", testsupport.ExportForPeriod("20260201", "20260207"))
	require.Equal(t, http.StatusCreated, status)
	febID := feb["id"].(string)

	t.Run("list", func(t *testing.T) {
		status, body := do(t, app, "GET", "/api/v1/snapshots?property=Portfolio%20GA4", "")
		require.Equal(t, http.StatusOK, status)
		list := body["snapshots"].([]any)
		require.Len(t, list, 2)
		assert.Equal(t, febID, list[0].(map[string]any)["id"])

		status, _ = do(t, app, "GET", "/api/v1/snapshots?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("get with comparison", func(t *testing.T) {
		status, body := do(t, app, "GET", "/api/v1/snapshots/"+febID, "")
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, febID, body["snapshot"].(map[string]any)["id"])
		assert.NotContains(t, body["snapshot"], "record")
		comparison := body["comparison"].(map[string]any)
		assert.Equal(t, janID, comparison["previous"].(map[string]any)["id"])
		assert.Equal(t, 0.0, comparison["metrics"].(map[string]any)["active_users_change"])
	})

	t.Run("get oldest has no previous period", func(t *testing.T) {
		status, body := do(t, app, "GET", "/api/v1/snapshots/"+janID+"?include=record", "")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body["snapshot"], "record")
		comparison := body["comparison"].(map[string]any)
		assert.NotContains(t, comparison, "previous")
		assert.NotContains(t, comparison, "metrics")
	})

	t.Run("unknown id", func(t *testing.T) {
		status, body := do(t, app, "GET", "/api/v1/snapshots/does-not-exist", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})
}

func TestCreateSnapshotRequiresAPIKey(t *testing.T) {
	app := newTestApp(t, "s3cret")

	status, _ := do(t, app, "POST", "/api/v1/snapshots", testsupport.ExportFixture)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, "POST", "/api/v1/snapshots", testsupport.ExportFixture, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusCreated, status)

	// Reads stay public.
	status, _ = do(t, app, "GET", "/api/v1/snapshots", "")
	assert.Equal(t, http.StatusOK, status)
}
