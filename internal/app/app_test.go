package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probin-johori/sustainable/internal/config"
	"github.com/probin-johori/sustainable/internal/source/sheets"
	"github.com/probin-johori/sustainable/pkg/database"
	"github.com/probin-johori/sustainable/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPPort:        0,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
		LoadTimeout:     5 * time.Second,
		Source:          config.SourceStatic,
		SearchEngine:    config.EngineMemory,
		CORSOrigins:     []string{"*"},
		HTTPClient:      httpclient.Config{Timeout: time.Second},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestNewApp_StaticSeed(t *testing.T) {
	a, err := NewApp(testConfig(), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	w := get(t, a.Handler(), "/api/v1/brands?category=Food")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Slug string `json:"slug"`
		} `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Meta.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ooo-farms", resp.Data[0].Slug)

	w = get(t, a.Handler(), "/no-nasties")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No Nasties - Sustainable Brands India")

	w = get(t, a.Handler(), "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApp_FailingRemoteSourceServesEmptyCatalog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := testConfig()
	cfg.Source = config.SourceSheets
	cfg.Sheets = sheets.Config{
		BaseURL:       upstream.URL,
		SpreadsheetID: "sheet-1",
		Range:         "Sheet1",
		APIKey:        "bad-key",
	}

	a, err := NewApp(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	w := get(t, a.Handler(), "/api/v1/brands")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"empty":true`)

	w = get(t, a.Handler(), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add Brand")
}

func TestNewApp_UnreachablePostgresServesEmptyCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Source = config.SourcePostgres
	cfg.LoadTimeout = 10 * time.Second
	cfg.Postgres = database.PostgresConfig{URL: "postgres://catalog@127.0.0.1:1/catalog?sslmode=disable&connect_timeout=1"}

	a, err := NewApp(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	w := get(t, a.Handler(), "/api/v1/brands")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"empty":true`)

	w = get(t, a.Handler(), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add Brand")
}

func TestNewApp_MissingSeedFileServesEmptyCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.SeedFile = t.TempDir() + "/missing.yaml"

	a, err := NewApp(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	w := get(t, a.Handler(), "/api/v1/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}
