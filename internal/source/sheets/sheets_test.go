package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probin-johori/sustainable/internal/domain"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg)
}

var header = []string{
	"id", "name", "thumbnail", "imageUrl", "categories", "about", "impact", "url",
	"themeColor", "businessStartDate", "likes", "founder_name", "founder_role",
	"founder_imageUrl", "productRange", "certifications", "marketplace_name",
	"marketplace_url", "contact_email", "contact_phone", "origin_city",
	"origin_country", "environmental_rating", "social_rating", "ethical_rating",
	"durability_rating", "innovation_rating",
}

func newServer(t *testing.T, status int, body any) (*httptest.Server, *url.URL) {
	t.Helper()
	captured := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestLoad_MapsRows(t *testing.T) {
	srv, reqURL := newServer(t, http.StatusOK, map[string]any{
		"range": "Sheet1!A1:AA3",
		"values": [][]string{
			header,
			{
				"no-nasties", "No Nasties", "/t.jpg", "/b.png", "Clothing, Accessories", "About", "Impact",
				"https://nonasties.in", "#2E7D32", "2011-05-15", "850", "Apurva Kothari", "Founder",
				"/f.jpg", "T-shirts, Dresses", "GOTS Certified", "Amazon, Flipkart",
				"https://amazon.com/nn", "hello@nonasties.in", "+91", "Goa", "India",
				"4.8", "4.5", "4.7", "4.2", "4.6",
			},
			{"ooo-farms", "Ooo Farms", "", "", "food", "", "", "", "", "", "lots", "", "", "", "", "", "BigBasket"},
			{},
			{"", "No ID", "", "", "Food"},
		},
	})

	l := New(Config{BaseURL: srv.URL, SpreadsheetID: "sheet-123", Range: "Brands!A:AA", APIKey: "k"}, testClient(), testLogger())
	brands, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 2)

	assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Brands!A:AA", reqURL.Path)
	assert.Equal(t, "k", reqURL.Query().Get("key"))

	nn := brands[0]
	assert.Equal(t, "no-nasties", nn.ID)
	assert.Equal(t, []domain.Category{domain.CategoryClothing, domain.CategoryAccessories}, nn.Categories)
	assert.Equal(t, domain.Content{About: "About", Impact: "Impact"}, nn.Content)
	assert.Equal(t, int64(850), nn.Metrics.Likes)
	assert.Equal(t, []domain.Person{{Name: "Apurva Kothari", Role: "Founder", ImageURL: "/f.jpg"}}, nn.Founders)
	assert.Equal(t, []string{"T-shirts", "Dresses"}, nn.ProductRange)
	assert.Equal(t, []domain.Marketplace{
		{Name: "Amazon", URL: "https://amazon.com/nn"},
		{Name: "Flipkart"},
	}, nn.AvailableOn)
	assert.Equal(t, domain.Origin{City: "Goa", Country: "India"}, nn.Origin)
	assert.InDelta(t, 4.56, nn.Ratings.Average(), 1e-9)

	farms := brands[1]
	assert.Equal(t, []domain.Category{domain.CategoryFood}, farms.Categories)
	assert.Zero(t, farms.Metrics.Likes)
	assert.Zero(t, farms.Ratings.Environmental)
	assert.Empty(t, farms.Founders)
	assert.NotNil(t, farms.Certifications)
	assert.Equal(t, []domain.Marketplace{{Name: "BigBasket"}}, farms.AvailableOn)
}

func TestLoad_MarketplaceURLsStayAligned(t *testing.T) {
	row := make([]string, len(header))
	row[0], row[1], row[4] = "nn", "No Nasties", "Clothing"
	row[16] = "Amazon, Etsy, , Flipkart"
	row[17] = "https://a.example,,https://x.example,https://f.example"

	srv, _ := newServer(t, http.StatusOK, map[string]any{"values": [][]string{header, row}})
	brands, err := New(Config{BaseURL: srv.URL, SpreadsheetID: "x"}, testClient(), testLogger()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 1)

	assert.Equal(t, []domain.Marketplace{
		{Name: "Amazon", URL: "https://a.example"},
		{Name: "Etsy"},
		{Name: "Flipkart", URL: "https://f.example"},
	}, brands[0].AvailableOn)
}

func TestLoad_EmptySheet(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, map[string]any{"range": "Sheet1"})

	brands, err := New(Config{BaseURL: srv.URL, SpreadsheetID: "x"}, testClient(), testLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, brands)
	assert.Empty(t, brands)
}

func TestLoad_PermissionDenied(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, map[string]any{
		"error": map[string]any{"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"},
	})

	_, err := New(Config{BaseURL: srv.URL, SpreadsheetID: "x"}, testClient(), testLogger()).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "PERMISSION_DENIED")
}

func TestLoad_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{BaseURL: srv.URL, SpreadsheetID: "x"}, testClient(), testLogger()).Load(context.Background())
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{}, testClient(), testLogger())
	assert.Equal(t, DefaultBaseURL, l.cfg.BaseURL)
	assert.Equal(t, "Sheet1", l.cfg.Range)
	assert.Equal(t, "sheets", l.Name())
}
