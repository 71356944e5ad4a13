package airtable

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

const pageOne = `{
  "records": [
    {
      "id": "recNoNasties",
      "fields": {
        "Name": "No Nasties",
        "Categories": ["Clothing", "Spaceships"],
        "About": "About us",
        "Url": "https://nonasties.in",
        "DesignerLocation": "Goa",
        "FounderName": "Apurva Kothari",
        "FounderRole": "Founder",
        "ProductRange": ["T-shirts"],
        "AvailableOn": [{"Marketplace": "Amazon", "Url": "https://amazon.com/nn"}],
        "Likes": 850,
        "Images": [{"url": "/a.jpg", "description": "A"}],
        "ContactEmail": "hello@nonasties.in",
        "EnvironmentalRating": 4.8,
        "SocialRating": 4.5,
        "EthicalRating": 4.7,
        "DurabilityRating": 4.2,
        "InnovationRating": 4.6
      }
    }
  ],
  "offset": "itrNext/recNoNasties"
}`

const pageTwo = `{
  "records": [
    {"id": "recOooFarms", "fields": {"Name": "Ooo Farms", "Categories": ["food"]}}
  ]
}`

func TestLoad_Paginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/v0/appBase/Brands", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "Grid view", r.URL.Query().Get("view"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "itrNext/recNoNasties" {
			_, _ = io.WriteString(w, pageTwo)
			return
		}
		_, _ = io.WriteString(w, pageOne)
	}))
	t.Cleanup(srv.Close)

	l := New(Config{BaseURL: srv.URL, BaseID: "appBase", Table: "Brands", Token: "secret", View: "Grid view"}, testClient(), testLogger())
	brands, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, int32(2), calls.Load())

	nn := brands[0]
	assert.Equal(t, "recNoNasties", nn.ID)
	assert.Equal(t, []domain.Category{domain.CategoryClothing}, nn.Categories)
	assert.Equal(t, "About us", nn.Content.About)
	require.NotNil(t, nn.Designer)
	assert.Equal(t, "Goa", nn.Designer.Location)
	assert.Equal(t, []domain.Person{{Name: "Apurva Kothari", Role: "Founder"}}, nn.Founders)
	assert.Equal(t, []domain.Marketplace{{Name: "Amazon", URL: "https://amazon.com/nn"}}, nn.AvailableOn)
	assert.Equal(t, []domain.Image{{URL: "/a.jpg", Description: "A"}}, nn.Images)
	assert.Equal(t, int64(850), nn.Metrics.Likes)
	assert.InDelta(t, 4.56, nn.Ratings.Average(), 1e-9)

	farms := brands[1]
	assert.Equal(t, []domain.Category{domain.CategoryFood}, farms.Categories)
	assert.Nil(t, farms.Designer)
	assert.NotNil(t, farms.Images)
	assert.NotNil(t, farms.AvailableOn)
	assert.NotNil(t, farms.ProductRange)
	assert.Zero(t, farms.Ratings.Average())
}

func TestLoad_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{BaseURL: srv.URL, BaseID: "b", Table: "t"}, testClient(), testLogger()).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "AUTHENTICATION_REQUIRED")
}

func TestLoad_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"NOT_FOUND"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{BaseURL: srv.URL, BaseID: "b", Table: "t"}, testClient(), testLogger()).Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoad_EndlessPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"records":[],"offset":"again"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{BaseURL: srv.URL, BaseID: "b", Table: "t"}, testClient(), testLogger()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages")
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(Config{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 1}, testClient(), testLogger())
	_, err := l.Load(ctx)
	require.Error(t, err)
}
