// Package airtable loads brands from an Airtable table over the REST API.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/source"
	"github.com/probin-johori/sustainable/pkg/httpclient"
)

const (
	sourceName = "airtable"

	// DefaultBaseURL is the public Airtable API endpoint.
	DefaultBaseURL = "https://api.airtable.com"

	pageSize = 100
	maxPages = 100
)

// Config selects the base and table to read.
type Config struct {
	BaseURL           string  `env:"AIRTABLE_BASE_URL" envDefault:"https://api.airtable.com"`
	BaseID            string  `env:"AIRTABLE_BASE_ID"`
	Table             string  `env:"AIRTABLE_TABLE" envDefault:"Brands"`
	Token             string  `env:"AIRTABLE_TOKEN"`
	View              string  `env:"AIRTABLE_VIEW"`
	RequestsPerSecond float64 `env:"AIRTABLE_REQUESTS_PER_SECOND" envDefault:"5"`
}

// Loader pages through every record of a table.
type Loader struct {
	cfg     Config
	client  httpclient.Doer
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Loader. Page requests are spaced by RequestsPerSecond.
func New(cfg Config, client httpclient.Doer, logger *slog.Logger) *Loader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Loader{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (l *Loader) Name() string { return sourceName }

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type record struct {
	ID     string `json:"id"`
	Fields fields `json:"fields"`
}

type fields struct {
	Name                string   `json:"Name"`
	Thumbnail           string   `json:"Thumbnail"`
	ImageURL            string   `json:"ImageUrl"`
	Categories          []string `json:"Categories"`
	ShortDescription    string   `json:"ShortDescription"`
	Description         string   `json:"Description"`
	About               string   `json:"About"`
	Impact              string   `json:"Impact"`
	URL                 string   `json:"Url"`
	ThemeColor          string   `json:"ThemeColor"`
	BusinessStartDate   string   `json:"BusinessStartDate"`
	DesignerDescription string   `json:"DesignerDescription"`
	DesignerLocation    string   `json:"DesignerLocation"`
	BrandTrailerURL     string   `json:"BrandTrailerUrl"`
	FounderName         string   `json:"FounderName"`
	FounderRole         string   `json:"FounderRole"`
	FounderImageURL     string   `json:"FounderImageUrl"`
	ProductRange        []string `json:"ProductRange"`
	Certifications      []string `json:"Certifications"`
	AvailableOn         []struct {
		Marketplace string `json:"Marketplace"`
		URL         string `json:"Url"`
	} `json:"AvailableOn"`
	Views  float64 `json:"Views"`
	Likes  float64 `json:"Likes"`
	Clicks float64 `json:"Clicks"`
	Images []struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"Images"`
	ContactEmail        string  `json:"ContactEmail"`
	ContactPhone        string  `json:"ContactPhone"`
	OriginCity          string  `json:"OriginCity"`
	OriginCountry       string  `json:"OriginCountry"`
	EnvironmentalRating float64 `json:"EnvironmentalRating"`
	SocialRating        float64 `json:"SocialRating"`
	EthicalRating       float64 `json:"EthicalRating"`
	DurabilityRating    float64 `json:"DurabilityRating"`
	InnovationRating    float64 `json:"InnovationRating"`
}

// Load fetches every page of the table in view order.
func (l *Loader) Load(ctx context.Context) ([]domain.Brand, error) {
	brands := []domain.Brand{}
	offset := ""
	for page := 0; page < maxPages; page++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("airtable rate limit: %w", err)
		}

		resp, err := l.fetch(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range resp.Records {
			brands = append(brands, l.toBrand(ctx, rec))
		}

		if resp.Offset == "" {
			return brands, nil
		}
		offset = resp.Offset
	}
	return nil, fmt.Errorf("airtable: more than %d pages, giving up", maxPages)
}

func (l *Loader) fetch(ctx context.Context, offset string) (*listResponse, error) {
	q := url.Values{"pageSize": {fmt.Sprint(pageSize)}}
	if l.cfg.View != "" {
		q.Set("view", l.cfg.View)
	}
	if offset != "" {
		q.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/v0/%s/%s?%s",
		strings.TrimRight(l.cfg.BaseURL, "/"),
		url.PathEscape(l.cfg.BaseID),
		url.PathEscape(l.cfg.Table),
		q.Encode(),
	)

	resp, err := httpclient.Get(ctx, l.client, endpoint, http.Header{
		"Authorization": {"Bearer " + l.cfg.Token},
		"Accept":        {"application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch airtable records: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "airtable")
	}
	defer func() { _ = resp.Body.Close() }()

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode airtable records: %w", err)
	}
	return &out, nil
}

func (l *Loader) toBrand(ctx context.Context, rec record) domain.Brand {
	f := rec.Fields
	b := domain.Brand{
		ID:                rec.ID,
		Name:              strings.TrimSpace(f.Name),
		Thumbnail:         f.Thumbnail,
		ImageURL:          f.ImageURL,
		Categories:        source.ParseCategories(ctx, l.logger, sourceName, rec.ID, f.Categories),
		ShortDescription:  f.ShortDescription,
		Description:       f.Description,
		Content:           domain.Content{About: f.About, Impact: f.Impact},
		URL:               f.URL,
		ThemeColor:        f.ThemeColor,
		BusinessStartDate: f.BusinessStartDate,
		BrandTrailerURL:   f.BrandTrailerURL,
		Metrics: domain.Metrics{
			Views:  int64(f.Views),
			Likes:  int64(f.Likes),
			Clicks: int64(f.Clicks),
		},
		Images:         make([]domain.Image, 0, len(f.Images)),
		Founders:       []domain.Person{},
		ProductRange:   nonNil(f.ProductRange),
		Certifications: nonNil(f.Certifications),
		AvailableOn:    make([]domain.Marketplace, 0, len(f.AvailableOn)),
		Contact:        domain.Contact{Email: f.ContactEmail, Phone: f.ContactPhone},
		Origin:         domain.Origin{City: f.OriginCity, Country: f.OriginCountry},
		Ratings: domain.Ratings{
			Environmental: f.EnvironmentalRating,
			Social:        f.SocialRating,
			Ethical:       f.EthicalRating,
			Durability:    f.DurabilityRating,
			Innovation:    f.InnovationRating,
		},
	}

	if f.DesignerDescription != "" || f.DesignerLocation != "" {
		b.Designer = &domain.Designer{Description: f.DesignerDescription, Location: f.DesignerLocation}
	}
	if f.FounderName != "" {
		b.Founders = append(b.Founders, domain.Person{Name: f.FounderName, Role: f.FounderRole, ImageURL: f.FounderImageURL})
	}
	for _, img := range f.Images {
		b.Images = append(b.Images, domain.Image{URL: img.URL, Description: img.Description})
	}
	for _, m := range f.AvailableOn {
		b.AvailableOn = append(b.AvailableOn, domain.Marketplace{Name: m.Marketplace, URL: m.URL})
	}
	return b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
