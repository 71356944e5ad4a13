// Package sheets loads brands from a Google Sheets spreadsheet through the
// Sheets v4 values API. The first row is the header; each following row is
// one brand.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/source"
	"github.com/probin-johori/sustainable/pkg/httpclient"
)

const sourceName = "sheets"

// DefaultBaseURL is the public Sheets API endpoint.
const DefaultBaseURL = "https://sheets.googleapis.com"

// Config selects the spreadsheet and range to read.
type Config struct {
	BaseURL       string `env:"SHEETS_BASE_URL" envDefault:"https://sheets.googleapis.com"`
	SpreadsheetID string `env:"SHEETS_SPREADSHEET_ID"`
	Range         string `env:"SHEETS_RANGE" envDefault:"Sheet1"`
	APIKey        string `env:"SHEETS_API_KEY"`
}

// Loader reads brand rows from a spreadsheet.
type Loader struct {
	cfg    Config
	client httpclient.Doer
	logger *slog.Logger
}

// New creates a Loader that sends requests through client.
func New(cfg Config, client httpclient.Doer, logger *slog.Logger) *Loader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Range == "" {
		cfg.Range = "Sheet1"
	}
	return &Loader{cfg: cfg, client: client, logger: logger}
}

func (l *Loader) Name() string { return sourceName }

type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// Load fetches the configured range and maps each row onto a brand.
func (l *Loader) Load(ctx context.Context) ([]domain.Brand, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?%s",
		strings.TrimRight(l.cfg.BaseURL, "/"),
		url.PathEscape(l.cfg.SpreadsheetID),
		url.PathEscape(l.cfg.Range),
		url.Values{"key": {l.cfg.APIKey}, "majorDimension": {"ROWS"}}.Encode(),
	)

	resp, err := httpclient.Get(ctx, l.client, endpoint, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("fetch spreadsheet: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "google sheets")
	}
	defer func() { _ = resp.Body.Close() }()

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decode spreadsheet values: %w", err)
	}

	return l.rows(ctx, vr.Values), nil
}

func (l *Loader) rows(ctx context.Context, values [][]string) []domain.Brand {
	brands := []domain.Brand{}
	if len(values) == 0 {
		return brands
	}

	header := make(map[string]int, len(values[0]))
	for i, h := range values[0] {
		header[strings.TrimSpace(h)] = i
	}

	for n, cells := range values[1:] {
		r := row{header: header, cells: cells}
		if r.blank() {
			continue
		}
		b := r.brand()
		if b.ID == "" {
			l.logger.WarnContext(ctx, "spreadsheet row without id skipped", slog.Int("row", n+2))
			continue
		}
		b.Categories = source.ParseCategories(ctx, l.logger, sourceName, b.ID, r.list("categories"))
		brands = append(brands, b)
	}
	return brands
}

// row gives named access to one spreadsheet row. Trailing empty cells are
// omitted by the API, so lookups past the end read as empty.
type row struct {
	header map[string]int
	cells  []string
}

func (r row) get(name string) string {
	i, ok := r.header[name]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r row) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// list splits a comma-separated cell, dropping empty items.
func (r row) list(name string) []string {
	out := []string{}
	for _, item := range strings.Split(r.get(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// fields splits a comma-separated cell keeping empty items, so parallel
// columns stay aligned by position.
func (r row) fields(name string) []string {
	v := r.get(name)
	if v == "" {
		return nil
	}
	out := strings.Split(v, ",")
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

func (r row) float(name string) float64 {
	f, err := strconv.ParseFloat(r.get(name), 64)
	if err != nil {
		return 0
	}
	return f
}

func (r row) int(name string) int64 {
	n, err := strconv.ParseInt(r.get(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (r row) brand() domain.Brand {
	b := domain.Brand{
		ID:                r.get("id"),
		Name:              r.get("name"),
		Thumbnail:         r.get("thumbnail"),
		ImageURL:          r.get("imageUrl"),
		ShortDescription:  r.get("shortDescription"),
		Description:       r.get("description"),
		Content:           domain.Content{About: r.get("about"), Impact: r.get("impact")},
		URL:               r.get("url"),
		ThemeColor:        r.get("themeColor"),
		BusinessStartDate: r.get("businessStartDate"),
		Metrics: domain.Metrics{
			Views:  r.int("views"),
			Likes:  r.int("likes"),
			Clicks: r.int("clicks"),
		},
		Images:         []domain.Image{},
		Founders:       []domain.Person{},
		ProductRange:   r.list("productRange"),
		Certifications: r.list("certifications"),
		AvailableOn:    []domain.Marketplace{},
		Contact:        domain.Contact{Email: r.get("contact_email"), Phone: r.get("contact_phone")},
		Origin:         domain.Origin{City: r.get("origin_city"), Country: r.get("origin_country")},
		Ratings: domain.Ratings{
			Environmental: r.float("environmental_rating"),
			Social:        r.float("social_rating"),
			Ethical:       r.float("ethical_rating"),
			Durability:    r.float("durability_rating"),
			Innovation:    r.float("innovation_rating"),
		},
	}

	if name := r.get("founder_name"); name != "" {
		b.Founders = append(b.Founders, domain.Person{
			Name:     name,
			Role:     r.get("founder_role"),
			ImageURL: r.get("founder_imageUrl"),
		})
	}

	urls := r.fields("marketplace_url")
	for i, name := range r.fields("marketplace_name") {
		if name == "" {
			continue
		}
		m := domain.Marketplace{Name: name}
		if i < len(urls) {
			m.URL = urls[i]
		}
		b.AvailableOn = append(b.AvailableOn, m)
	}
	return b
}
