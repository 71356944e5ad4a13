// Package web renders the catalog's HTML pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/service"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/logger"
)

const (
	siteName = "Sustainable Brands India"

	// DefaultContactEmail receives "Add Brand" submissions.
	DefaultContactEmail = "connect@sustainablebrands.in"

	notFoundTitle = "Brand Not Found"
)

//go:embed templates/*.html
var templateFS embed.FS

// Catalog is the read side the pages are rendered from.
type Catalog interface {
	List(ctx context.Context, q catalog.Query) (service.ListResult, error)
	Get(ctx context.Context, identifier string) (domain.Brand, error)
	Categories() []catalog.CategoryCount
}

// Handler serves the catalog grid, the brand pages and the not-found page.
type Handler struct {
	catalog      Catalog
	pages        map[string]*template.Template
	contactEmail string
	logger       *slog.Logger
}

// NewHandler parses the embedded templates. An empty contactEmail falls back
// to DefaultContactEmail.
func NewHandler(c Catalog, contactEmail string, logger *slog.Logger) (*Handler, error) {
	if contactEmail == "" {
		contactEmail = DefaultContactEmail
	}
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{"catalog", "brand", "message"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &Handler{
		catalog:      c,
		pages:        pages,
		contactEmail: contactEmail,
		logger:       logger,
	}, nil
}

// Routes mounts the pages on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Catalog)
	r.Get("/{identifier}", h.Brand)
}

type page struct {
	Title       string
	Description string
	Query       catalog.Query
}

type chip struct {
	Label    domain.Category
	Count    int
	Selected bool
	URL      string
}

type card struct {
	domain.Brand
	URL string
}

type catalogPage struct {
	page
	Chips        []chip
	ClearURL     string
	Cards        []card
	ShowAddBrand bool
	AddBrandURL  string
}

type brandPage struct {
	page
	Brand         domain.Brand
	Rating        string
	Since         string
	HasImage      bool
	Image         domain.Image
	ImagePosition int
	ImageCount    int
	PrevURL       string
	NextURL       string
}

type messagePage struct {
	page
	Heading string
	Message string
}

// Catalog handles GET /. Unknown category values are ignored.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	q, _ := catalog.ParseQuery(r.URL.Query())

	res, err := h.catalog.List(r.Context(), q)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	counts := make(map[domain.Category]int)
	for _, cc := range h.catalog.Categories() {
		counts[cc.Category] = cc.Count
	}
	chips := make([]chip, 0, len(domain.AllCategories))
	for _, c := range domain.AllCategories {
		chips = append(chips, chip{
			Label:    c,
			Count:    counts[c],
			Selected: q.Selected(c),
			URL:      pageURL("/", q.Toggle(c).Values()),
		})
	}

	cards := make([]card, 0, len(res.Brands))
	for _, b := range res.Brands {
		cards = append(cards, card{Brand: b, URL: "/" + b.Slug})
	}

	h.render(w, r, http.StatusOK, "catalog", catalogPage{
		page: page{
			Title:       siteName,
			Description: "A directory of sustainable brands from India.",
			Query:       q,
		},
		Chips:        chips,
		ClearURL:     pageURL("/", catalog.Query{Text: q.Text}.Values()),
		Cards:        cards,
		ShowAddBrand: len(q.Categories) == 0 || res.Empty(),
		AddBrandURL:  "mailto:" + h.contactEmail,
	})
}

// Brand handles GET /{identifier}. The optional image parameter selects the
// gallery position and wraps in both directions.
func (h *Handler) Brand(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	b, err := h.catalog.Get(r.Context(), identifier)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	index, _ := strconv.Atoi(r.URL.Query().Get("image"))
	gallery := domain.NewGallery(b.Images, index)
	img, hasImage := gallery.Current()

	self := "/" + b.Slug
	h.render(w, r, http.StatusOK, "brand", brandPage{
		page: page{
			Title:       b.Name + " - " + siteName,
			Description: b.ShortDescription,
		},
		Brand:         b,
		Rating:        fmt.Sprintf("%.2f", b.Ratings.Average()),
		Since:         startYear(b.BusinessStartDate),
		HasImage:      hasImage,
		Image:         img,
		ImagePosition: gallery.Index + 1,
		ImageCount:    gallery.Len(),
		PrevURL:       pageURL(self, url.Values{"image": {strconv.Itoa(gallery.Prev())}}),
		NextURL:       pageURL(self, url.Values{"image": {strconv.Itoa(gallery.Next())}}),
	})
}

// NotFound renders the not-found page for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "message", notFoundPage())
}

func notFoundPage() messagePage {
	return messagePage{
		page:    page{Title: notFoundTitle},
		Heading: notFoundTitle,
		Message: "We couldn't find the brand you were looking for.",
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		h.render(w, r, http.StatusNotFound, "message", notFoundPage())
		return
	}

	h.log(r).ErrorContext(r.Context(), "page failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.render(w, r, http.StatusInternalServerError, "message", messagePage{
		page:    page{Title: siteName},
		Heading: "Something went wrong",
		Message: "Please try again in a moment.",
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log(r).ErrorContext(r.Context(), "template render failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	if l := logger.FromContext(r.Context()); l != slog.Default() {
		return l
	}
	return h.logger
}

func pageURL(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func startYear(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ""
	}
	return strconv.Itoa(t.Year())
}
