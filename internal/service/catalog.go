// Package service implements the catalog's read operations on top of the
// store, the search engine and the event publisher.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/engine"
	"github.com/probin-johori/sustainable/internal/event"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
)

var (
	brandsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_brands",
		Help: "Number of brands served, by source.",
	}, []string{"source"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_searches_total",
		Help: "Catalog list queries by outcome (results, empty, fallback).",
	}, []string{"outcome"})

	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_lookups_total",
		Help: "Brand detail lookups by outcome (found, not_found).",
	}, []string{"outcome"})
)

// ListResult is a filtered view of the catalog.
type ListResult struct {
	Query  catalog.Query
	Brands []domain.Brand
	// Total is the size of the whole catalog, not of Brands.
	Total int
}

// Empty reports whether no brand matched.
func (r ListResult) Empty() bool { return len(r.Brands) == 0 }

// CatalogService answers catalog queries.
type CatalogService struct {
	store  *catalog.Store
	engine engine.SearchEngine
	events event.Publisher
	logger *slog.Logger
}

// NewCatalogService creates a CatalogService. A nil publisher disables events.
func NewCatalogService(store *catalog.Store, eng engine.SearchEngine, events event.Publisher, logger *slog.Logger) *CatalogService {
	if events == nil {
		events = event.Noop{}
	}
	return &CatalogService{
		store:  store,
		engine: eng,
		events: events,
		logger: logger,
	}
}

// Index loads the store into the search engine and announces the catalog.
func (s *CatalogService) Index(ctx context.Context, source string) error {
	brands := s.store.All()
	if err := s.engine.Index(ctx, brands); err != nil {
		return fmt.Errorf("index catalog: %w", err)
	}
	brandsLoaded.WithLabelValues(source).Set(float64(len(brands)))

	if err := s.events.PublishCatalogLoaded(ctx, source, len(brands)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish catalog.loaded event", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "catalog indexed", slog.String("source", source), slog.Int("count", len(brands)))
	return nil
}

// List returns the brands matching q in catalog order. If the search engine
// fails, the query is answered from the store directly.
func (s *CatalogService) List(ctx context.Context, q catalog.Query) (ListResult, error) {
	brands, err := s.engine.Search(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ListResult{}, fmt.Errorf("list brands: %w",
				errors.Join(apperrors.Unavailable("catalog search interrupted"), ctxErr))
		}
		searchesTotal.WithLabelValues("fallback").Inc()
		s.logger.WarnContext(ctx, "search engine failed, filtering in memory", slog.String("error", err.Error()))
		brands = catalog.Filter(s.store.All(), q)
	}
	if brands == nil {
		brands = []domain.Brand{}
	}

	outcome := "results"
	if len(brands) == 0 {
		outcome = "empty"
	}
	searchesTotal.WithLabelValues(outcome).Inc()

	s.logger.DebugContext(ctx, "catalog listed",
		slog.Int("categories", len(q.Categories)),
		slog.String("q", q.Text),
		slog.Int("matched", len(brands)),
	)
	return ListResult{Query: q, Brands: brands, Total: s.store.Len()}, nil
}

// Get looks a brand up by slug or identifier. Unknown identifiers return an
// error wrapping apperrors.ErrNotFound. A successful lookup publishes a
// catalog.brand.viewed event; publish failures are only logged.
func (s *CatalogService) Get(ctx context.Context, identifier string) (domain.Brand, error) {
	b, err := s.store.Lookup(identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			lookupsTotal.WithLabelValues("not_found").Inc()
		}
		return domain.Brand{}, err
	}
	lookupsTotal.WithLabelValues("found").Inc()

	if err := s.events.PublishBrandViewed(ctx, b, identifier); err != nil {
		s.logger.WarnContext(ctx, "failed to publish brand viewed event",
			slog.String("brand_id", b.ID),
			slog.String("error", err.Error()),
		)
	}
	return b, nil
}

// Categories lists the categories in use with brand counts.
func (s *CatalogService) Categories() []catalog.CategoryCount {
	return s.store.Categories()
}

// Len is the catalog size.
func (s *CatalogService) Len() int { return s.store.Len() }
