// Package source loads the brand collection from its configured backend.
package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/probin-johori/sustainable/internal/domain"
)

// Loader fetches raw brand records from one backend. Implementations return
// records in the backend's order and leave slug derivation and validation to
// the catalog.
type Loader interface {
	Name() string
	Load(ctx context.Context) ([]domain.Brand, error)
}

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_source_loads_total",
		Help: "Brand source loads by source and result.",
	}, []string{"source", "result"})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_source_load_duration_seconds",
		Help:    "Time spent loading brands from a source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
)

// Safe runs l and never fails: any error is logged and an empty collection
// is returned in its place.
func Safe(ctx context.Context, l Loader, logger *slog.Logger) []domain.Brand {
	start := time.Now()
	brands, err := l.Load(ctx)
	loadDuration.WithLabelValues(l.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		loadsTotal.WithLabelValues(l.Name(), "error").Inc()
		logger.ErrorContext(ctx, "failed to load brands, serving an empty catalog",
			slog.String("source", l.Name()),
			slog.String("error", err.Error()),
		)
		return []domain.Brand{}
	}

	loadsTotal.WithLabelValues(l.Name(), "ok").Inc()
	if brands == nil {
		brands = []domain.Brand{}
	}
	logger.InfoContext(ctx, "brands loaded",
		slog.String("source", l.Name()),
		slog.Int("count", len(brands)),
	)
	return brands
}

// Func adapts a function to the Loader interface.
type Func struct {
	SourceName string
	Fn         func(ctx context.Context) ([]domain.Brand, error)
}

// Name returns the configured source name.
func (f Func) Name() string { return f.SourceName }

// Load calls Fn.
func (f Func) Load(ctx context.Context) ([]domain.Brand, error) { return f.Fn(ctx) }

// ParseCategories converts raw category labels, logging and dropping the
// ones that are not recognised.
func ParseCategories(ctx context.Context, logger *slog.Logger, source, id string, raw []string) []domain.Category {
	known, unknown := domain.ParseCategories(raw)
	for _, u := range unknown {
		logger.WarnContext(ctx, "unknown category dropped",
			slog.String("source", source),
			slog.String("id", id),
			slog.String("category", u),
		)
	}
	if known == nil {
		known = []domain.Category{}
	}
	return known
}

// DropUnknownCategories filters already-typed categories through
// ParseCategories.
func DropUnknownCategories(ctx context.Context, logger *slog.Logger, source string, b domain.Brand) domain.Brand {
	raw := make([]string, len(b.Categories))
	for i, c := range b.Categories {
		raw[i] = string(c)
	}
	b.Categories = ParseCategories(ctx, logger, source, b.ID, raw)
	return b
}
