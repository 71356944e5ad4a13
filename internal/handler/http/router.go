package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/probin-johori/sustainable/internal/service"
	"github.com/probin-johori/sustainable/internal/web"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/health"
	"github.com/probin-johori/sustainable/pkg/httputil"
	"github.com/probin-johori/sustainable/pkg/middleware"
)

// RouterConfig holds the router's tunables.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	// CacheMaxAge is sent on successful catalog reads. Zero disables it.
	CacheMaxAge time.Duration
	CORS        middleware.CORSConfig
	// PprofCIDRs enables /debug/pprof for the listed networks.
	PprofCIDRs []string
	// RateLimitRPS limits API requests per client IP. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with the catalog API, the HTML pages and the
// operational endpoints registered.
func NewRouter(
	catalogService *service.CatalogService,
	pages *web.Handler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Catalog API endpoints
	catalogHandler := NewCatalogHandler(catalogService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(middleware.CacheControl(cfg.CacheMaxAge))

		r.Get("/brands", catalogHandler.ListBrands)
		r.Get("/brands/{identifier}", catalogHandler.GetBrand)
		r.Get("/categories", catalogHandler.ListCategories)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteError(w, r, apperrors.NotFound("route", r.URL.Path), logger)
		})
	})

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(cfg.CacheMaxAge))
		pages.Routes(r)
	})
	r.NotFound(pages.NotFound)

	return r
}
