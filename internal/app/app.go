package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/config"
	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/engine"
	esengine "github.com/probin-johori/sustainable/internal/engine/elasticsearch"
	"github.com/probin-johori/sustainable/internal/engine/memory"
	"github.com/probin-johori/sustainable/internal/event"
	handler "github.com/probin-johori/sustainable/internal/handler/http"
	"github.com/probin-johori/sustainable/internal/service"
	"github.com/probin-johori/sustainable/internal/source"
	"github.com/probin-johori/sustainable/internal/source/airtable"
	"github.com/probin-johori/sustainable/internal/source/postgres"
	"github.com/probin-johori/sustainable/internal/source/sheets"
	"github.com/probin-johori/sustainable/internal/source/static"
	"github.com/probin-johori/sustainable/internal/web"
	"github.com/probin-johori/sustainable/pkg/database"
	"github.com/probin-johori/sustainable/pkg/health"
	"github.com/probin-johori/sustainable/pkg/httpclient"
	pkgkafka "github.com/probin-johori/sustainable/pkg/kafka"
	"github.com/probin-johori/sustainable/pkg/middleware"
	"github.com/probin-johori/sustainable/pkg/tracing"
)

const serviceName = "catalog"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance: it loads the catalog from the
// configured source, indexes it and builds the HTTP server.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	loader := a.newLoader(ctx, healthHandler)

	// Load the catalog. Source failures degrade to an empty catalog.
	store := catalog.New(source.Safe(ctx, loader, logger), logger)

	eng, err := a.newEngine(ctx, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	var events event.Publisher = event.Noop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(cfg.Kafka, logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Kafka.Brokers))
	}

	catalogService := service.NewCatalogService(store, eng, events, logger)
	if err := catalogService.Index(ctx, loader.Name()); err != nil {
		a.close()
		return nil, err
	}

	pages, err := web.NewHandler(catalogService, cfg.ContactEmail, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init pages: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(catalogService, pages, healthHandler, handler.RouterConfig{
		ServiceName:    serviceName,
		RequestTimeout: cfg.RequestTimeout,
		CacheMaxAge:    cfg.CacheMaxAge,
		CORS:           cors,
		PprofCIDRs:     cfg.PprofCIDRs,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newLoader builds the configured source. Remote sources go through a
// retrying, circuit-broken HTTP client and, when enabled, a Redis snapshot.
func (a *App) newLoader(ctx context.Context, healthHandler *health.Handler) source.Loader {
	cfg, logger := a.cfg, a.logger

	var loader source.Loader
	switch cfg.Source {
	case config.SourceSheets:
		loader = sheets.New(cfg.Sheets, a.upstreamClient(config.SourceSheets), logger)
	case config.SourceAirtable:
		loader = airtable.New(cfg.Airtable, a.upstreamClient(config.SourceAirtable), logger)
	case config.SourcePostgres:
		loader = a.postgresLoader(healthHandler)
	default:
		loader = static.New(cfg.SeedFile, logger)
	}
	logger.Info("catalog source selected", slog.String("source", loader.Name()))

	if !cfg.SnapshotCache || !cfg.Remote() {
		return loader
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("snapshot cache disabled, redis unreachable", slog.String("error", err.Error()))
		return loader
	}
	a.redis = client
	healthHandler.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return source.NewCached(loader, source.NewRedisSnapshots(client), cfg.SnapshotTTL, logger)
}

// postgresLoader connects and migrates on Load, so an unreachable or broken
// database degrades to an empty catalog through source.Safe.
func (a *App) postgresLoader(healthHandler *health.Handler) source.Loader {
	cfg, logger := a.cfg, a.logger
	return source.Func{
		SourceName: config.SourcePostgres,
		Fn: func(ctx context.Context) ([]domain.Brand, error) {
			if a.pool == nil {
				pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
				if err != nil {
					return nil, fmt.Errorf("connect to postgres: %w", err)
				}
				a.pool = pool
				if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
					logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
				}
				healthHandler.Register("postgres", pool.Ping)
			}
			if err := database.RunMigrations(ctx, a.pool, postgres.Migrations(), logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			return postgres.New(a.pool, cfg.SlowQueryThreshold, logger).Load(ctx)
		},
	}
}

func (a *App) upstreamClient(name string) httpclient.Doer {
	base := httpclient.New(a.cfg.HTTPClient)
	return httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig(name), a.logger)
}

func (a *App) newEngine(ctx context.Context, healthHandler *health.Handler) (engine.SearchEngine, error) {
	if a.cfg.SearchEngine != config.EngineElasticsearch {
		a.logger.Info("in-memory search engine initialized")
		return memory.New(), nil
	}

	es, err := esengine.New(ctx, a.cfg.ElasticsearchURL, a.cfg.ElasticsearchIndex, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	healthHandler.Register("elasticsearch", es.Ping)
	a.logger.Info("elasticsearch search engine initialized",
		slog.String("url", a.cfg.ElasticsearchURL),
		slog.String("index", a.cfg.ElasticsearchIndex),
	)
	return es, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }

// Run starts the HTTP server, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeWith(shutdownCtx))

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.closeWith(ctx)
}

func (a *App) closeWith(ctx context.Context) error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
