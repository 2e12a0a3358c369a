// Command server starts the CV matcher HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/ai/gemini"
	rediscache "github.com/fairyhunter13/cv-matcher/internal/adapter/cache/redis"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/export/excel"
	httpserver "github.com/fairyhunter13/cv-matcher/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/cv-matcher/internal/app"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/service/ratelimiter"
	"github.com/fairyhunter13/cv-matcher/internal/usecase"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so /metrics exposes
	// HTTP, extraction, ranking and narrative instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	// Infra: DB pool and schema
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("db migrate failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis backs the dashboard cache and the narrative rate limiter.
	var (
		rdb     goredis.Cmdable
		cache   domain.MetricsCache
		limiter ratelimiter.Limiter
	)
	if cfg.RedisURL != "" {
		opt, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		client := goredis.NewClient(opt)
		defer func() { _ = client.Close() }()
		rdb = client
		cache = rediscache.NewDashboardCache(client)
		limiter = ratelimiter.NewRedisLuaLimiter(client, map[string]ratelimiter.BucketConfig{
			gemini.LimiterKey: ratelimiter.NewBucketConfigFromPerMinute(cfg.NarrativeRatePerMin),
		})
	}

	var narrative domain.NarrativeGenerator
	if cfg.NarrativeEnabled() {
		gen, err := gemini.New(ctx, cfg, limiter)
		if err != nil {
			slog.Warn("narrative generator unavailable; using deterministic recommendations", slog.Any("error", err))
		} else {
			narrative = gen
			slog.Info("narrative generator initialized", slog.String("model", gen.Model()))
		}
	}

	var publisher domain.AnalysisPublisher
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := redpanda.NewPublisher(ctx, cfg.KafkaBrokers, cfg.AnalysisTopic)
		if err != nil {
			slog.Warn("analysis events disabled", slog.Any("error", err))
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	// Text extraction: local parsers first, Tika for everything else.
	var (
		fallback domain.TextExtractor
		tikaPing app.Pinger
	)
	if cfg.TikaURL != "" {
		tc := tika.New(cfg.TikaURL)
		fallback = tc
		tikaPing = tc
	}
	text := local.New(fallback)

	extractor, err := app.NewSkillExtractor(cfg)
	if err != nil {
		slog.Error("skill taxonomy load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories and usecases
	candRepo := postgres.NewCandidateRepo(pool)
	candSvc := usecase.NewCandidateService(candRepo, extractor, text, cache)
	analysisSvc := usecase.NewJobAnalysisService(
		candRepo,
		postgres.NewJobAnalysisRepo(pool),
		usecase.NewRanker(cfg.RankWorkers),
		usecase.Recommender{Generator: narrative, Timeout: cfg.NarrativeTimeout},
		publisher,
		excel.NewExporter(),
		cache,
	)
	dashSvc := usecase.NewDashboardService(postgres.NewDashboardRepo(pool), cache, cfg.DashboardCacheTTL)

	srv := httpserver.NewServer(cfg, candSvc, analysisSvc, dashSvc, app.BuildReadinessChecks(pool, rdb, tikaPing)...)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
