package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/veriscan/veriscan/internal/catalog"
	"github.com/veriscan/veriscan/internal/events"
	"github.com/veriscan/veriscan/internal/feedback"
	"github.com/veriscan/veriscan/internal/qr"
	"github.com/veriscan/veriscan/internal/search"
	"github.com/veriscan/veriscan/internal/search/cache"
	"github.com/veriscan/veriscan/internal/web"
	"github.com/veriscan/veriscan/pkg/config"
	"github.com/veriscan/veriscan/pkg/health"
	"github.com/veriscan/veriscan/pkg/kafka"
	"github.com/veriscan/veriscan/pkg/logger"
	"github.com/veriscan/veriscan/pkg/metrics"
	"github.com/veriscan/veriscan/pkg/postgres"
	pkgredis "github.com/veriscan/veriscan/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting veriscan", "port", cfg.Server.Port, "base_url", cfg.Server.BaseURL)

	cat, err := catalog.NewStore(cfg.Catalog.DataDir)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog ready", "data_dir", cfg.Catalog.DataDir, "products", cat.Len())

	index := search.NewIndex(cat)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	store, pgClient, err := openFeedbackStore(cfg)
	if err != nil {
		slog.Error("failed to open feedback store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if pgClient != nil {
		defer pgClient.Close()
	}
	slog.Info("feedback store ready", "driver", cfg.Feedback.Driver)

	gen, err := qr.NewGenerator(cfg.QR.OutputDir, cfg.QR.Size)
	if err != nil {
		slog.Error("failed to initialise qr generator", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *events.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Events)
		defer producer.Close()
		collector = events.NewCollector(producer, 4096)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("event collector started", "topic", cfg.Kafka.Topics.Events)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.CatalogProducts.Set(float64(cat.Len()))
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	checker := health.NewChecker()
	checker.Register("catalog", func(ctx context.Context) health.ComponentHealth {
		if cat.Len() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d products", cat.Len())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "catalog empty"}
	})
	checker.Register("feedback_store", func(ctx context.Context) health.ComponentHealth {
		if _, err := store.Count(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := web.New(
		web.Config{
			BaseURL:          cfg.Server.BaseURL,
			DefaultLimit:     cfg.Search.DefaultLimit,
			MaxResults:       cfg.Search.MaxResults,
			MaxContentLength: cfg.Feedback.MaxContentLength,
		},
		cat, index, queryCache, store, gen, collector, m,
	)

	staticDir := filepath.Dir(cfg.QR.OutputDir)
	chain := web.NewRouter(h, checker, m, staticDir, cfg.Server.WriteTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("veriscan listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("veriscan stopped")
}

// openFeedbackStore selects the store driver from config. The postgres client
// is returned separately so main can close it after the store.
func openFeedbackStore(cfg *config.Config) (feedback.Store, *postgres.Client, error) {
	switch cfg.Feedback.Driver {
	case "", "file":
		store, err := feedback.OpenFileLog(cfg.Feedback.Path)
		return store, nil, err
	case "postgres":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store, err := feedback.NewPostgresStore(client)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown feedback driver %q", cfg.Feedback.Driver)
	}
}
