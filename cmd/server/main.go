package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricescout/backend/config"
	httpDelivery "github.com/pricescout/backend/internal/delivery/http"
	"github.com/pricescout/backend/internal/domain"
	"github.com/pricescout/backend/internal/infrastructure/cache"
	"github.com/pricescout/backend/internal/infrastructure/openai"
	"github.com/pricescout/backend/internal/infrastructure/serpapi"
	"github.com/pricescout/backend/internal/infrastructure/storage/memory"
	"github.com/pricescout/backend/internal/infrastructure/storage/postgres"
	"github.com/pricescout/backend/internal/infrastructure/synthetic"
	"github.com/pricescout/backend/internal/usecase"
)

const version = "2.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("server failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnvFile(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting PriceScout backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Type),
	)

	// Storage
	var (
		products domain.ProductRepository
		history  domain.HistoryRepository
	)
	switch cfg.Store.Type {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return err
		}
		products = postgres.NewProductRepository(pool)
		history = postgres.NewHistoryRepository(pool, cfg.Store.HistoryLimit)
	default:
		products = memory.NewProductRepository()
		history = memory.NewHistoryRepository(cfg.Store.HistoryLimit)
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	defer memoryCache.Close()

	// LLM client
	llm := openai.NewClient(openai.Config{
		BaseURL:           cfg.OpenAI.BaseURL,
		Timeout:           cfg.OpenAI.Timeout,
		MaxRetries:        cfg.OpenAI.MaxRetries,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Burst:             5,
	}, logger)
	if cfg.OpenAI.Debug || cfg.Server.Environment == "development" {
		llm.SetDebug(true)
		logger.Info("OpenAI client debug mode enabled")
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("no server OpenAI key configured; commands and refresh need one, the proxy expects keys from clients")
	}

	// Search providers. A nil primary sends everything to the synthetic fallback.
	var primary domain.SearchProvider
	if cfg.UseSerpAPI() {
		primary = serpapi.NewClient(serpapi.Config{
			BaseURL:    cfg.Search.BaseURL,
			APIKey:     cfg.Search.SerpAPIKey,
			Timeout:    cfg.Search.Timeout,
			MaxResults: cfg.Search.MaxResults,
		}, logger)
		logger.Info("search provider: serpapi with synthetic fallback")
	} else {
		logger.Info("search provider: synthetic")
	}

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		memoryCache,
		primary,
		synthetic.NewProvider(cfg.Search.MaxResults),
		usecase.SearchServiceConfig{CacheTTL: cfg.Search.CacheTTL},
		logger,
	)
	gateway := usecase.NewGatewayService(llm, searchService, usecase.GatewayConfig{
		ServerAPIKey: cfg.OpenAI.APIKey,
		Model:        cfg.OpenAI.Model,
	}, logger)
	productService := usecase.NewProductService(products, logger)
	analyzer := usecase.NewAnalyzerService(gateway, products, history, usecase.AnalyzerConfig{
		CompetitorPrompt:   cfg.Prompts.Competitor,
		AvitoPrompt:        cfg.Prompts.Avito,
		EditPrompt:         cfg.Prompts.Edit,
		StrictMatch:        cfg.Matching.Strict,
		RefreshConcurrency: cfg.Refresh.Concurrency,
	}, logger)

	handler := httpDelivery.NewHandler(gateway, productService, analyzer, cfg.Store.Type, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}
