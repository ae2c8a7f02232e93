package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"tekir/api"
	"tekir/cache"
	"tekir/config"
	"tekir/dispatch"
	"tekir/search"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	httpClient, err := config.NewHttpClient(cfg.ProxyURL, cfg.RequestTimeout)
	if err != nil {
		logger.Fatal("failed to create http client", zap.Error(err))
	}

	// =========
	// Search engines
	// =========
	engines := map[string]search.Engine{
		dispatch.SourceDuck:   search.NewDuckDuckGo(cfg.Engines.DuckDuckGoURL, cfg.UserAgent, httpClient, logger),
		dispatch.SourceBrave:  search.NewBrave(cfg.Engines.BraveURL, config.BraveAPIKey, httpClient, logger),
		dispatch.SourceGoogle: search.NewGoogle(cfg.Engines.GoogleURL, cfg.UserAgent, httpClient, logger),
	}

	// =========
	// Dispatcher
	// =========
	queryCache := cache.New(cfg.CacheTTL)
	dispatcher := dispatch.NewDispatcher(engines, queryCache, logger)
	logger.Info("search sources registered", zap.Strings("sources", dispatcher.Sources()))

	// =========
	// API server
	// =========
	server := api.NewServer(dispatcher, logger, cfg.AppPort, api.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	})
	if err := server.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
