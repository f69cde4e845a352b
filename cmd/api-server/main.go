// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradehub/internal/api"
	"tradehub/internal/bootstrap"
	"tradehub/internal/chat"
	"tradehub/internal/common/auth"
	"tradehub/internal/common/config"
	"tradehub/internal/common/logger"
	"tradehub/internal/common/observability"
	"tradehub/internal/common/validation"
	"tradehub/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New("api-server")
	if err != nil {
		zapLog.Warn("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("infrastructure init failed", zap.Error(err))
	}
	defer infra.Close()

	validator, err := validation.New()
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	stores := bootstrap.NewStores(infra)
	tokens := auth.NewTokenManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, time.Duration(cfg.Auth.JWT.TokenTTL)*time.Minute)

	hub := chat.NewHub(tokens, stores.Messages, chat.NewPresence(infra.Redis.Client), chat.HubConfig{
		HistoryLimit: cfg.Chat.HistoryLimit,
		MaxBodyLen:   cfg.Chat.MaxBodyLen,
	}, log)
	realtime := chat.NewServer(hub, log)

	productSearch := search.NewProductSearch(infra.SearchClient(), cfg.Search.ProductIndex, config.GetDuration(cfg.Search.Timeout), stores.Products, log)
	if err := productSearch.EnsureIndex(ctx); err != nil {
		zapLog.Warn("product index unavailable, search uses the database", zap.Error(err))
	}

	ready := map[string]api.Pinger{
		"postgres": infra.Postgres,
		"redis":    infra.Redis,
	}
	if infra.Elasticsearch != nil {
		ready["elasticsearch"] = infra.Elasticsearch
	}

	server := api.NewServer(api.Deps{
		Config:        cfg.Server,
		CacheConfig:   cfg.Cache,
		HistoryLimit:  cfg.Chat.HistoryLimit,
		Logger:        log,
		Tokens:        tokens,
		Passwords:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Validator:     validator,
		Cache:         infra.Cache,
		Observability: obs,

		Users:         stores.Users,
		Buyers:        stores.Buyers,
		Sellers:       stores.Sellers,
		Products:      stores.Products,
		Search:        productSearch,
		Orders:        stores.Orders,
		Quotes:        stores.Quotes,
		Messages:      stores.Messages,
		Subscriptions: stores.Subscriptions,
		Matcher:       bootstrap.NewMatchEngine(cfg, infra, stores, log),
		Subscription:  bootstrap.NewSubscriptionValidator(cfg, infra, stores, log),
		Delivery:      hub,
		Broadcaster:   realtime,
		Notifier:      bootstrap.NewNotifier(ctx, cfg, stores, log),
		Ready:         ready,
		Realtime:      realtime,
	})

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr()))
		errCh <- server.Listen(cfg.Server.Addr())
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining connections...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	zapLog.Info("API server stopped")
}
