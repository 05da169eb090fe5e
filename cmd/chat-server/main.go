package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrichat/internal/api"
	"agrichat/internal/common/config"
	"agrichat/internal/common/database"
	"agrichat/internal/common/logger"
	"agrichat/internal/common/observability"
	"agrichat/internal/dialogue/compose"
	"agrichat/internal/dialogue/engine"
	"agrichat/internal/store"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger).With(map[string]interface{}{
		"service": cfg.App.Name,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session store.
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.WithError(err).Error("failed to create redis client", nil)
		os.Exit(1)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		log.WithError(err).Error("redis unreachable", nil)
		os.Exit(1)
	}
	sessions := store.NewRedisSessionStore(redisClient.GetClient(), cfg.Dialogue.SessionTTLDuration(), log)

	// Catalog collaborators.
	pgClient, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.WithError(err).Error("failed to open postgres", nil)
		os.Exit(1)
	}
	defer pgClient.Close()
	if err := pgClient.Ping(ctx); err != nil {
		log.WithError(err).Error("postgres unreachable", nil)
		os.Exit(1)
	}
	crops := store.NewPostgresCropCatalog(pgClient.GetDB())
	schemes := store.NewPostgresSchemeCatalog(pgClient.GetDB())

	// Advisory index is optional; the composer degrades gracefully without it.
	var advisories compose.AdvisoryIndex
	if cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.WithError(err).Error("failed to create elasticsearch client", nil)
			os.Exit(1)
		}
		if err := esClient.Ping(); err != nil {
			log.WithError(err).Warn("elasticsearch unreachable, advisory enrichment disabled", nil)
		} else {
			advisories = store.NewESAdvisoryIndex(esClient.Client, cfg.Database.Elasticsearch.Index)
		}
	}

	composer := compose.New(crops, schemes, advisories, cfg.Dialogue.CatalogTimeoutDuration(), log)
	eng := engine.New(sessions, composer, cfg.Dialogue, log, obs)

	// Router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Handle("/metrics", promhttp.Handler())

	api.NewHandler(eng, log).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("chat server listening", map[string]interface{}{
			"port":        cfg.Server.Port,
			"environment": cfg.App.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server error", nil)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed", nil)
	}
}
