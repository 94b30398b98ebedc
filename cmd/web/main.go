package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/web/apiclient"
	"github.com/rl1809/storefront/internal/web/handler"
	"github.com/rl1809/storefront/internal/web/service"
	"github.com/rl1809/storefront/internal/web/session"
	"github.com/rl1809/storefront/internal/web/store"
	"github.com/rl1809/storefront/pkg/logging"
	"github.com/rl1809/storefront/pkg/metrics"
)

func main() {
	cfg, err := config.LoadWeb(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config error", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New("web", cfg.LogLevel)

	fatal := func(msg string, err error) {
		logger.Error(msg, slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("db connect error", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		fatal("db ping error", err)
	}
	pgStore := store.NewPostgresStore(pool)
	if err := pgStore.Migrate(ctx); err != nil {
		fatal("db migrate error", err)
	}
	logger.Info("connected to postgres")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		fatal("failed to connect redis", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)

	h := handler.New(
		service.NewAuthService(pgStore, sessions, api, logger),
		service.NewCartService(pgStore, api, logger),
		api,
		cfg.SessionTTL,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(metrics.NewServerMetrics(nil, "web")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("web server listening", slog.String("port", cfg.Port), slog.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("web server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	logger.Info("web server stopped")
}
