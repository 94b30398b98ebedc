package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/handler/orderrpc"
	"github.com/rl1809/storefront/internal/adapter/notify"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/logging"
	"github.com/rl1809/storefront/pkg/metrics"
)

func main() {
	cfg, err := config.LoadAPI(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config error", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New("api", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fatal := func(msg string, err error) {
		logger.Error(msg, slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize storage
	var (
		db      port.DatabaseRepository
		cache   port.CacheRepository
		closers []func() error
	)
	switch cfg.StorageDriver {
	case "memory":
		mem := storage.NewMemoryAdapter()
		db, cache = mem, mem
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		sqlDB, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			fatal("failed to connect mysql", err)
		}
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := sqlDB.PingContext(ctx); err != nil {
			fatal("failed to ping mysql", err)
		}
		mysqlAdapter := storage.NewMySQLAdapter(sqlDB)
		if err := mysqlAdapter.Migrate(ctx); err != nil {
			fatal("failed to migrate mysql", err)
		}
		logger.Info("connected to mysql")

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal("failed to connect redis", err)
		}
		logger.Info("connected to redis")

		db, cache = mysqlAdapter, storage.NewRedisAdapter(rdb)
		closers = append(closers, rdb.Close, sqlDB.Close)
	}

	minioClient, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		fatal("failed to create minio client", err)
	}
	blobs := storage.NewMinioAdapter(minioClient)
	share := storage.NewShareAdapter(osfs.New(cfg.FileShareRoot), cfg.FileShare)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		fatal("failed to create notifier", err)
	}

	// Initialize services
	orderService := service.NewOrderService(db, cache, cfg.QueueSize, cfg.ConflictRetries, logger)
	customerService := service.NewCustomerService(db, cfg.ConflictRetries)
	productService := service.NewProductService(db, blobs, cfg.ImagesBucket, cfg.ConflictRetries)
	uploadService := service.NewUploadService(blobs, share, cfg.ProofsBucket, cfg.PaymentsDir, logger)

	// Start notification workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service.PublishLoop(id, orderService.GetEventQueue(), notifier, logger)
		}(i)
	}
	logger.Info("started notification workers", slog.Int("count", cfg.WorkerCount), slog.String("notifier", cfg.Notifier))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	orderrpc.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService, logger))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		fatal("failed to listen", err)
	}
	go func() {
		logger.Info("gRPC server listening", slog.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", slog.Any("error", err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(customerService, productService, orderService, uploadService, logger)
	serverMetrics := metrics.NewServerMetrics(nil, "api")

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.WithTimeout(httpHandler.Routes(serverMetrics), cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
	}
	go func() {
		logger.Info("HTTP server listening", slog.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", slog.Any("error", err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close event queue and wait for workers
	orderService.Close()
	wg.Wait()
	logger.Info("workers stopped")

	if err := notifier.Close(); err != nil {
		logger.Warn("notifier close failed", slog.Any("error", err))
	}
	for _, closeFn := range closers {
		closeFn()
	}
	logger.Info("connections closed")
}

func newNotifier(cfg *config.API, logger *slog.Logger) (port.OrderNotifier, error) {
	switch cfg.Notifier {
	case "rabbitmq":
		pool, err := notify.NewChannelPool(cfg.RabbitMQURL, cfg.OrderQueue, cfg.ChannelPoolSize, logger)
		if err != nil {
			return nil, err
		}
		return notify.NewRabbitNotifier(pool, cfg.OrderQueue), nil
	case "kafka":
		return notify.NewKafkaNotifier(notify.ParseBrokers(cfg.KafkaBrokers), cfg.OrderQueue)
	default:
		return notify.NewLogNotifier(logger), nil
	}
}
