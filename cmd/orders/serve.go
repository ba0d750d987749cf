package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	ordersv1 "go-commerce/api/orders/v1"
	"go-commerce/internal/orders/adapters"
	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/infrastructure"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/config"
	"go-commerce/pkg/db"
	"go-commerce/pkg/events"
	grpcpkg "go-commerce/pkg/grpc"
	"go-commerce/pkg/lock"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/metrics"
	"go-commerce/pkg/middleware"
	"go-commerce/pkg/rabbitmq"
	"go-commerce/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()

	log := logger.NewWithOptions(logger.Options{Service: "orders-service", Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	log.Info("starting orders service")

	dbConn, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}

	repo := adapters.NewPostgresOrderRepository(dbConn)
	ledgerRepo := adapters.NewPostgresLedgerRepository(dbConn)
	if err := migrate(repo, ledgerRepo); err != nil {
		return err
	}

	ledgerSync, closeStream := newLedgerSync(cfg, ledgerRepo, log)
	defer closeStream()

	// Optional collaborators stay untyped nil when unavailable
	var catalog ports.CatalogClient
	catalogClient, err := adapters.NewGRPCCatalogClient(cfg)
	if err != nil {
		log.Warn("failed to connect to catalog service, client prices will be used: " + err.Error())
	} else {
		defer catalogClient.Close()
		catalog = catalogClient
		log.Info("connected to catalog service")
	}

	var publisher ports.EventPublisher
	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, 30*time.Second, log)
	if err != nil {
		log.Warn("failed to connect to RabbitMQ, events will be disabled: " + err.Error())
	} else {
		defer rabbitConn.Close()
		pub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeOrders, log)
		if err != nil {
			log.Warn("failed to create publisher: " + err.Error())
		} else {
			publisher = adapters.NewRabbitMQPublisher(pub, log)
		}
	}

	locker, closeLocker := newLocker(cfg, log)
	defer closeLocker()

	registry := prometheus.NewRegistry()
	var orderMetrics *metrics.OrderMetrics
	if cfg.MetricsEnabled {
		orderMetrics = metrics.NewOrderMetrics(registry)
	}

	useCase := application.NewOrderUseCase(application.Deps{
		Orders:     repo,
		Inventory:  adapters.NewPostgresInventory(dbConn, db.NewUnitOfWork(dbConn)),
		Ledger:     ledgerSync,
		Publisher:  publisher,
		Catalog:    catalog,
		UnitOfWork: db.NewUnitOfWork(dbConn),
		Locker:     locker,
		Metrics:    orderMetrics,
		Log:        log,
	})

	// Payment gateway notifications arrive over the payments exchange
	if rabbitConn != nil {
		consumer, err := adapters.NewPaymentStatusConsumer(rabbitConn, useCase, cfg.WebhookDedupTTL, log)
		if err != nil {
			log.Warn("failed to create payment status consumer: " + err.Error())
		} else if err := consumer.Start(ctx); err != nil {
			log.Warn("failed to start consumer: " + err.Error())
		}
	}

	jobs := scheduler.New(log)
	if _, err := jobs.Register(cfg.LedgerResyncSpec, application.NewLedgerResyncJob(repo, ledgerSync, cfg.LedgerResyncWindow, log)); err != nil {
		return err
	}
	jobs.Start()

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      setupRouter(cfg, log, dbConn, registry, useCase),
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	go func() {
		log.Info("HTTP server listening on :" + cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: " + err.Error())
		}
	}()

	grpcServer, err := setupGRPCServer(cfg, log, useCase)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	go func() {
		log.Info("gRPC server listening on :" + cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server error: " + err.Error())
		}
	}()

	<-ctx.Done()

	log.Info("shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error: " + err.Error())
	}

	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("background jobs did not finish before shutdown")
	}

	log.Info("servers stopped")
	return nil
}

func migrate(repo *adapters.PostgresOrderRepository, ledgerRepo *adapters.PostgresLedgerRepository) error {
	if err := repo.Migrate(); err != nil {
		return err
	}
	return ledgerRepo.Migrate()
}

// newLedgerSync wires the ledger audit records, streaming changes to Kafka
// when brokers are configured.
func newLedgerSync(cfg *config.Config, ledgerRepo *adapters.PostgresLedgerRepository, log *logger.Logger) (*application.LedgerSync, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return application.NewLedgerSync(ledgerRepo, nil, log), func() {}
	}

	writer := adapters.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaLedgerTopic)
	log.Info("ledger stream enabled",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaLedgerTopic),
	)
	return application.NewLedgerSync(ledgerRepo, adapters.NewKafkaLedgerStream(writer), log), func() {
		if err := writer.Close(); err != nil {
			log.Error("failed to close ledger stream: " + err.Error())
		}
	}
}

// newLocker returns a redis locker shared by replicas, or an in-process one
// when no redis address is configured.
func newLocker(cfg *config.Config, log *logger.Logger) (ports.Locker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewKeyedMutex(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	log.Info("using redis order locks", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedisLocker(client, "orders:lock:", cfg.OrderLockTTL), func() {
		_ = client.Close()
	}
}

func setupRouter(cfg *config.Config, log *logger.Logger, dbConn *gorm.DB, registry *prometheus.Registry, useCase *application.OrderUseCase) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.TraceID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	if cfg.MetricsEnabled {
		router.Use(metrics.NewHTTPMetrics(registry, "orders").Middleware())
		router.GET("/metrics", metrics.Handler(registry))
	}

	api := router.Group("/api/v1")
	infrastructure.NewHTTPHandler(useCase).RegisterRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx, dbConn); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func setupGRPCServer(cfg *config.Config, log *logger.Logger, useCase *application.OrderUseCase) (*grpc.Server, error) {
	server, err := grpcpkg.NewServer(cfg, "orders", log)
	if err != nil {
		return nil, err
	}
	ordersv1.RegisterOrderServiceServer(server, infrastructure.NewGRPCServer(useCase))
	return server, nil
}
