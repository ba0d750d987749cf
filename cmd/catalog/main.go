// Command catalog serves product prices and stock over HTTP and gRPC.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	catalogv1 "go-commerce/api/catalog/v1"
	"go-commerce/internal/catalog/adapters"
	"go-commerce/internal/catalog/application"
	"go-commerce/internal/catalog/infrastructure"
	"go-commerce/internal/catalog/ports"
	"go-commerce/pkg/config"
	"go-commerce/pkg/db"
	"go-commerce/pkg/events"
	grpcpkg "go-commerce/pkg/grpc"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/metrics"
	"go-commerce/pkg/middleware"
	"go-commerce/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadForService("CATALOG")
	cfg.DBName = getEnvOrDefault("CATALOG_DB_NAME", "commerce_db")
	cfg.GRPCPort = getEnvOrDefault("CATALOG_GRPC_PORT", "50051")
	cfg.HTTPPort = getEnvOrDefault("CATALOG_HTTP_PORT", "8081")

	log := logger.NewWithOptions(logger.Options{Service: "catalog-service", Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	log.Info("starting catalog service")

	dbConn, err := db.NewConnection(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Timeout:  cfg.DBTimeout,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := adapters.NewPostgresProductRepository(dbConn)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}

	// product.created is informational; the catalog runs without a broker
	var publisher ports.EventPublisher
	if rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, 30*time.Second, log); err != nil {
		log.Warn("failed to connect to RabbitMQ, events will be disabled: " + err.Error())
	} else {
		defer rabbitConn.Close()
		if pub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeCatalog, log); err != nil {
			log.Warn("failed to create publisher: " + err.Error())
		} else {
			publisher = adapters.NewRabbitMQPublisher(pub, log)
		}
	}

	useCase := application.NewProductUseCase(repo, publisher, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      setupRouter(cfg, log, dbConn, useCase),
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	grpcServer, err := grpcpkg.NewServer(cfg, "catalog", log)
	if err != nil {
		return err
	}
	catalogv1.RegisterCatalogServiceServer(grpcServer, infrastructure.NewGRPCServer(useCase))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening on :" + cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC server listening on :" + cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(err.Error())
	}

	log.Info("shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error: " + err.Error())
	}

	log.Info("servers stopped")
	return nil
}

func setupRouter(cfg *config.Config, log *logger.Logger, dbConn *gorm.DB, useCase *application.ProductUseCase) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.TraceID(),
		middleware.RequestLogger(log),
		middleware.ErrorHandler(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		router.Use(metrics.NewHTTPMetrics(registry, "catalog").Middleware())
		router.GET("/metrics", metrics.Handler(registry))
	}

	infrastructure.NewHTTPHandler(useCase).RegisterRoutes(router.Group("/api/v1"))

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

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
