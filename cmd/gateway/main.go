// Package main is the storefront gateway.
//
// It exposes the public REST API and forwards every call to the catalog and
// orders services over gRPC.
//
//	@title			go-commerce Storefront API
//	@version		1.0
//	@description	Checkout, order tracking and catalog lookups for go-commerce
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.email	support@example.com
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8443
//	@BasePath	/
//	@schemes	https http
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "go-commerce/docs/swagger"
	"go-commerce/internal/gateway/clients"
	"go-commerce/internal/gateway/handlers"
	"go-commerce/pkg/config"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/metrics"
	"go-commerce/pkg/middleware"
	pkgtls "go-commerce/pkg/tls"
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

	cfg := config.LoadForService("GATEWAY")

	log := logger.NewWithOptions(logger.Options{Service: "gateway", Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	log.Info("starting gateway service")

	backends, err := clients.NewClients(cfg)
	if err != nil {
		return fmt.Errorf("failed to create gRPC clients: %w", err)
	}
	defer backends.Close()

	server := &http.Server{
		Handler:      setupRouter(cfg, log, backends),
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(cfg, log, server)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error: " + err.Error())
	}

	log.Info("server stopped")
	return nil
}

// listen serves HTTPS on HTTPS_PORT when TLS_ENABLED is set, plain HTTP on
// HTTP_PORT otherwise.
func listen(cfg *config.Config, log *logger.Logger, server *http.Server) error {
	if !cfg.TLSEnabled {
		server.Addr = ":" + cfg.HTTPPort
		log.Info("HTTP server listening on :" + cfg.HTTPPort)
		return server.ListenAndServe()
	}

	tlsConfig, err := pkgtls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, "", false)
	if err != nil {
		return fmt.Errorf("failed to load TLS config: %w", err)
	}
	server.Addr = ":" + cfg.HTTPSPort
	server.TLSConfig = tlsConfig
	log.Info("HTTPS server listening on :" + cfg.HTTPSPort)
	return server.ListenAndServeTLS("", "")
}

func setupRouter(cfg *config.Config, log *logger.Logger, backends *clients.Clients) *gin.Engine {
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
		router.Use(metrics.NewHTTPMetrics(registry, "gateway").Middleware())
		router.GET("/metrics", metrics.Handler(registry))
	}

	handlers.NewHandler(backends.Catalog, backends.Orders).RegisterRoutes(router.Group("/api/v1"))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
