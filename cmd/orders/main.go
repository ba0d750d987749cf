package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-commerce/pkg/config"
	"go-commerce/pkg/db"
	"go-commerce/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "orders",
	Short: "go-commerce order service",
	Long:  `Order lifecycle service: placement, delivery, payment, cancellation and returns.`,
	// serve is the default so the container entrypoint needs no arguments
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg := config.LoadForService("ORDERS")
	cfg.DBName = getEnvOrDefault("ORDERS_DB_NAME", "commerce_db")
	cfg.GRPCPort = getEnvOrDefault("ORDERS_GRPC_PORT", "50052")
	cfg.HTTPPort = getEnvOrDefault("ORDERS_HTTP_PORT", "8082")
	return cfg
}

func openDatabase(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
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
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("connected to database")
	return dbConn, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
