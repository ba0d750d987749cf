package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-commerce/internal/orders/adapters"
	"go-commerce/internal/orders/application"
	"go-commerce/pkg/logger"
)

func init() {
	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the order and ledger tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := logger.NewWithOptions(logger.Options{Service: "orders-migrate", Level: cfg.LogLevel, Format: cfg.LogFormat})
			defer log.Sync()

			dbConn, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			if err := migrate(adapters.NewPostgresOrderRepository(dbConn), adapters.NewPostgresLedgerRepository(dbConn)); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	}

	var window time.Duration
	var resyncCmd = &cobra.Command{
		Use:   "resync-ledger",
		Short: "Re-apply refund and return ledger sync to recently updated orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := logger.NewWithOptions(logger.Options{Service: "orders-resync", Level: cfg.LogLevel, Format: cfg.LogFormat})
			defer log.Sync()

			if window <= 0 {
				window = cfg.LedgerResyncWindow
			}

			dbConn, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}

			ledgerSync, closeStream := newLedgerSync(cfg, adapters.NewPostgresLedgerRepository(dbConn), log)
			defer closeStream()

			job := application.NewLedgerResyncJob(adapters.NewPostgresOrderRepository(dbConn), ledgerSync, window, log)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			return job.Run(ctx)
		},
	}
	resyncCmd.Flags().DurationVar(&window, "window", 0, "how far back to scan updated orders (default LEDGER_RESYNC_WINDOW)")

	rootCmd.AddCommand(migrateCmd, resyncCmd)
}
