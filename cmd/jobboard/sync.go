package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/shojibur/octagon-jobs/internal/cache"
	"github.com/shojibur/octagon-jobs/internal/db"
	"github.com/shojibur/octagon-jobs/internal/greenhouse"
	syncengine "github.com/shojibur/octagon-jobs/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one board sync and exit",
	Long:  `Fetch every configured Greenhouse board, replace its stored records, and exit. Useful for cron-driven deployments and for seeding a fresh database.`,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var facetCache *cache.Cache
	if cfg.RedisURL != "" {
		facetCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = facetCache.Close() }()
	}

	engine := syncengine.New(cfg.Boards, greenhouse.NewClient(), database, facetCache)

	synced, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Synced %d board(s)", synced)
	return nil
}
