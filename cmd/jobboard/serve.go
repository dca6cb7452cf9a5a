package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/shojibur/octagon-jobs/internal/apply"
	"github.com/shojibur/octagon-jobs/internal/cache"
	"github.com/shojibur/octagon-jobs/internal/db"
	"github.com/shojibur/octagon-jobs/internal/greenhouse"
	"github.com/shojibur/octagon-jobs/internal/listing"
	"github.com/shojibur/octagon-jobs/internal/mail"
	"github.com/shojibur/octagon-jobs/internal/scheduler"
	"github.com/shojibur/octagon-jobs/internal/server"
	"github.com/shojibur/octagon-jobs/internal/storage"
	syncengine "github.com/shojibur/octagon-jobs/internal/sync"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that serves job listings and accepts applications, with a background scheduler keeping the boards in sync.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Redis is optional; without it facet queries hit the database.
	var facetCache *cache.Cache
	if cfg.RedisURL != "" {
		facetCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = facetCache.Close() }()
	} else {
		log.Println("REDIS_URL not set, facet caching disabled")
	}

	engine := syncengine.New(cfg.Boards, greenhouse.NewClient(), database, facetCache)

	sched := scheduler.New(engine, cfg.CronSpec())
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	files, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	applySvc := apply.NewService(database, database, files,
		mail.NewSMTPSender(cfg.SMTP), cfg.SMTP.AdminEmail, cfg.SiteName)

	listingSvc := listing.NewService(database, facetCache)

	srv := server.New(server.Config{Port: servePort, App: cfg},
		listingSvc, applySvc, engine, database, facetCache)

	return srv.Start()
}
