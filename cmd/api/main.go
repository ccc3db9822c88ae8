package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatitown/internal/adapters/photos/disk"
	"gatitown/internal/adapters/photos/s3store"
	pg "gatitown/internal/adapters/storage/postgres"
	"gatitown/internal/platform/config"
	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/photos"
	"gatitown/internal/router"
)

// @title        Gatitown API
// @version      1.0
// @description  Publicación, moderación y adopción de gatos rescatados.
// @BasePath     /

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Error("database connection failed", map[string]any{"err": err})
			os.Exit(1)
		}
		defer db.Close()

		if err := pg.Migrate(ctx, db); err != nil {
			log.Error("migrations failed", map[string]any{"err": err})
			os.Exit(1)
		}
		log.Info("postgres ready", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	store, err := newPhotoStore(ctx, cfg)
	if err != nil {
		log.Error("photo store setup failed", map[string]any{"err": err})
		os.Exit(1)
	}

	devAuth := os.Getenv("DEV_AUTH") == "true"

	h, err := router.NewRouter(router.Options{
		Config:     cfg,
		Logger:     log,
		DevAuth:    devAuth,
		DB:         db,
		PhotoStore: store,
	})
	if err != nil {
		log.Error("router setup failed", map[string]any{"err": err})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr(), "photo_store": cfg.Uploads.Store})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]any{"err": err})
	}
	log.Info("server stopped", nil)
}

func newPhotoStore(ctx context.Context, cfg config.Config) (photos.Store, error) {
	if cfg.Uploads.Store == "s3" {
		return s3store.New(ctx, s3store.Options{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
	}
	return disk.New(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix)
}
