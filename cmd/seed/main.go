// Command seed crea (o actualiza) la cuenta admin. Se puede correr varias veces.
package main

import (
	"context"
	"os"
	"time"

	pg "gatitown/internal/adapters/storage/postgres"
	"gatitown/internal/domain/accounts"
	"gatitown/internal/platform/config"
	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/auth"
)

const defaultAdminEmail = "admin@gatitown.com"

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"err": err})
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App + "-seed",
	})

	if cfg.Database.DSN == "" {
		log.Error("DB_DSN is required to seed", nil)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pg.Open(cfg.Database.DSN)
	if err != nil {
		log.Error("database connection failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer db.Close()

	if err := pg.Migrate(ctx, db); err != nil {
		log.Error("migrations failed", map[string]any{"err": err})
		os.Exit(1)
	}

	svc := accounts.NewService(pg.NewUsersRepo(db), accounts.Options{Logger: log})

	email := envOr("SEED_ADMIN_EMAIL", defaultAdminEmail)
	u, err := svc.ProvisionUser(ctx, accounts.ProvisionInput{
		Email:     email,
		Name:      envOr("SEED_ADMIN_NAME", "Admin"),
		Password:  os.Getenv("SEED_ADMIN_PASSWORD"),
		Role:      auth.RoleAdmin,
		AvatarURL: os.Getenv("SEED_ADMIN_AVATAR_URL"),
	})
	if err != nil {
		// ErrInvalidInput acá casi siempre es SEED_ADMIN_PASSWORD ausente o corta
		log.Error("seed admin failed", map[string]any{"err": err, "email": email})
		os.Exit(1)
	}

	log.Info("admin ready", map[string]any{"user_id": u.ID, "email": u.Email})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
