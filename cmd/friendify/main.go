// Command friendify runs the Friendify web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mumraindrop/friendify/internal/auth"
	"github.com/mumraindrop/friendify/internal/config"
	"github.com/mumraindrop/friendify/internal/db"
	"github.com/mumraindrop/friendify/internal/friends"
	"github.com/mumraindrop/friendify/internal/logging"
	"github.com/mumraindrop/friendify/internal/sync"
	"github.com/mumraindrop/friendify/internal/toptracks"
	"github.com/mumraindrop/friendify/internal/web"
	webfs "github.com/mumraindrop/friendify/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsProduction())
	defer func() { _ = logger.Sync() }()

	if !cfg.Spotify.Configured() {
		logger.Warn("spotify credentials are incomplete; login will fail until SPOTIFY_ID, SPOTIFY_SECRET and SPOTIFY_REDIRECT_URI are set")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	authenticator := auth.New(cfg.Spotify)

	// Create and start server
	server, err := web.NewServer(web.ServerConfig{
		Addr:          cfg.Addr(),
		FrontendURL:   cfg.FrontendURL,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.IsProduction(),
		TemplatesFS:   templates,
		StaticFS:      static,
		Auth:          authenticator,
		Logins:        sync.New(store, authenticator),
		Friends:       friends.New(store),
		TopTracks:     toptracks.New(store),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// openStore connects the configured store, applying migrations first
// when the postgres store is used.
func openStore(cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return db.NewMemory(), nil
	}

	if cfg.MigrateOnStart {
		version, err := db.Migrate(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		logger.Info("database migrated", zap.Uint("version", version))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return database, nil
}
