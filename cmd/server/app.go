package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/waypointco/waypoint-api/internal/config"
	"github.com/waypointco/waypoint-api/internal/geocoding"
	"github.com/waypointco/waypoint-api/internal/platform/filestore"
	"github.com/waypointco/waypoint-api/internal/platform/nominatim"
	"github.com/waypointco/waypoint-api/internal/platform/postgres"
	"github.com/waypointco/waypoint-api/internal/service"
	"github.com/waypointco/waypoint-api/internal/service/auth"
	"github.com/waypointco/waypoint-api/internal/storage"
	"github.com/waypointco/waypoint-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	placeStore store.PlaceStore
	userStore  store.UserStore
	txRunner   store.TxRunner

	// Services
	jwtService     auth.JWTService
	passwordHasher *auth.BcryptHasher
	geocoder       geocoding.Geocoder
	imageStore     storage.ImageStore
	placeService   service.PlaceService
}

// newApplication creates a new application instance with all dependencies
// initialized. Configuration, logging, and the database connection must be
// established by the caller.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptHasher()

	app.placeStore = postgres.NewPostgresPlaceStore(db, logger)
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.txRunner = store.NewSQLTxRunner(db)

	app.geocoder, err = nominatim.NewClient(cfg.Geocoder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize geocoding client: %w", err)
	}
	logger.Info("Geocoding client initialized", "base_url", cfg.Geocoder.BaseURL)

	app.imageStore, err = filestore.NewLocalImageStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	app.placeService, err = service.NewPlaceService(
		app.placeStore,
		app.userStore,
		app.txRunner,
		app.geocoder,
		app.imageStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create place service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
