// Package main is the entry point for the iSpot API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ECHOzdjd/iSpot/internal/catalog"
	"github.com/ECHOzdjd/iSpot/internal/config"
	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/handler"
	"github.com/ECHOzdjd/iSpot/internal/mapview"
	"github.com/ECHOzdjd/iSpot/internal/middleware"
	"github.com/ECHOzdjd/iSpot/internal/provider/elastic"
	"github.com/ECHOzdjd/iSpot/internal/provider/geoip"
	"github.com/ECHOzdjd/iSpot/internal/provider/overpass"
	"github.com/ECHOzdjd/iSpot/internal/provider/permission"
	"github.com/ECHOzdjd/iSpot/internal/repo"
	"github.com/ECHOzdjd/iSpot/internal/service"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
	"github.com/ECHOzdjd/iSpot/migrations"
)

// maxBodyBytes caps request bodies. The only body the API accepts is a short
// permission list.
const maxBodyBytes = 64 << 10

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Catalog ----------------------------------------------------------
	source, closeSource, err := openCatalogSource(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to open catalog source", "source", cfg.CatalogSource, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	store := catalog.NewStore(source, catalog.DefaultIcons, logger)
	// A failed load is not fatal: the store stays empty and the service
	// retries on the next catalog request.
	if err := store.Initialize(context.Background()); err != nil {
		slog.Error("marker catalog not loaded", "error", err)
	} else {
		slog.Info("marker catalog loaded", "markers", len(store.AllMarkers()))
	}

	// --- Providers --------------------------------------------------------
	searcher, err := newSearcher(cfg)
	if err != nil {
		slog.Error("failed to create place searcher", "provider", cfg.SearchProvider, "error", err)
		os.Exit(1)
	}
	locator := newLocator(cfg)

	key := []byte(cfg.PermissionSigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			slog.Error("failed to generate permission signing key", "error", err)
			os.Exit(1)
		}
		slog.Warn("PERMISSION_SIGNING_KEY not set; grants will not survive a restart")
	}
	issuer := permission.NewIssuer(key, cfg.PermissionTTL, cfg.GrantablePermissions)

	sessions := service.NewSessionService(store, service.Options{
		Searcher:    searcher,
		Locator:     locator,
		Permissions: issuer,
		Timeout:     cfg.ProviderTimeout,
		Camera:      domain.Camera{Center: cfg.MapCenter, Zoom: cfg.MapZoom},
		Viewport:    mapview.Viewport{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
		Logger:      logger,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	r.Mount("/", handler.NewServer(sessions, logger).Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a provider call that runs to its timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr,
			"catalog", cfg.CatalogSource, "search", cfg.SearchProvider, "location", cfg.LocationProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openCatalogSource returns the marker source selected by CATALOG_SOURCE and
// a function releasing whatever it holds open.
func openCatalogSource(ctx context.Context, cfg config.Config, log *slog.Logger) (catalog.Source, func(), error) {
	switch cfg.CatalogSource {
	case config.CatalogPostgres:
		// pgxpool.New does not open connections immediately; the ping does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		log.Info("database connection established")

		if cfg.DBMigrate {
			if err := migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repo.NewMarkerRepo(pool), pool.Close, nil

	case config.CatalogSQLite:
		src, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		seeded, err := src.SeedIfEmpty(ctx, catalog.SeedMarkers())
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		if seeded {
			log.Info("sqlite catalog seeded", "path", cfg.SQLitePath)
		}
		return src, func() { _ = src.Close() }, nil

	default:
		return catalog.StaticSource{}, func() {}, nil
	}
}

// migrate applies the embedded goose migrations through a database/sql
// handle borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations applied", "count", len(results))
	return nil
}

// newSearcher returns nil for SEARCH_PROVIDER=none; searches then report
// status "failed".
func newSearcher(cfg config.Config) (viewmodel.PlaceSearcher, error) {
	switch cfg.SearchProvider {
	case config.SearchOverpass:
		return overpass.New(cfg.OverpassURL, cfg.MapCenter, cfg.SearchRadiusKm, cfg.ProviderTimeout), nil
	case config.SearchElastic:
		s, err := elastic.New(cfg.ElasticURL, cfg.ElasticIndex, cfg.ProviderTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

func newLocator(cfg config.Config) viewmodel.Locator {
	if cfg.LocationProvider == config.LocationGeoIP {
		return geoip.New(cfg.GeoIPURL, cfg.ProviderTimeout)
	}
	return geoip.Static{At: cfg.StaticLocation}
}
