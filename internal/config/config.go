// Package config loads and validates application configuration from
// environment variables and an optional config file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// Catalog sources.
const (
	CatalogStatic   = "static"
	CatalogPostgres = "postgres"
	CatalogSQLite   = "sqlite"
)

// Search providers.
const (
	SearchOverpass = "overpass"
	SearchElastic  = "elastic"
	SearchNone     = "none"
)

// Location providers.
const (
	LocationGeoIP  = "geoip"
	LocationStatic = "static"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel is one of debug, info, warn, error. Defaults to "info".
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// CatalogSource selects where markers come from: static, postgres or sqlite.
	CatalogSource string

	// DatabaseURL is the Postgres connection string. Required for the postgres catalog.
	DatabaseURL string

	// DBMigrate applies the embedded goose migrations at startup.
	DBMigrate bool

	// SQLitePath is the database file for the sqlite catalog.
	SQLitePath string

	SearchProvider string
	OverpassURL    string
	ElasticURL     string
	ElasticIndex   string
	SearchRadiusKm float64

	LocationProvider string
	GeoIPURL         string
	StaticLocation   domain.LatLng

	// ProviderTimeout bounds every search and location request.
	ProviderTimeout time.Duration

	// MapCenter and MapZoom set the camera of a new session.
	MapCenter domain.LatLng
	MapZoom   float64

	// ViewportWidth and ViewportHeight are the pixel size assumed when
	// framing markers.
	ViewportWidth  int
	ViewportHeight int

	// PermissionSigningKey signs permission grants. When empty the server
	// generates a random key at startup, so grants do not survive a restart.
	PermissionSigningKey string
	PermissionTTL        time.Duration
	GrantablePermissions []domain.Permission
}

// Load reads configuration from the environment and, if CONFIG_FILE names
// one, a config file whose keys are the lower-cased variable names.
// Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:                 v.GetString("port"),
		LogLevel:             strings.ToLower(v.GetString("log_level")),
		CORSOrigins:          splitCSV(v.GetString("cors_origins")),
		CatalogSource:        strings.ToLower(v.GetString("catalog_source")),
		DatabaseURL:          v.GetString("database_url"),
		DBMigrate:            v.GetBool("db_migrate"),
		SQLitePath:           v.GetString("sqlite_path"),
		SearchProvider:       strings.ToLower(v.GetString("search_provider")),
		OverpassURL:          v.GetString("overpass_url"),
		ElasticURL:           v.GetString("elastic_url"),
		ElasticIndex:         v.GetString("elastic_index"),
		SearchRadiusKm:       v.GetFloat64("search_radius_km"),
		LocationProvider:     strings.ToLower(v.GetString("location_provider")),
		GeoIPURL:             v.GetString("geoip_url"),
		ProviderTimeout:      v.GetDuration("provider_timeout"),
		MapZoom:              v.GetFloat64("map_zoom"),
		ViewportWidth:        v.GetInt("viewport_width"),
		ViewportHeight:       v.GetInt("viewport_height"),
		PermissionSigningKey: v.GetString("permission_signing_key"),
		PermissionTTL:        v.GetDuration("permission_ttl"),
	}

	var problems []string

	var err error
	if cfg.MapCenter, err = parseLatLng(v.GetString("map_center")); err != nil {
		problems = append(problems, "MAP_CENTER: "+err.Error())
	}
	if cfg.StaticLocation, err = parseLatLng(v.GetString("static_location")); err != nil {
		problems = append(problems, "STATIC_LOCATION: "+err.Error())
	}
	if cfg.GrantablePermissions, err = parsePermissions(v.GetString("grantable_permissions")); err != nil {
		problems = append(problems, "GRANTABLE_PERMISSIONS: "+err.Error())
	}

	switch cfg.CatalogSource {
	case CatalogStatic, CatalogSQLite:
	case CatalogPostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL: required when CATALOG_SOURCE=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("CATALOG_SOURCE: unknown value %q", cfg.CatalogSource))
	}
	switch cfg.SearchProvider {
	case SearchOverpass, SearchElastic, SearchNone:
	default:
		problems = append(problems, fmt.Sprintf("SEARCH_PROVIDER: unknown value %q", cfg.SearchProvider))
	}
	switch cfg.LocationProvider {
	case LocationGeoIP, LocationStatic:
	default:
		problems = append(problems, fmt.Sprintf("LOCATION_PROVIDER: unknown value %q", cfg.LocationProvider))
	}
	if cfg.ProviderTimeout <= 0 {
		problems = append(problems, "PROVIDER_TIMEOUT: must be positive")
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		problems = append(problems, "VIEWPORT_WIDTH/VIEWPORT_HEIGHT: must be positive")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("catalog_source", CatalogStatic)
	v.SetDefault("database_url", "")
	v.SetDefault("db_migrate", false)
	v.SetDefault("sqlite_path", "ispot.db")
	v.SetDefault("search_provider", SearchOverpass)
	v.SetDefault("overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("elastic_url", "http://localhost:9200")
	v.SetDefault("elastic_index", "places")
	v.SetDefault("search_radius_km", 10)
	v.SetDefault("location_provider", LocationStatic)
	v.SetDefault("geoip_url", "http://ip-api.com/json/")
	v.SetDefault("static_location", "30.2741,120.1551")
	v.SetDefault("provider_timeout", "10s")
	v.SetDefault("map_center", "30.2741,120.1551")
	v.SetDefault("map_zoom", 12)
	v.SetDefault("viewport_width", 1080)
	v.SetDefault("viewport_height", 1920)
	v.SetDefault("permission_signing_key", "")
	v.SetDefault("permission_ttl", "1h")
	v.SetDefault("grantable_permissions", "location.fine,location.coarse")
	v.SetDefault("config_file", "")
}

// parseLatLng reads "lat,lon".
func parseLatLng(s string) (domain.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.LatLng{}, fmt.Errorf("want \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.LatLng{}, fmt.Errorf("bad latitude in %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return domain.LatLng{}, fmt.Errorf("bad longitude in %q", s)
	}
	return domain.LatLng{Latitude: lat, Longitude: lon}, nil
}

func parsePermissions(s string) ([]domain.Permission, error) {
	out := []domain.Permission{}
	for _, name := range splitCSV(s) {
		p := domain.Permission(name)
		ok := false
		for _, k := range domain.LocationPermissions {
			if k == p {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown permission %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
