package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider exposes the application configuration to the packages that need it.
type Provider interface {
	GetAppAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetPhaseTimeScale() float64
	GetPhaseGuards() bool
	GetRandomSeed() uint64
	GetCatalogPath() string
	GetRealityScript() string
	GetSnapshotBackend() string
	GetSnapshotDir() string
	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetDistrictsAPIURL() string
	GetMetricsEnabled() bool
	GetTracingEnabled() bool
	GetTracingZipkinURL() string
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr       string
	AppBaseURL    string
	SessionSecret string

	PhaseTimeScale float64
	PhaseGuards    bool
	RandomSeed     uint64
	CatalogPath    string
	RealityScript  string

	SnapshotBackend string
	SnapshotDir     string
	DBUrl           string
	DBNs            string
	DBDb            string
	DBUser          string
	DBPass          string

	DistrictsAPIURL  string
	MetricsEnabled   bool
	TracingEnabled   bool
	TracingZipkinURL string
}

// New loads configuration from a .env file, if present, and the environment.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Unset or malformed values
// fall back to their defaults.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	return &Config{
		AppAddr:       get("APP_ADDR", ":8080"),
		AppBaseURL:    get("APP_BASE_URL", "http://localhost:8080"),
		SessionSecret: get("SESSION_SECRET", "planspiel-dev-secret"),

		PhaseTimeScale: parseFloat(get("PHASE_TIME_SCALE", ""), 1),
		PhaseGuards:    parseBool(get("PHASE_GUARDS", ""), false),
		RandomSeed:     parseUint(get("RANDOM_SEED", ""), 0),
		CatalogPath:    get("CATALOG_PATH", ""),
		RealityScript:  get("REALITY_SCRIPT", ""),

		SnapshotBackend: strings.ToLower(get("SNAPSHOT_BACKEND", "memory")),
		SnapshotDir:     get("SNAPSHOT_DIR", "data/snapshots"),
		DBUrl:           get("SURREAL_URL", ""),
		DBNs:            get("SURREAL_NS", "planspiel"),
		DBDb:            get("SURREAL_DB", "planspiel"),
		DBUser:          get("SURREAL_USER", ""),
		DBPass:          get("SURREAL_PASS", ""),

		DistrictsAPIURL:  get("DISTRICTS_API_URL", ""),
		MetricsEnabled:   parseBool(get("METRICS_ENABLED", ""), true),
		TracingEnabled:   parseBool(get("PUBSUB_TRACING_ENABLED", ""), false),
		TracingZipkinURL: get("PUBSUB_TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
	}
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		log.Printf("Ignoring invalid float value %q", s)
		return def
	}
	return v
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Ignoring invalid bool value %q", s)
		return def
	}
	return v
}

func parseUint(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Printf("Ignoring invalid integer value %q", s)
		return def
	}
	return v
}

func (c *Config) GetAppAddr() string         { return c.AppAddr }
func (c *Config) GetAppBaseURL() string      { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string   { return c.SessionSecret }
func (c *Config) GetPhaseTimeScale() float64 { return c.PhaseTimeScale }
func (c *Config) GetPhaseGuards() bool       { return c.PhaseGuards }
func (c *Config) GetRandomSeed() uint64      { return c.RandomSeed }
func (c *Config) GetCatalogPath() string     { return c.CatalogPath }
func (c *Config) GetRealityScript() string   { return c.RealityScript }
func (c *Config) GetSnapshotBackend() string { return c.SnapshotBackend }
func (c *Config) GetSnapshotDir() string     { return c.SnapshotDir }
func (c *Config) GetDBUrl() string           { return c.DBUrl }
func (c *Config) GetDBNs() string            { return c.DBNs }
func (c *Config) GetDBDb() string            { return c.DBDb }
func (c *Config) GetDBUser() string          { return c.DBUser }
func (c *Config) GetDBPass() string          { return c.DBPass }
func (c *Config) GetDistrictsAPIURL() string { return c.DistrictsAPIURL }
func (c *Config) GetMetricsEnabled() bool    { return c.MetricsEnabled }
func (c *Config) GetTracingEnabled() bool    { return c.TracingEnabled }
func (c *Config) GetTracingZipkinURL() string {
	return c.TracingZipkinURL
}
