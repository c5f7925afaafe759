package app

import (
	"net"
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (PHARMACY_ prefix) or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PHARMACY_DATABASE_URL or DATABASE_URL)"`
	PathPrefix  string `default:"/api" usage:"Path prefix of the REST API"`
	Cart        CartConfig
	History     HistoryConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CartConfig controls cart session handling.
type CartConfig struct {
	RequireSession bool `default:"false" usage:"Reject bill requests without an X-Cart-ID header"`
}

// HistoryConfig controls paging of bill history and expenses.
type HistoryConfig struct {
	PageSize int `default:"10" usage:"Rows per history and expense page"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Rate  float64 `default:"0"  usage:"Requests per second per client, 0 disables"`
	Burst int     `default:"20" usage:"Burst size per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// LoadConfig reads .env when present, then environment variables and YAML
// config files, and finally applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PHARMACY",
		SkipFlags: true,
		Files:     []string{"config.yaml", "/etc/pharmacy/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PHARMACY_DATABASE_URL, DATABASE_URL or DB_HOST")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps unprefixed variables set by hosting platforms
// and by older deployments onto the configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = legacyDatabaseURL(getenv)
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// legacyDatabaseURL composes a URL from DB_HOST, DB_PORT, DB_USER,
// DB_PASSWORD and DB_NAME. It returns "" without DB_HOST.
func legacyDatabaseURL(getenv func(string) string) string {
	host := getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + getenv("DB_NAME"),
	}
	if user := getenv("DB_USER"); user != "" {
		u.User = url.UserPassword(user, getenv("DB_PASSWORD"))
	}
	return u.String()
}
