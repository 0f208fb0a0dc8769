// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	DB       DBConfig
	Server   ServerConfig
	NewsAPI  ProviderConfig
	Guardian ProviderConfig
	NYT      ProviderConfig
	Fetch    FetchConfig
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	DBName  string
	SSLMode string
}

// DSN returns a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Pass +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.DBName + "?sslmode=" + c.SSLMode
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// ProviderConfig holds credentials and connection settings for one external
// news provider.
type ProviderConfig struct {
	Key     string
	BaseURL string
	Timeout time.Duration
}

// FetchConfig holds scheduling parameters for the fetch orchestrator.
type FetchConfig struct {
	// MinInterval is the run-gate throttle: a non-forced run is skipped if the
	// previous run started less than this long ago.
	MinInterval time.Duration
	// LockTTL bounds how long the cluster-wide fetch lock may be held. A crashed
	// worker releases the lock implicitly after this expires.
	LockTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Provider keys have no defaults; Validate reports them when missing.
func Load() Config {
	return Config{
		DB: DBConfig{
			Host:    envOr("DB_HOST", "localhost"),
			Port:    envOrInt("DB_PORT", 5432),
			User:    envOr("DB_USER", "newsdesk"),
			Pass:    envOr("DB_PASS", "newsdesk"),
			DBName:  envOr("DB_NAME", "newsdesk"),
			SSLMode: envOr("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", ":8080"),
			Host: envOr("SERVER_HOST", ""),
		},
		NewsAPI: ProviderConfig{
			Key:     os.Getenv("NEWSAPI_KEY"),
			BaseURL: envOr("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
			Timeout: envOrDuration("NEWSAPI_TIMEOUT", 30*time.Second),
		},
		Guardian: ProviderConfig{
			Key:     os.Getenv("GUARDIAN_API_KEY"),
			BaseURL: envOr("GUARDIAN_BASE_URL", "https://content.guardianapis.com"),
			Timeout: envOrDuration("GUARDIAN_TIMEOUT", 30*time.Second),
		},
		NYT: ProviderConfig{
			Key:     os.Getenv("NYT_API_KEY"),
			BaseURL: envOr("NYT_BASE_URL", "https://api.nytimes.com/svc/search/v2"),
			Timeout: envOrDuration("NYT_TIMEOUT", 30*time.Second),
		},
		Fetch: FetchConfig{
			MinInterval: envOrDuration("FETCH_MIN_INTERVAL", 10*time.Minute),
			LockTTL:     envOrDuration("FETCH_LOCK_TTL", 15*time.Minute),
		},
	}
}

// Validate checks that every provider has a key and base URL configured and
// returns one message per problem. An empty slice means the configuration is
// complete.
func (c Config) Validate() []string {
	var problems []string

	checks := []struct {
		name   string
		cfg    ProviderConfig
		keyVar string
	}{
		{"NewsAPI", c.NewsAPI, "NEWSAPI_KEY"},
		{"Guardian", c.Guardian, "GUARDIAN_API_KEY"},
		{"New York Times", c.NYT, "NYT_API_KEY"},
	}
	for _, ch := range checks {
		if ch.cfg.Key == "" {
			problems = append(problems, fmt.Sprintf("%s API key is missing (%s)", ch.name, ch.keyVar))
		}
		if ch.cfg.BaseURL == "" {
			problems = append(problems, fmt.Sprintf("%s base URL is missing", ch.name))
		}
	}

	if c.DB.Host == "" || c.DB.DBName == "" {
		problems = append(problems, "database configuration is invalid")
	}

	return problems
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
