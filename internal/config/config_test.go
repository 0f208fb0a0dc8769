package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "NEWSAPI_BASE_URL", "FETCH_MIN_INTERVAL", "FETCH_LOCK_TTL"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.DB.Host != "localhost" {
		t.Errorf("DB.Host = %q, want localhost", cfg.DB.Host)
	}
	if cfg.NewsAPI.BaseURL != "https://newsapi.org/v2" {
		t.Errorf("NewsAPI.BaseURL = %q", cfg.NewsAPI.BaseURL)
	}
	if cfg.Fetch.MinInterval != 10*time.Minute {
		t.Errorf("Fetch.MinInterval = %v, want 10m", cfg.Fetch.MinInterval)
	}
	if cfg.Fetch.LockTTL != 15*time.Minute {
		t.Errorf("Fetch.LockTTL = %v, want 15m", cfg.Fetch.LockTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("NEWSAPI_KEY", "abc123")
	t.Setenv("FETCH_MIN_INTERVAL", "5m")

	cfg := Load()

	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.Port != 5433 {
		t.Errorf("DB.Port = %d, want 5433", cfg.DB.Port)
	}
	if cfg.NewsAPI.Key != "abc123" {
		t.Errorf("NewsAPI.Key = %q", cfg.NewsAPI.Key)
	}
	if cfg.Fetch.MinInterval != 5*time.Minute {
		t.Errorf("Fetch.MinInterval = %v, want 5m", cfg.Fetch.MinInterval)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("FETCH_MIN_INTERVAL", "soon")

	cfg := Load()
	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want default 5432", cfg.DB.Port)
	}
	if cfg.Fetch.MinInterval != 10*time.Minute {
		t.Errorf("Fetch.MinInterval = %v, want default 10m", cfg.Fetch.MinInterval)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		DB:       DBConfig{Host: "localhost", DBName: "newsdesk"},
		NewsAPI:  ProviderConfig{Key: "k", BaseURL: "https://newsapi.org/v2"},
		Guardian: ProviderConfig{Key: "k", BaseURL: "https://content.guardianapis.com"},
		NYT:      ProviderConfig{Key: "k", BaseURL: "https://api.nytimes.com/svc/search/v2"},
	}
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("complete config reported problems: %v", problems)
	}

	cfg.Guardian.Key = ""
	cfg.NYT.BaseURL = ""
	problems := cfg.Validate()
	if len(problems) != 2 {
		t.Fatalf("got %d problems, want 2: %v", len(problems), problems)
	}
	if !strings.Contains(problems[0], "GUARDIAN_API_KEY") {
		t.Errorf("first problem = %q, want mention of GUARDIAN_API_KEY", problems[0])
	}
	if !strings.Contains(problems[1], "base URL") {
		t.Errorf("second problem = %q, want mention of base URL", problems[1])
	}
}

func TestDBConfigDSN(t *testing.T) {
	c := DBConfig{Host: "localhost", Port: 5432, User: "u", Pass: "p", DBName: "d", SSLMode: "disable"}
	want := "postgres://u:p@localhost:5432/d?sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
