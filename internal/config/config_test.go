package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JCDECAUX_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FETCH_INTERVAL", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("WEATHER_ENRICHMENT", "")
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("WEATHER_CONCURRENCY", "")
	t.Setenv("JCDECAUX_CONTRACT", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.FetchInterval != 5*time.Minute {
		t.Errorf("FetchInterval: got %s, want 5m", cfg.FetchInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout: got %s, want 30s", cfg.HTTPTimeout)
	}
	if cfg.StationsContract != "dublin" {
		t.Errorf("StationsContract: got %q", cfg.StationsContract)
	}
	if cfg.WeatherEnrichment {
		t.Error("WeatherEnrichment should default to off")
	}
	if cfg.WeatherConcurrency != 4 {
		t.Errorf("WeatherConcurrency: got %d, want 4", cfg.WeatherConcurrency)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL should be empty, got %q", cfg.DatabaseURL)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JCDECAUX_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing JCDECAUX_API_KEY")
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FETCH_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed FETCH_INTERVAL")
	}
}

func TestLoadEnrichmentNeedsWeatherKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WEATHER_ENRICHMENT", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when enrichment is on without a weather key")
	}

	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.WeatherEnrichment {
		t.Error("WeatherEnrichment should be on")
	}
}
