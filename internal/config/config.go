package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig is the explicitly constructed configuration object injected into
// every component; nothing reads the environment after Load returns.
type AppConfig struct {
	// DatabaseURL may be empty: the pipeline then captures each cycle's
	// batch to a file artifact instead of a store.
	DatabaseURL string

	StationsURL      string
	StationsAPIKey   string `validate:"required"`
	StationsContract string

	WeatherURL    string
	WeatherAPIKey string

	// WeatherEnrichment toggles the per-station weather sub-cycle.
	WeatherEnrichment  bool
	WeatherConcurrency int `validate:"gte=1"`

	FetchInterval time.Duration `validate:"gt=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	FallbackDir string
	Port        string
	MetricsAddr string
}

// Load reads configuration from environment variables (optionally .env) with
// sensible defaults, then validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StationsURL:      os.Getenv("STATIONS_URL"),
		StationsAPIKey:   os.Getenv("JCDECAUX_API_KEY"),
		StationsContract: getenvDefault("JCDECAUX_CONTRACT", "dublin"),
		WeatherURL:       os.Getenv("WEATHER_URL"),
		WeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
		FallbackDir:      getenvDefault("FALLBACK_DIR", "."),
		Port:             getenvDefault("PORT", "8080"),
		MetricsAddr:      getenvDefault("METRICS_ADDR", ":9090"),
	}

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.WeatherEnrichment = getenvBool("WEATHER_ENRICHMENT", false)
	cfg.WeatherConcurrency = getenvInt("WEATHER_CONCURRENCY", 4)

	if cfg.WeatherEnrichment && cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_ENRICHMENT requires OPENWEATHER_API_KEY")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
