package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FXFallbackPolicy controls what valuation does when no EUR/USD rate exists
// for a date. "unity" leaves the price unconverted; "last_known" reuses the
// most recent earlier rate. Either way the affected security gets a warning
// in the response.
type FXFallbackPolicy string

const (
	FXFallbackUnity     FXFallbackPolicy = "unity"
	FXFallbackLastKnown FXFallbackPolicy = "last_known"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	MarketDataBaseURL  string
	PriceLookupTimeout time.Duration
	LookupConcurrency  int
	HistoryStartDate   string // earliest date fetched for price/FX history

	FXFallback FXFallbackPolicy

	AllowedOrigins []string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	fxFallback := FXFallbackPolicy(getEnv("FX_FALLBACK_POLICY", string(FXFallbackUnity)))
	if fxFallback != FXFallbackUnity && fxFallback != FXFallbackLastKnown {
		log.Printf("WARNING: Unknown FX_FALLBACK_POLICY '%s'. Using '%s'.", fxFallback, FXFallbackUnity)
		fxFallback = FXFallbackUnity
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./stocks.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		MarketDataBaseURL:  getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
		PriceLookupTimeout: getEnvAsDuration("PRICE_LOOKUP_TIMEOUT", 20*time.Second),
		LookupConcurrency:  getEnvAsInt("LOOKUP_CONCURRENCY", 4),
		HistoryStartDate:   getEnv("HISTORY_START_DATE", "2010-01-01"),

		FXFallback: fxFallback,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, FXFallback=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.FXFallback)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
