package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	EngineURL          string
	EngineWSURL        string
	MongoURI           string // empty disables the fund ledger
	MongoDatabase      string
	MongoCollection    string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
	PreviewTimeout     time.Duration
	ConfirmTimeout     time.Duration
	CreateTimeout      time.Duration
	ControlTimeout     time.Duration
	ErrorTTL           time.Duration
	RefreshBurst       int // push-storm limiter burst; refreshes per second is fixed at the burst refill rate
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8090"),
		EngineURL:          getEnv("ENGINE_URL", "http://localhost:8080"),
		EngineWSURL:        getEnv("ENGINE_WS_URL", "ws://localhost:8080/ws"),
		MongoURI:           getEnv("MONGO_URI", ""),
		MongoDatabase:      getEnv("MONGO_DB", "seedrush"),
		MongoCollection:    getEnv("MONGO_COLLECTION", "fund_ledger"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CORSAllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		PreviewTimeout:     getEnvSeconds("PREVIEW_TIMEOUT_SECONDS", 30),
		ConfirmTimeout:     getEnvSeconds("CONFIRM_TIMEOUT_SECONDS", 30),
		CreateTimeout:      getEnvSeconds("CREATE_TIMEOUT_SECONDS", 60),
		ControlTimeout:     getEnvSeconds("CONTROL_TIMEOUT_SECONDS", 30),
		ErrorTTL:           getEnvSeconds("ERROR_TTL_SECONDS", 3),
		RefreshBurst:       int(getEnvInt64("REFRESH_BURST", 5)),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvSeconds(key string, fallback int64) time.Duration {
	return time.Duration(getEnvInt64(key, fallback)) * time.Second
}

func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
