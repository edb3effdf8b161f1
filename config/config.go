package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	JWTSecret     string
	TokenTTL      time.Duration
	AllowedOrigin string

	// CollabStrict enables the case access check on join and surfaces
	// unauthorized status updates to the sender instead of dropping them.
	CollabStrict     bool
	HistoryLimit     int
	MessageRate      float64
	MessageBurst     int
	PresenceSchedule string
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the real environment wins anyway
	_ = godotenv.Load()

	conf := &Config{
		URL:              os.Getenv("DB_URI"),
		DatabaseName:     os.Getenv("DB_NAME"),
		BaseURL:          os.Getenv("BASE_URL"),
		Port:             envOr("PORT", "8080"),
		Env:              envOr("APP_ENV", "local"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         envDuration("JWT_TTL", time.Hour),
		AllowedOrigin:    envOr("FRONTEND_URL", "http://localhost:3030"),
		CollabStrict:     envBool("COLLAB_STRICT", false),
		HistoryLimit:     envInt("CHAT_HISTORY_LIMIT", 50),
		MessageRate:      envFloat("CHAT_MESSAGE_RATE", 5),
		MessageBurst:     envInt("CHAT_MESSAGE_BURST", 10),
		PresenceSchedule: envOr("PRESENCE_CRON", "@every 5m"),
	}

	//setup zap logger and replace default logger
	logger, err := setLogger(conf.Env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return conf
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
