package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names for AUTH_BACKEND.
const (
	BackendMock = "mock"
	BackendIDP  = "idp"
)

// Config centralizes configuration loaded from the environment.
type Config struct {
	Port        int
	AuthBackend string

	DBDSN      string
	RedisURL   string
	IDPBaseURL string
	IDPAPIKey  string

	JWTSecret    string
	JWTAccessTTL time.Duration
	RefreshTTL   time.Duration

	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
}

// RateLimitConfig holds simple throttling limits.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads environment variables and applies safe defaults.
//
// The mock backend needs nothing beyond the defaults; the idp backend
// requires the identity provider, database and redis settings.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT is invalid")
	}
	cfg.Port = port

	cfg.AuthBackend = strings.ToLower(strings.TrimSpace(getEnv("AUTH_BACKEND", BackendMock)))
	switch cfg.AuthBackend {
	case BackendMock, BackendIDP:
	default:
		return nil, errors.New("AUTH_BACKEND must be mock or idp")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL = refreshTTL

	cfg.DBDSN = getEnv("DB_DSN", "")
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.IDPBaseURL = strings.TrimRight(getEnv("IDP_BASE_URL", ""), "/")
	cfg.IDPAPIKey = strings.TrimSpace(getEnv("IDP_API_KEY", ""))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))

	if cfg.AuthBackend == BackendIDP {
		if cfg.DBDSN == "" {
			return nil, errors.New("DB_DSN is required with AUTH_BACKEND=idp")
		}
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required with AUTH_BACKEND=idp")
		}
		if cfg.IDPBaseURL == "" {
			return nil, errors.New("IDP_BASE_URL is required with AUTH_BACKEND=idp")
		}
		if cfg.IDPAPIKey == "" {
			return nil, errors.New("IDP_API_KEY is required with AUTH_BACKEND=idp")
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, errors.New("JWT_SECRET must have at least 32 characters")
		}
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " is invalid")
	}
	return dur, nil
}
