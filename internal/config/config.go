package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	AuthJWTIssuer string

	OTLPEndpoint string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	DefaultPlanName     string
	DefaultMonthlyLimit int

	GenerateRatePerMinute int
	ExportRatePerMinute   int
	IdempotencyTTL        time.Duration
	CleanupInterval       time.Duration

	AnthropicAPIKey     string
	GenerationModel     string
	GenerationTimeout   time.Duration
	GenerationMaxTokens int64
	GenerationRPM       float64

	RateLimit RateLimitConfig
}

// RateLimitConfig controls the optional redis-backed request perimeter.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PerimeterRate  float64
	PerimeterBurst int
	LockTTLSeconds int
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "copilot"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthJWTIssuer: strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "ngoinfo")),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "copilot"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		DefaultPlanName:     getenv("DEFAULT_PLAN_NAME", "free"),
		DefaultMonthlyLimit: getenvInt("DEFAULT_MONTHLY_LIMIT", 10),

		GenerateRatePerMinute: getenvInt("GENERATE_RATE_LIMIT_PER_MINUTE", 5),
		ExportRatePerMinute:   getenvInt("EXPORT_RATE_LIMIT_PER_MINUTE", 10),
		IdempotencyTTL:        time.Duration(getenvInt("IDEMPOTENCY_TTL_SECONDS", 600)) * time.Second,
		CleanupInterval:       time.Duration(getenvInt("CLEANUP_INTERVAL_SECONDS", 300)) * time.Second,

		AnthropicAPIKey:     strings.TrimSpace(getenv("ANTHROPIC_API_KEY", "")),
		GenerationModel:     getenv("GENERATION_MODEL", "claude-sonnet-4-5-20250929"),
		GenerationTimeout:   time.Duration(getenvInt("GENERATION_TIMEOUT_SECONDS", 120)) * time.Second,
		GenerationMaxTokens: int64(getenvInt("GENERATION_MAX_TOKENS", 4096)),
		GenerationRPM:       getenvFloat("GENERATION_REQUESTS_PER_MINUTE", 30),

		RateLimit: RateLimitConfig{
			Enabled:        getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:      strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword:  getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:        getenvInt("RATE_LIMIT_REDIS_DB", 0),
			PerimeterRate:  getenvFloat("RATE_LIMIT_PERIMETER_RATE", 20),
			PerimeterBurst: getenvInt("RATE_LIMIT_PERIMETER_BURST", 40),
			LockTTLSeconds: getenvInt("RATE_LIMIT_LOCK_TTL_SECONDS", 30),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
