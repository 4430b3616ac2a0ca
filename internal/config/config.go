package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string

	// Admin auth
	JWTSecret    string
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Scoring providers
	InferenceURL        string
	InferenceTimeout    time.Duration
	ImageWidth          int
	ImageHeight         int
	BrandReferencesPath string
	SimilarityThreshold float64

	// Flag enrichment
	GroqAPIKeys  []string
	GroqAPIURL   string
	GroqModels   []string
	GeminiAPIKey string
	GeminiModel  string
	AITimeout    time.Duration

	// Flag events
	FlagEvents        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	FlagEventsChannel string
	KafkaBrokers      []string
	FlagEventsTopic   string

	// Server
	Port        string
	CORSOrigins string
	LogLevel    string
	SentryDSN   string
	AppEnv      string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return &Config{
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "trustsafety"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "trustsafety.db"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		InferenceURL:        getEnv("INFERENCE_URL", ""),
		InferenceTimeout:    parseDuration(getEnv("INFERENCE_TIMEOUT", "5s"), 5*time.Second),
		ImageWidth:          parseInt(getEnv("IMAGE_WIDTH", "224"), 224),
		ImageHeight:         parseInt(getEnv("IMAGE_HEIGHT", "224"), 224),
		BrandReferencesPath: getEnv("BRAND_REFERENCES_PATH", ""),
		SimilarityThreshold: parseFloat(getEnv("SIMILARITY_THRESHOLD", "0.85"), 0.85),

		GroqAPIKeys:  splitCSV(getEnv("GROQ_API_KEYS", "")),
		GroqAPIURL:   getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GroqModels:   splitCSV(getEnv("GROQ_MODELS", "llama3-8b-8192,mixtral-8x7b-32768,llama-3.1-8b-instant,gemma2-9b-it")),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-8b"),
		AITimeout:    parseDuration(getEnv("AI_TIMEOUT", "20s"), 20*time.Second),

		FlagEvents:        strings.ToLower(getEnv("FLAG_EVENTS", "none")),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           parseInt(getEnv("REDIS_DB", "0"), 0),
		FlagEventsChannel: getEnv("FLAG_EVENTS_CHANNEL", "trustsafety.flags"),
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		FlagEventsTopic:   getEnv("FLAG_EVENTS_TOPIC", "trustsafety.flags"),

		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// UsesDatabase reports whether flags and listings are kept in a SQL store.
func (c *Config) UsesDatabase() bool {
	return c.StorageDriver == "postgres" || c.StorageDriver == "sqlite"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
