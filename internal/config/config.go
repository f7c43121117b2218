package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all backend configuration loaded from environment variables.
type Config struct {
	Port           string
	PublicURL      string
	CORSOrigins    []string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SessionTTL     time.Duration
	AdminEmail     string
	AdminPassword  string
	AdminUsername  string
	LogLevel       string
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Port:           getenv("PORT", "8080"),
		PublicURL:      strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:8080"), "/"),
		CORSOrigins:    getenvList("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "afisha"),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "event-images"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		SessionTTL:     getenvDuration("SESSION_TTL", 24*time.Hour),
		AdminEmail:     getenv("ADMIN_EMAIL", ""),
		AdminPassword:  getenv("ADMIN_PASSWORD", ""),
		AdminUsername:  getenv("ADMIN_USERNAME", "Администратор"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

// Client holds the CLI's configuration.
type Client struct {
	APIURL        string
	SessionFile   string
	SessionRedis  string
	HTTPTimeout   time.Duration
	AdminBypass   bool
	AdminEmail    string
	AdminPassword string
	AdminToken    string
}

// LoadClient reads a .env file when present, then the AFISHA_* environment.
func LoadClient() *Client {
	_ = godotenv.Load()
	return &Client{
		APIURL:        getenv("AFISHA_API_URL", "http://localhost:8080/api"),
		SessionFile:   getenv("AFISHA_SESSION_FILE", ""),
		SessionRedis:  getenv("AFISHA_SESSION_REDIS", ""),
		HTTPTimeout:   getenvDuration("AFISHA_HTTP_TIMEOUT", 15*time.Second),
		AdminBypass:   getenvBool("AFISHA_ADMIN_BYPASS", true),
		AdminEmail:    getenv("AFISHA_ADMIN_EMAIL", "jobes5620@gmail.com"),
		AdminPassword: getenv("AFISHA_ADMIN_PASSWORD", "shiksu"),
		AdminToken:    getenv("AFISHA_ADMIN_TOKEN", "admin-token-123456"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func getenvList(key, fallback string) []string {
	var out []string
	for _, s := range strings.Split(getenv(key, fallback), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
