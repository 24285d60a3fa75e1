package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "github.com/abdoelngaar-maker/housing-management/common/config"

	"github.com/joho/godotenv"
)

// Config is the housing-data (HTTP API) configuration.
type Config struct {
	HTTP struct {
		Addr           string
		RateLimitRPM   int      // per client IP, 0 disables
		CORSOrigins    []string // empty disables CORS headers
		MaxUploadBytes int64
	}
	DBEnabled     bool
	DBAutoMigrate bool
	Database      commoncfg.DatabaseConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig

	MQTT MQTTConfig

	Log struct {
		Level  string
		Format string
		File   string
	}

	Auth struct {
		// JWTSecret signs HS256 bearer tokens. Empty runs in open dev mode with a global admin caller.
		JWTSecret string
	}

	OCR      OCRConfig
	Insights InsightsConfig
	Storage  StorageConfig

	Dashboard struct {
		CacheTTL time.Duration
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // cron spec
	}
}

// MQTTConfig enables notification fan-out to a broker.
type MQTTConfig struct {
	Enabled bool
	commoncfg.MQTTConfig
	Topic string
}

// OCRConfig points to the identity-document extraction service.
type OCRConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	ReviewThreshold int // confidence below this is flagged for manual review
}

// InsightsConfig points to an OpenAI-compatible chat completions API.
type InsightsConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// StorageConfig selects S3 when S3Endpoint and S3Bucket are set, local disk otherwise.
type StorageConfig struct {
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	UploadDir   string
}

func (s StorageConfig) UseS3() bool {
	return s.S3Endpoint != "" && s.S3Bucket != ""
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.RateLimitRPM = parseInt(getEnv("RATE_LIMIT_RPM", "0"), 0)
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", ""))
	cfg.HTTP.MaxUploadBytes = int64(parseInt(getEnv("MAX_UPLOAD_MB", "10"), 10)) << 20

	// Default to true for local dev: if the DB is unavailable the service falls back to the memory store.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.DBAutoMigrate = getEnv("DB_AUTO_MIGRATE", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "housing")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Database.MaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "housing-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.ConnectTimeout = getEnvDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second)
	cfg.MQTT.PublishTimeout = getEnvDuration("MQTT_PUBLISH_TIMEOUT", 5*time.Second)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "housing/notifications")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.OCR.BaseURL = getEnv("OCR_BASE_URL", "")
	cfg.OCR.APIKey = getEnv("OCR_API_KEY", "")
	cfg.OCR.Timeout = getEnvDuration("OCR_TIMEOUT", 60*time.Second)
	cfg.OCR.ReviewThreshold = parseInt(getEnv("OCR_REVIEW_THRESHOLD", "80"), 80)

	cfg.Insights.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.Insights.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.Insights.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	cfg.Insights.Timeout = getEnvDuration("OPENAI_TIMEOUT", 60*time.Second)

	cfg.Storage.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.Storage.S3AccessKey = getEnv("S3_ACCESS_KEY", "")
	cfg.Storage.S3SecretKey = getEnv("S3_SECRET_KEY", "")
	cfg.Storage.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.Storage.S3Region = getEnv("S3_REGION", "auto")
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", "./uploads")

	cfg.Dashboard.CacheTTL = getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second)
	cfg.Reconcile.Enabled = getEnv("RECONCILE_ENABLED", "true") == "true"
	cfg.Reconcile.Schedule = getEnv("RECONCILE_SCHEDULE", "@hourly")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(s string) []string {
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
