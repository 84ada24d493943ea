package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	OfferAIBaseURL string
	OfferAIAPIKey  string
	OfferAITimeout time.Duration

	JobWorkers    int
	JobRunTimeout time.Duration
	JobInterval   time.Duration // 0 disables the in-process scheduler
	JobLockTTL    time.Duration

	RedisAddr     string // empty disables the distributed key lock
	RedisPassword string
	RedisDB       int

	S3ReportBucket     string // empty disables run-report archiving
	SNSSummaryTopicARN string // empty disables summary publishing

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins    []string // CORS allowed origins
	TrustProxyHeaders bool     // key rate limits by X-Forwarded-For; only behind a proxy that sets it
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	HeldCards         string
	Notifications     string
	UserNotifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			HeldCards:         getEnv("DYNAMO_TABLE_HELD_CARDS", "held_cards"),
			Notifications:     getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			UserNotifications: getEnv("DYNAMO_TABLE_USER_NOTIFICATIONS", "user_notifications"),
		},

		OfferAIBaseURL: getEnv("OFFER_AI_BASE_URL", "http://localhost:8090"),
		OfferAIAPIKey:  getEnv("OFFER_AI_API_KEY", ""),
		OfferAITimeout: getEnvDuration("OFFER_AI_TIMEOUT", 60*time.Second),

		JobWorkers:    getEnvInt("JOB_WORKERS", 4),
		JobRunTimeout: getEnvDuration("JOB_RUN_TIMEOUT", 10*time.Minute),
		JobInterval:   getEnvDuration("JOB_INTERVAL", 24*time.Hour),
		JobLockTTL:    getEnvDuration("JOB_LOCK_TTL", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		S3ReportBucket:     getEnv("S3_REPORT_BUCKET", ""),
		SNSSummaryTopicARN: getEnv("SNS_SUMMARY_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
