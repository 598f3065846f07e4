package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageBackendNone  = ""
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"

	MQBackendNone     = ""
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"

	// MemoryDatabaseURL selects the in-process user store.
	MemoryDatabaseURL = "memory://"
)

type Config struct {
	Env        string
	ServerPort int
	APIPrefix  string
	Log        LogConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Storage    StorageConfig
	MQ         MQConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete connection fields when set.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type AuthConfig struct {
	Secret          string
	Algorithm       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
	AuthBurst    int
}

type StorageConfig struct {
	Backend       string
	PublicBaseURL string
	Minio         MinioConfig
	GCS           GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "capoo"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "capoo_db"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	authConfig := AuthConfig{
		Secret:          strings.TrimSpace(getEnv("JWT_SECRET", "")),
		Algorithm:       getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:      getEnvInt("BCRYPT_COST", 0),
	}

	return Config{
		Env:        getEnv("ENV", "prod"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		APIPrefix:  getEnv("API_PREFIX", "/api"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: dbConfig,
		Auth:     authConfig,
		RateLimit: RateLimitConfig{
			AuthRequests: getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 20),
			AuthWindow:   getEnvDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			AuthBurst:    getEnvInt("RATE_LIMIT_AUTH_BURST", 10),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendNone)),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "capoo-avatars"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Backend: strings.ToLower(getEnv("MQ_BACKEND", MQBackendNone)),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
	}
}

// Validate reports the first setting that would keep the server from starting.
func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/': %q", c.APIPrefix)
	}
	switch c.Storage.Backend {
	case StorageBackendNone, StorageBackendMinio, StorageBackendGCS:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.MQ.Backend {
	case MQBackendNone, MQBackendRabbitMQ, MQBackendPubSub:
	default:
		return fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend)
	}
	return nil
}

// DSN returns the postgres connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	if strings.TrimSpace(d.URL) != "" {
		return d.URL
	}

	sslmode := "disable"
	if d.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		User:   url.UserPassword(d.User, d.Password),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

// InMemory reports whether the in-process user store was requested.
func (d DatabaseConfig) InMemory() bool {
	return strings.TrimSpace(d.URL) == MemoryDatabaseURL
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
