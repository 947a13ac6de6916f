package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vcscsvcscs/runcoach/internal/security"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBlob     = "blob"
	DriverS3       = "s3"
	DriverMongo    = "mongo"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Storage StorageConfig
	Audit   AuditConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// AIConfig selects the chat completion backend used for plans and chat
type AIConfig struct {
	Provider    string // azure or openai
	Endpoint    string
	APIKey      string
	Model       string // deployment name on azure
	APIVersion  string
	Temperature float64
	MaxRetries  int
	BaseDelay   time.Duration
	PlanWeeks   int
}

// StorageConfig selects where the profile and plan slots live
type StorageConfig struct {
	Driver        string
	EncryptionKey string // hex or base64, 32 bytes; empty disables encryption
	File          FileStorageConfig
	Postgres      PostgresStorageConfig
	Blob          BlobStorageConfig
	S3            S3StorageConfig
	Mongo         MongoStorageConfig
}

type FileStorageConfig struct {
	Dir string
}

type PostgresStorageConfig struct {
	URL string
}

// BlobStorageConfig holds Azure Blob Storage configuration. It is also used to
// archive exported reports when ArchiveReports is set.
type BlobStorageConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
	Container        string
	ArchiveReports   bool
}

type S3StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

type MongoStorageConfig struct {
	URI        string
	Database   string
	Collection string
}

// AuditConfig enables the Postgres audit sink when DatabaseURL is set
type AuditConfig struct {
	DatabaseURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	// AI defaults
	v.SetDefault("ai.provider", "azure")
	v.SetDefault("ai.apiversion", "2024-08-01-preview")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxretries", 3)
	v.SetDefault("ai.basedelay", time.Second)
	v.SetDefault("ai.planweeks", 4)

	// Storage defaults
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.file.dir", "./data")
	v.SetDefault("storage.blob.container", "runcoach-state")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "runcoach/")
	v.SetDefault("storage.mongo.database", "runcoach")
	v.SetDefault("storage.mongo.collection", "session_state")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	_ = v.BindEnv("server.shutdowntimeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("server.allowedorigins", "CORS_ALLOWED_ORIGINS")

	// AI
	_ = v.BindEnv("ai.provider", "AI_PROVIDER")
	_ = v.BindEnv("ai.endpoint", "AZURE_OPENAI_ENDPOINT", "OPENAI_BASE_URL")
	_ = v.BindEnv("ai.apikey", "AZURE_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.model", "AZURE_OPENAI_DEPLOYMENT", "OPENAI_MODEL")
	_ = v.BindEnv("ai.apiversion", "AZURE_OPENAI_API_VERSION")
	_ = v.BindEnv("ai.temperature", "AI_TEMPERATURE")
	_ = v.BindEnv("ai.maxretries", "AI_MAX_RETRIES")
	_ = v.BindEnv("ai.basedelay", "AI_BASE_DELAY")
	_ = v.BindEnv("ai.planweeks", "PLAN_WEEKS")

	// Storage
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.encryptionkey", "STATE_ENCRYPTION_KEY")
	_ = v.BindEnv("storage.file.dir", "STATE_DIR")
	_ = v.BindEnv("storage.postgres.url", "DATABASE_URL")
	_ = v.BindEnv("storage.blob.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	_ = v.BindEnv("storage.blob.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	_ = v.BindEnv("storage.blob.connectionstring", "AZURE_STORAGE_CONNECTION_STRING")
	_ = v.BindEnv("storage.blob.container", "AZURE_STORAGE_CONTAINER")
	_ = v.BindEnv("storage.blob.archivereports", "ARCHIVE_REPORTS")
	_ = v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("storage.s3.region", "AWS_REGION")
	_ = v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	_ = v.BindEnv("storage.s3.prefix", "S3_PREFIX")
	_ = v.BindEnv("storage.s3.accesskeyid", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.s3.secretaccesskey", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("storage.mongo.uri", "MONGO_URI")
	_ = v.BindEnv("storage.mongo.database", "MONGO_DATABASE")
	_ = v.BindEnv("storage.mongo.collection", "MONGO_COLLECTION")

	// Audit
	_ = v.BindEnv("audit.databaseurl", "AUDIT_DATABASE_URL")

	// Logging
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch c.AI.Provider {
	case "azure":
		if c.AI.Endpoint == "" {
			return fmt.Errorf("ai.endpoint is required for the azure provider")
		}
	case "openai":
	default:
		return fmt.Errorf("ai.provider must be azure or openai, got %q", c.AI.Provider)
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.apikey is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.AI.PlanWeeks < 1 || c.AI.PlanWeeks > 52 {
		return fmt.Errorf("ai.planweeks must be between 1 and 52, got %d", c.AI.PlanWeeks)
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func (s StorageConfig) validate() error {
	switch s.Driver {
	case DriverMemory:
	case DriverFile:
		if s.File.Dir == "" {
			return fmt.Errorf("storage.file.dir is required for the file driver")
		}
	case DriverPostgres:
		if s.Postgres.URL == "" {
			return fmt.Errorf("storage.postgres.url is required for the postgres driver")
		}
	case DriverBlob:
		if !s.Blob.hasCredentials() {
			return fmt.Errorf("azure storage credentials are required (either connection string or account name + key)")
		}
	case DriverS3:
		if s.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	case DriverMongo:
		if s.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}

	if s.Blob.ArchiveReports && !s.Blob.hasCredentials() {
		return fmt.Errorf("report archiving requires azure storage credentials")
	}

	if s.EncryptionKey != "" {
		if _, err := security.ParseKey(s.EncryptionKey); err != nil {
			return fmt.Errorf("storage.encryptionkey: %w", err)
		}
	}
	return nil
}

func (b BlobStorageConfig) hasCredentials() bool {
	return b.ConnectionString != "" || (b.AccountName != "" && b.AccountKey != "")
}
