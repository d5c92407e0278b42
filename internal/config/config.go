package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	App       AppConfig
	Log       LogConfig
	Storage   StorageConfig
	Workflow  WorkflowConfig
	Admin     AdminConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// EmailConfig holds SMTP configuration for rapporteur notifications
type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration.
// With a RedisURL the limit is shared between instances.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
	RedisURL string
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env         string
	Name        string
	Version     string
	Institution InstitutionConfig
}

// InstitutionConfig is printed in the header of generated documents
type InstitutionConfig struct {
	Country    string
	University string
	Faculty    string
	City       string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Storage drivers
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageConfig selects where uploaded and generated files live
type StorageConfig struct {
	Driver        string
	LocalDir      string
	MaxUploadSize int64

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// WorkflowConfig holds workflow engine settings
type WorkflowConfig struct {
	MinRapporteurs int
}

// SchedulerConfig holds the reminder jobs configuration
type SchedulerConfig struct {
	EvaluationReminderCron    string // e.g., "0 9 * * 1" (Monday 9 AM)
	DefenseReminderCron       string // e.g., "0 8 * * *" (Daily 8 AM)
	EvaluationReminderDays    int    // evaluations open longer than this are reminded
	DefenseNoticeDays         int    // first defense notice, the second goes out the day before
	EnableEvaluationReminders bool
	EnableDefenseReminders    bool
}

// AdminConfig is the account created on first start
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 30*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "hutracker"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "hutracker_db"),
			SSLMode:         getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		},
		Email: EmailConfig{
			Enabled:      getBoolEnv("EMAIL_ENABLED", false),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:     getEnv("SMTP_FROM", "noreply@fpo.ma"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			ExposedHeaders:   getSliceEnv("CORS_EXPOSED_HEADERS", []string{"Content-Disposition"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", 1*time.Minute),
			RedisURL: getEnv("RATE_LIMIT_REDIS_URL", ""),
		},
		App: AppConfig{
			Env:     getEnv("APP_ENV", "development"),
			Name:    getEnv("APP_NAME", "HU Tracker"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Institution: InstitutionConfig{
				Country:    getEnv("INSTITUTION_COUNTRY", "ROYAUME DU MAROC"),
				University: getEnv("INSTITUTION_UNIVERSITY", "Université Ibn Zohr"),
				Faculty:    getEnv("INSTITUTION_FACULTY", "Faculté Polydisciplinaire d'Ouarzazate"),
				City:       getEnv("INSTITUTION_CITY", "Ouarzazate"),
			},
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			MaxUploadSize: getInt64Env("STORAGE_MAX_UPLOAD_SIZE", 10<<20),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		},
		Workflow: WorkflowConfig{
			MinRapporteurs: getIntEnv("WORKFLOW_MIN_RAPPORTEURS", 2),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@fpo.ma"),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrateur"),
		},
		Scheduler: SchedulerConfig{
			EvaluationReminderCron:    getEnv("SCHEDULER_EVALUATION_REMINDER_CRON", "0 9 * * 1"),
			DefenseReminderCron:       getEnv("SCHEDULER_DEFENSE_REMINDER_CRON", "0 8 * * *"),
			EvaluationReminderDays:    getIntEnv("SCHEDULER_EVALUATION_REMINDER_DAYS", 30),
			DefenseNoticeDays:         getIntEnv("SCHEDULER_DEFENSE_NOTICE_DAYS", 7),
			EnableEvaluationReminders: getBoolEnv("SCHEDULER_ENABLE_EVALUATION_REMINDERS", true),
			EnableDefenseReminders:    getBoolEnv("SCHEDULER_ENABLE_DEFENSE_REMINDERS", true),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Password == "" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR is required for the local storage driver")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (expected local or s3)", c.Storage.Driver)
	}
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("STORAGE_MAX_UPLOAD_SIZE must be positive")
	}
	if c.Workflow.MinRapporteurs < 1 {
		return fmt.Errorf("WORKFLOW_MIN_RAPPORTEURS must be at least 1")
	}
	if c.Email.Enabled && c.Email.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is set")
	}
	return nil
}

// Address returns host:port for the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, v := range parts {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
