package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Valkey    ValkeyConfig
	MinIO     MinIOConfig
	S3        S3Config
	Git       GitConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type S3Config struct {
	Region   string // S3_REGION
	Bucket   string // S3_BUCKET
	Prefix   string // S3_PREFIX (optional default prefix)
	Endpoint string // S3_ENDPOINT (for MinIO/LocalStack compatibility)
}

type GitConfig struct {
	Token         string // GIT_TOKEN, injected into https clone URLs
	Branch        string
	WorkRoot      string // checkouts for git/upload/s3 sources live under this directory
	WebhookSecret string // GIT_WEBHOOK_SECRET; push webhooks are disabled when empty
}

// Lock backends accepted by SyncConfig.LockBackend.
const (
	LockBackendPostgres = "postgres"
	LockBackendValkey   = "valkey"
	LockBackendFile     = "file"
	LockBackendMemory   = "memory"
)

type SyncConfig struct {
	LockBackend       string
	LockDir           string        // used by the file backend
	LockTTL           time.Duration // used by the valkey backend
	ParallelInstances bool
	Profile           bool // PROFILE_SYNC: log per-stage timings
}

type SchedulerConfig struct {
	Interval   time.Duration
	CourseDirs []string
}

type LogConfig struct {
	Level      string
	Format     string // json or text
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SECS", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SECS", 300)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "coursesync"),
			Password: getEnv("DB_PASSWORD", "coursesync"),
			Name:     getEnv("DB_NAME", "coursesync"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			DB:       getEnvInt("VALKEY_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "coursesync"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "coursesync123"),
			Bucket:    getEnv("MINIO_BUCKET", "course-uploads"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		S3: S3Config{
			Region:   getEnv("S3_REGION", ""),
			Bucket:   getEnv("S3_BUCKET", ""),
			Prefix:   getEnv("S3_PREFIX", ""),
			Endpoint: getEnv("S3_ENDPOINT", ""),
		},
		Git: GitConfig{
			Token:         getEnv("GIT_TOKEN", ""),
			Branch:        getEnv("GIT_BRANCH", "master"),
			WorkRoot:      getEnv("COURSE_WORK_ROOT", "/var/lib/coursesync/courses"),
			WebhookSecret: getEnv("GIT_WEBHOOK_SECRET", ""),
		},
		Sync: SyncConfig{
			LockBackend:       getEnv("SYNC_LOCK_BACKEND", LockBackendPostgres),
			LockDir:           getEnv("SYNC_LOCK_DIR", os.TempDir()),
			LockTTL:           time.Duration(getEnvInt("SYNC_LOCK_TTL_SECS", 600)) * time.Second,
			ParallelInstances: getEnvBool("SYNC_PARALLEL_INSTANCES", false),
			Profile:           getEnvBool("PROFILE_SYNC", false),
		},
		Scheduler: SchedulerConfig{
			Interval:   time.Duration(getEnvInt("SCHEDULER_INTERVAL_SECS", 900)) * time.Second,
			CourseDirs: getEnvList("SCHEDULER_COURSE_DIRS"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		},
	}

	switch cfg.Sync.LockBackend {
	case LockBackendPostgres, LockBackendValkey, LockBackendFile, LockBackendMemory:
	default:
		return nil, fmt.Errorf("unknown SYNC_LOCK_BACKEND %q", cfg.Sync.LockBackend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
