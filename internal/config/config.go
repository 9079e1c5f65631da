package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Minio     MinioConfig
	Labor     LaborConfig
	KPI       KPIConfig
	Rollup    RollupConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// RedisConfig enables the distributed recompute lock when Host is set.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig selects where exports are written: "local" or "minio".
type StorageConfig struct {
	Driver        string
	LocalPath     string
	LocalBaseURL  string
	URLExpiration time.Duration
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type LaborConfig struct {
	OvertimeThresholdHours decimal.Decimal
}

type KPIConfig struct {
	CalculationTimeout time.Duration
	Concurrency        int
	CatalogPath        string
	StatusPolicy       string
}

type RollupConfig struct {
	Concurrency     int
	LockTimeout     time.Duration
	ConflictRetries int
}

type SchedulerConfig struct {
	Enabled                bool
	RollupInterval         time.Duration
	KPIInterval            time.Duration
	OvertimeExpiryInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("No .env file found, using process environment")
	}

	config := &Config{}
	var errs []string
	intVar := func(key string, fallback int) int {
		v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durationVar := func(key string, fallback string) time.Duration {
		v, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     intVar("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "fleet_metrics"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(intVar("DB_MAX_CONNS", 10)),
	}

	// Application configuration
	config.App = AppConfig{
		Port:        intVar("APP_PORT", 8080),
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("APP_CORS_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     intVar("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       intVar("REDIS_DB", 0),
		LockTTL:  durationVar("REDIS_LOCK_TTL", "30s"),
	}

	config.Storage = StorageConfig{
		Driver:        getEnv("STORAGE_DRIVER", "local"),
		LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./storage"),
		LocalBaseURL:  getEnv("STORAGE_LOCAL_BASE_URL", "http://localhost:8080/files"),
		URLExpiration: durationVar("STORAGE_URL_EXPIRATION", "24h"),
	}

	config.Minio = MinioConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", ""),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		Bucket:    getEnv("MINIO_BUCKET", "fleet-exports"),
		UseSSL:    boolVar("MINIO_USE_SSL", false),
	}

	threshold, err := decimal.NewFromString(getEnv("OVERTIME_THRESHOLD_HOURS", "8"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid OVERTIME_THRESHOLD_HOURS: %v", err))
	}
	config.Labor = LaborConfig{OvertimeThresholdHours: threshold}

	config.KPI = KPIConfig{
		CalculationTimeout: durationVar("KPI_CALCULATION_TIMEOUT", "30s"),
		Concurrency:        intVar("KPI_CONCURRENCY", 4),
		CatalogPath:        getEnv("KPI_CATALOG_PATH", "configs/kpi_catalog.toml"),
		StatusPolicy:       getEnv("SCORECARD_STATUS_POLICY", "worst_case"),
	}

	config.Rollup = RollupConfig{
		Concurrency:     intVar("ROLLUP_CONCURRENCY", 8),
		LockTimeout:     durationVar("ROLLUP_LOCK_TIMEOUT", "5s"),
		ConflictRetries: intVar("ROLLUP_CONFLICT_RETRIES", 3),
	}

	config.Scheduler = SchedulerConfig{
		Enabled:                boolVar("SCHEDULER_ENABLED", true),
		RollupInterval:         durationVar("SCHEDULER_ROLLUP_INTERVAL", "24h"),
		KPIInterval:            durationVar("SCHEDULER_KPI_INTERVAL", "24h"),
		OvertimeExpiryInterval: durationVar("SCHEDULER_OVERTIME_EXPIRY_INTERVAL", "1h"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed: %s", strings.Join(errs, "; "))
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if !c.Labor.OvertimeThresholdHours.IsPositive() {
		return fmt.Errorf("OVERTIME_THRESHOLD_HOURS must be positive")
	}
	if c.KPI.CalculationTimeout <= 0 {
		return fmt.Errorf("KPI_CALCULATION_TIMEOUT must be positive")
	}
	switch c.KPI.StatusPolicy {
	case "worst_case", "majority":
	default:
		return fmt.Errorf("SCORECARD_STATUS_POLICY must be worst_case or majority")
	}
	switch c.Storage.Driver {
	case "local":
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be local or minio")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
