package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedHosts []string
	AuthMaxAttempts  int

	DB      DatabaseConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Storage StorageConfig
	Worker  WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// CatalogConfig bounds option/variant sizes and storefront caching.
type CatalogConfig struct {
	MaxCombinations int      `toml:"max_combinations"`
	MaxOptions      int      `toml:"max_options"`
	MaxValues       int      `toml:"max_values_per_option"`
	CacheTTL        Duration `toml:"product_cache_ttl"`
}

// StorageConfig selects and configures the variant image backend.
type StorageConfig struct {
	Driver          string
	LocalDir        string
	LocalURLPrefix  string
	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
	MaxUploadBytes  int64
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	CacheWarmInterval time.Duration
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// fileConfig is the shape of the optional TOML file.
type fileConfig struct {
	Catalog CatalogConfig `toml:"catalog"`
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. Catalog limits may also come
// from the TOML file named by CONFIG_FILE; environment variables take precedence.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSAllowedHosts = splitList(getEnv("CORS_ALLOWED_HOSTS", ""))
	cfg.AuthMaxAttempts = getEnvInt("AUTH_MAX_ATTEMPTS", 5)

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Enabled:  getEnv("REDIS_ENABLED", "true") != "false",
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Catalog: defaults, then TOML file, then env
	cfg.Catalog = CatalogConfig{
		MaxCombinations: 1000,
		MaxOptions:      10,
		MaxValues:       50,
		CacheTTL:        Duration(10 * time.Minute),
	}
	if err := loadTOML(getEnv("CONFIG_FILE", "config/catalog.toml"), &cfg.Catalog); err != nil {
		return nil, fmt.Errorf("invalid CONFIG_FILE: %w", err)
	}
	cfg.Catalog.MaxCombinations = getEnvInt("VARIANT_MAX_COMBINATIONS", cfg.Catalog.MaxCombinations)
	cfg.Catalog.MaxOptions = getEnvInt("VARIANT_MAX_OPTIONS", cfg.Catalog.MaxOptions)
	cfg.Catalog.MaxValues = getEnvInt("VARIANT_MAX_VALUES", cfg.Catalog.MaxValues)

	// Storage
	cfg.Storage = StorageConfig{
		Driver:          getEnv("STORAGE_DRIVER", "local"),
		LocalDir:        getEnv("LOCAL_UPLOAD_DIR", "./storage/uploads"),
		LocalURLPrefix:  getEnv("LOCAL_UPLOAD_URL_PREFIX", "/uploads"),
		S3Region:        getEnv("S3_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", "variants"),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		MaxUploadBytes:  int64(getEnvInt("UPLOAD_MAX_BYTES", 5<<20)),
	}

	// Durations
	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	ttl, err := parseDurationEnv("PRODUCT_CACHE_TTL", cfg.Catalog.CacheTTL.Duration().String())
	if err != nil {
		return nil, fmt.Errorf("invalid PRODUCT_CACHE_TTL: %w", err)
	}
	cfg.Catalog.CacheTTL = Duration(ttl)
	if cfg.Worker.CacheWarmInterval, err = parseDurationEnv("CACHE_WARM_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_WARM_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if cfg.Catalog.MaxCombinations <= 0 || cfg.Catalog.MaxOptions <= 0 || cfg.Catalog.MaxValues <= 0 {
		return nil, errors.New("catalog limits must be greater than zero")
	}
	if cfg.Storage.Driver != "local" && cfg.Storage.Driver != "s3" {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Storage.Driver)
	}

	return cfg, nil
}

// loadTOML decodes the [catalog] table of path into dst. A missing file is not an error.
func loadTOML(path string, dst *CatalogConfig) error {
	if path == "" {
		return nil
	}
	fc := fileConfig{Catalog: *dst}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	*dst = fc.Catalog
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
