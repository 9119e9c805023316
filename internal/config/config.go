package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Drive   DriveConfig
	Mongo   MongoConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

// DriveConfig holds storage provider configuration
type DriveConfig struct {
	CredentialsFile string
	// RenameBackMaxElapsed bounds the retry window for restoring a file's
	// name after an upload.
	RenameBackMaxElapsed time.Duration
	OpTimeout            time.Duration
}

// MongoConfig holds metadata store configuration
type MongoConfig struct {
	URI       string
	Database  string
	OpTimeout time.Duration
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Provider        string // "memory" or "redis"
	TTL             time.Duration
	MaxKeys         int
	CleanupInterval time.Duration
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	PoolSize        int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, falling back to a .env
// file outside production.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:  loadServerConfig(env),
		Drive:   loadDriveConfig(),
		Mongo:   loadMongoConfig(),
		Cache:   loadCacheConfig(),
		Logging: loadLoggingConfig(env),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "0.0.0.0"),
		Environment:     env,
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 15*time.Second),
	}
}

func loadDriveConfig() DriveConfig {
	return DriveConfig{
		CredentialsFile:      getEnv("DRIVE_CREDENTIALS_FILE", "credentials.json"),
		RenameBackMaxElapsed: getDurationEnv("DRIVE_RENAME_BACK_MAX_ELAPSED", 30*time.Second),
		OpTimeout:            getDurationEnv("DRIVE_OP_TIMEOUT", 60*time.Second),
	}
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:  getEnv("MONGO_DATABASE", "drivevault"),
		OpTimeout: getDurationEnv("MONGO_OP_TIMEOUT", 10*time.Second),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:        getEnv("CACHE_PROVIDER", "memory"),
		TTL:             getDurationEnv("CACHE_TTL", 5*time.Minute),
		MaxKeys:         getIntEnv("CACHE_MAX_KEYS", 10000),
		CleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", time.Minute),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getIntEnv("REDIS_DB", 0),
		PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	level := "debug"
	if env == "production" {
		level = "info"
	}
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", level),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks the loaded configuration section by section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Drive.Validate(); err != nil {
		return fmt.Errorf("drive config: %w", err)
	}
	if err := c.Mongo.Validate(); err != nil {
		return fmt.Errorf("mongo config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(s.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	return nil
}

func (d *DriveConfig) Validate() error {
	if d.CredentialsFile == "" {
		return fmt.Errorf("DRIVE_CREDENTIALS_FILE is required")
	}
	if d.RenameBackMaxElapsed <= 0 {
		return fmt.Errorf("DRIVE_RENAME_BACK_MAX_ELAPSED must be positive")
	}
	return nil
}

func (m *MongoConfig) Validate() error {
	if m.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if m.Database == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	return nil
}

func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_PROVIDER must be \"memory\" or \"redis\"")
	}
	if c.Provider == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER is redis")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
