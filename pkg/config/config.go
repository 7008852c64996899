package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Supported datastore backends
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendCouchDB  = "couchdb"
)

// DBConfig holds Postgres configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI          string
	Database     string
	Transactions bool
	Timeout      time.Duration
}

// DatabaseName returns the configured database, falling back to the last path segment of the URI.
func (c *MongoConfig) DatabaseName() string {
	if c.Database != "" {
		return c.Database
	}
	uri := c.URI
	if i := strings.Index(uri, "?"); i >= 0 {
		uri = uri[:i]
	}
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 && i < len(uri)-1 {
		return uri[i+1:]
	}
	return "restaurant"
}

// CouchConfig holds CouchDB configuration
type CouchConfig struct {
	URL      string
	Username string
	Password string
	DBPrefix string
}

// GetDSN returns the CouchDB URL with credentials embedded
func (c *CouchConfig) GetDSN() string {
	if c.Username == "" {
		return c.URL
	}
	scheme := "http://"
	host := c.URL
	if i := strings.Index(host, "://"); i >= 0 {
		scheme = host[:i+3]
		host = host[i+3:]
	}
	return scheme + c.Username + ":" + c.Password + "@" + host
}

// StoreConfig selects the datastore backend
type StoreConfig struct {
	Backend string
}

// RedisConfig holds cache configuration. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Enabled reports whether a Redis address is configured
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	PublicBaseURL   string
	ShutdownTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// SMTPConfig holds outgoing mail configuration. An empty Host logs mails instead of sending them.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// AuthConfig holds authentication tuning
type AuthConfig struct {
	RateLimit          float64
	ResetTokenTTL      time.Duration
	FaceMatchThreshold float64
}

// Config holds all configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	Store       StoreConfig
	DB          DBConfig
	Mongo       MongoConfig
	Couch       CouchConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	SMTP        SMTPConfig
	Auth        AuthConfig
}

// Load loads configuration from a .env file (when present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; the process environment still applies
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	serviceName := getEnv("SERVICE_NAME", "restaurant-service")
	env := getEnv("APP_ENV", "development")

	config := &Config{
		ServiceName: serviceName,
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             env,
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "restaurant"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Mongo: MongoConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017/restaurant"),
			Database:     getEnv("MONGODB_DB", ""),
			Transactions: getEnvAsBool("MONGO_TRANSACTIONS", true),
			Timeout:      getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Couch: CouchConfig{
			URL:      getEnv("COUCHDB_URL", "http://localhost:5984"),
			Username: getEnv("COUCHDB_USERNAME", "admin"),
			Password: getEnv("COUCHDB_PASSWORD", "password"),
			DBPrefix: getEnv("COUCHDB_DB_PREFIX", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "restaurant:"),
			TTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: env,
			ServiceName: serviceName,
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "restaurant"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@restaurant.local"),
		},
		Auth: AuthConfig{
			RateLimit:          getEnvAsFloat("AUTH_RATE_LIMIT", 5),
			ResetTokenTTL:      getEnvAsDuration("RESET_TOKEN_TTL", 10*time.Minute),
			FaceMatchThreshold: getEnvAsFloat("FACE_MATCH_THRESHOLD", 0.6),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendMongo, BackendCouchDB:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (want %s, %s or %s)",
			c.Store.Backend, BackendPostgres, BackendMongo, BackendCouchDB)
	}
	if c.JWT.SigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must not be empty")
	}
	if c.JWT.ExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	fields := []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_backend", c.Store.Backend),
		zap.Bool("cache_enabled", c.Redis.Enabled()),
	}
	switch c.Store.Backend {
	case BackendPostgres:
		fields = append(fields,
			zap.String("db_host", c.DB.Host),
			zap.String("db_port", c.DB.Port),
			zap.String("db_user", c.DB.User),
			zap.String("db_name", c.DB.DBName))
	case BackendMongo:
		fields = append(fields,
			zap.String("mongo_db", c.Mongo.DatabaseName()),
			zap.Bool("mongo_transactions", c.Mongo.Transactions))
	case BackendCouchDB:
		fields = append(fields,
			zap.String("couchdb_url", c.Couch.URL),
			zap.String("couchdb_user", c.Couch.Username))
	}
	return fields
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
