package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Kevin42127/TinyLink/pkg/generator"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Shortener ShortenerConfig
	Sweeper   SweeperConfig
	NATS      NATSConfig
}

type ServerConfig struct {
	Port               string
	BaseURL            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
	Addr     string
}

type ShortenerConfig struct {
	CodeLength          int
	Denylist            []string
	HistoryDefaultLimit int
	HistoryMaxLimit     int
	BatchMaxItems       int
}

type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NATSConfig is disabled when URL is empty.
type NATSConfig struct {
	URL          string
	SweepSubject string
	QueueGroup   string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_PATH", "")
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE", 28)
	v.SetDefault("LOG_COMPRESS", true)

	v.SetDefault("SQLITE_PATH", "./data/shorturls.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "root")
	v.SetDefault("DB_NAME", "tinylink")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", 30*time.Minute)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_CACHE_TTL", time.Hour)

	v.SetDefault("SHORTENER_CODE_LENGTH", generator.DefaultLength)
	v.SetDefault("SHORTENER_DENYLIST", "malware.com,phishing-site.com,suspicious-domain.com")
	v.SetDefault("HISTORY_DEFAULT_LIMIT", 20)
	v.SetDefault("HISTORY_MAX_LIMIT", 100)
	v.SetDefault("BATCH_MAX_ITEMS", 10)

	v.SetDefault("SWEEPER_ENABLED", true)
	v.SetDefault("SWEEPER_INTERVAL", time.Hour)

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SWEEP_SUBJECT", "tinylink.sweep")
	v.SetDefault("NATS_QUEUE_GROUP", "tinylink-sweepers")

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, using environment and default values")
	}

	dbConfig := DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetString("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		MaxConns:        v.GetInt32("DB_MAX_CONNS"),
		MinConns:        v.GetInt32("DB_MIN_CONNS"),
		MaxConnLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
	}

	dbConfig.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Name,
	)

	redisConfig := RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetString("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		CacheTTL: v.GetDuration("REDIS_CACHE_TTL"),
	}

	redisConfig.Addr = fmt.Sprintf("%s:%s", redisConfig.Host, redisConfig.Port)

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			BaseURL:            strings.TrimRight(v.GetString("SERVER_BASE_URL"), "/"),
			ReadTimeout:        v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:       v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout:    v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT_PATH"),
			MaxSize:    v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     v.GetInt("LOG_MAX_AGE"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},
		Store: StoreConfig{
			Driver:     storeDriver(v),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Database: dbConfig,
		Redis:    redisConfig,
		Shortener: ShortenerConfig{
			CodeLength:          v.GetInt("SHORTENER_CODE_LENGTH"),
			Denylist:            splitList(v.GetString("SHORTENER_DENYLIST")),
			HistoryDefaultLimit: v.GetInt("HISTORY_DEFAULT_LIMIT"),
			HistoryMaxLimit:     v.GetInt("HISTORY_MAX_LIMIT"),
			BatchMaxItems:       v.GetInt("BATCH_MAX_ITEMS"),
		},
		Sweeper: SweeperConfig{
			Enabled:  v.GetBool("SWEEPER_ENABLED"),
			Interval: v.GetDuration("SWEEPER_INTERVAL"),
		},
		NATS: NATSConfig{
			URL:          v.GetString("NATS_URL"),
			SweepSubject: v.GetString("NATS_SWEEP_SUBJECT"),
			QueueGroup:   v.GetString("NATS_QUEUE_GROUP"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// storeDriver falls back to the in-memory store on ephemeral platforms
// (VERCEL is set) when no driver is configured.
func storeDriver(v *viper.Viper) string {
	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))
	if driver != "" {
		return driver
	}
	if v.GetString("VERCEL") != "" {
		return DriverMemory
	}
	return DriverSQLite
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Shortener.CodeLength < generator.MinLength || c.Shortener.CodeLength > generator.MaxLength {
		errs = append(errs, fmt.Errorf("SHORTENER_CODE_LENGTH must be between %d and %d", generator.MinLength, generator.MaxLength))
	}
	if c.Shortener.HistoryDefaultLimit <= 0 || c.Shortener.HistoryMaxLimit <= 0 {
		errs = append(errs, errors.New("history limits must be positive"))
	} else if c.Shortener.HistoryDefaultLimit > c.Shortener.HistoryMaxLimit {
		errs = append(errs, errors.New("HISTORY_DEFAULT_LIMIT must not exceed HISTORY_MAX_LIMIT"))
	}
	if c.Shortener.BatchMaxItems <= 0 {
		errs = append(errs, errors.New("BATCH_MAX_ITEMS must be positive"))
	}

	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		errs = append(errs, errors.New("SWEEPER_INTERVAL must be positive"))
	}
	if c.Redis.Enabled && c.Redis.CacheTTL <= 0 {
		errs = append(errs, errors.New("REDIS_CACHE_TTL must be positive"))
	}
	if c.NATS.URL != "" && c.NATS.SweepSubject == "" {
		errs = append(errs, errors.New("NATS_SWEEP_SUBJECT is required when NATS_URL is set"))
	}

	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
