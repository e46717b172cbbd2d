package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Planner     PlannerConfig
	Relay       RelayConfig
	Calendar    CalendarConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
	MaxBodySize  int
}

// StorageConfig selects the backends. Tasks and users live in memory or
// Postgres; sessions and notifications in memory or Redis.
type StorageConfig struct {
	Driver        string
	SessionDriver string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL                   string
	Password              string
	DB                    int
	NotificationRetention time.Duration
	NotificationMaxLen    int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type BufferConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	// Path overrides the embedded migrations with a directory on disk.
	Path string
}

type PlannerConfig struct {
	Timezone         string
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
	UpcomingDays     int
	SeedDemo         bool
}

type RelayConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	Timeout       time.Duration
	SystemPrompt  string
	FailureMarker string
}

type CalendarConfig struct {
	CredentialsFile string
	CalendarID      string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults that boot a self-contained in-memory planner.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "academic-planner"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
			MaxBodySize:  getInt("SERVER_MAX_BODY_BYTES", 4<<20),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getString("STORAGE_DRIVER", DriverMemory)),
			SessionDriver: strings.ToLower(getString("SESSION_DRIVER", DriverMemory)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "planner"),
			User:            getString("DB_USER", "planner"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:                   getString("REDIS_URL", "redis://localhost:6379"),
			Password:              os.Getenv("REDIS_PASSWORD"),
			DB:                    getInt("REDIS_DB", 0),
			NotificationRetention: getDuration("NOTIFICATION_RETENTION", 7*24*time.Hour),
			NotificationMaxLen:    getInt("NOTIFICATION_MAX_LEN", 200),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Issuer:   getString("JWT_ISSUER", "academic-planner"),
			TokenTTL: getDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 50),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    os.Getenv("MIGRATIONS_PATH"),
		},
		Planner: PlannerConfig{
			Timezone:         getString("PLANNER_TIMEZONE", "Local"),
			ReminderInterval: getDuration("REMINDER_INTERVAL", time.Minute),
			ReminderWindow:   getDuration("REMINDER_WINDOW", 0),
			UpcomingDays:     getInt("PLANNER_UPCOMING_DAYS", 7),
			SeedDemo:         getBool("PLANNER_SEED_DEMO", false),
		},
		Relay: RelayConfig{
			APIKey:        os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:       getString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			Model:         getString("RELAY_MODEL", "claude-3-5-sonnet-20241022"),
			MaxTokens:     getInt("RELAY_MAX_TOKENS", 1024),
			Timeout:       getDuration("RELAY_TIMEOUT", 90*time.Second),
			SystemPrompt:  os.Getenv("RELAY_SYSTEM_PROMPT"),
			FailureMarker: getString("RELAY_FAILURE_MARKER", "\n\n[error: la respuesta se interrumpió]"),
		},
		Calendar: CalendarConfig{
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
			CalendarID:      os.Getenv("GOOGLE_CALENDAR_ID"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	cfg.Relay.FailureMarker = strings.ReplaceAll(cfg.Relay.FailureMarker, "\\n", "\n")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot boot with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Storage.SessionDriver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("config: unsupported SESSION_DRIVER %q", c.Storage.SessionDriver)
	}
	if c.Planner.ReminderInterval < time.Second {
		return fmt.Errorf("config: REMINDER_INTERVAL must be at least 1s")
	}
	if c.Planner.ReminderWindow < 0 {
		return fmt.Errorf("config: REMINDER_WINDOW must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: PLANNER_TIMEZONE: %w", err)
	}
	if c.Environment == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	return nil
}

// Location resolves the planner timezone used to decide "today".
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Planner.Timezone)
}

// RelayEnabled reports whether the assistant provider has credentials.
func (c *Config) RelayEnabled() bool {
	return c.Relay.APIKey != ""
}

// CalendarEnabled reports whether Google Calendar publishing is configured.
func (c *Config) CalendarEnabled() bool {
	return c.Calendar.CredentialsFile != "" && c.Calendar.CalendarID != ""
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
