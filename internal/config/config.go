package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendRedis = "redis"
	BackendSQL   = "sql"
	BackendMongo = "mongo"

	devJWTSecret = "dev-secret-change-me"
)

// Config is layered: built-in defaults, then the YAML file named by
// CONFIG_FILE, then environment variables.
type Config struct {
	Env      string `yaml:"env" env:"APP_ENV"`
	Port     string `yaml:"port" env:"PORT"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	SessionCookie string        `yaml:"session_cookie" env:"SESSION_COOKIE"`
	CookieSecure  bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`

	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	ProfileBackend string        `yaml:"profile_backend" env:"PROFILE_BACKEND"`
	ProfileTTL     time.Duration `yaml:"profile_ttl" env:"PROFILE_TTL"`
	RedisAddr      string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int           `yaml:"redis_db" env:"REDIS_DB"`
	SQLDriver      string        `yaml:"sql_driver" env:"SQL_DRIVER"`
	SQLDSN         string        `yaml:"sql_dsn" env:"SQL_DSN"`
	MongoURI       string        `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDB        string        `yaml:"mongo_db" env:"MONGO_DB"`

	WSWriteTimeout time.Duration `yaml:"ws_write_timeout" env:"WS_WRITE_TIMEOUT"`
	StatsSchedule  string        `yaml:"stats_schedule" env:"STATS_SCHEDULE"`
}

func Default() *Config {
	return &Config{
		Env:            "dev",
		Port:           "8080",
		LogLevel:       "info",
		JWTSecret:      devJWTSecret,
		SessionTTL:     24 * time.Hour,
		SessionCookie:  "session",
		ProfileBackend: BackendRedis,
		RedisAddr:      "localhost:6379",
		SQLDriver:      "postgres",
		MongoDB:        "postbox",
		WSWriteTimeout: 10 * time.Second,
		StatsSchedule:  "@every 1m",
	}
}

// Load reads .env when present, then builds the layered config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.ProfileBackend {
	case BackendRedis:
	case BackendSQL:
		if c.SQLDriver != "postgres" && c.SQLDriver != "sqlite" {
			return errors.New("unsupported SQL_DRIVER: " + c.SQLDriver + ". Currently supported: postgres, sqlite")
		}
		if c.SQLDSN == "" {
			return errors.New("SQL_DSN is required for the sql profile backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo profile backend")
		}
	default:
		return errors.New("unsupported PROFILE_BACKEND: " + c.ProfileBackend + ". Currently supported: redis, sql, mongo")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// AllowedOrigins splits the comma separated CORS list. Empty means localhost dev origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return out
}
