package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "STF_AUTH_LOCAL_"

var (
	ErrMissingSecret = errors.New("secret is required")
	ErrMissingAppURL = errors.New("app url is required")
)

type Config struct {
	Auth      AuthConfig
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	// invalid holds values that were set but could not be parsed.
	invalid error
}

type AuthConfig struct {
	Secret     string
	AppURL     string
	TokenTTL   time.Duration
	BcryptCost int
}

type ServerConfig struct {
	Port             int
	ShutdownTimeout  time.Duration
	StaticDir        string
	// TrustedProxyHops is the number of reverse proxies in front of the unit
	// whose X-Forwarded-For entries are trusted for client addresses.
	TrustedProxyHops int
}

// StoreConfig selects the credential store backend. The memory backend is
// meant for local development and serves a single root group owner.
type StoreConfig struct {
	Backend      string
	UsersFile    string
	ContactName  string
	ContactEmail string
}

type DatabaseConfig struct {
	PrimaryDSN      string
	ReplicaDSNs     []string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectRetries  int
}

// RedisConfig enables login rate limiting and, when AttemptStream is set,
// publishing login attempts to a Redis stream.
type RedisConfig struct {
	Addr                string
	Password            string
	DB                  int
	AttemptStream       string
	AttemptStreamMaxLen int64
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func Load() (*Config, error) {
	// Load .env if it exists (local dev), ignore if not
	_ = godotenv.Load()

	var invalid []error

	tokenTTL, err := parseEnvAsDuration(envPrefix+"TOKEN_TTL", 24*time.Hour)
	invalid = appendErr(invalid, err)
	bcryptCost, err := parseEnvAsInt(envPrefix+"BCRYPT_COST", 10)
	invalid = appendErr(invalid, err)
	proxyHops, err := parseEnvAsInt(envPrefix+"TRUSTED_PROXY_HOPS", 0)
	invalid = appendErr(invalid, err)

	cfg := &Config{
		Auth: AuthConfig{
			Secret:     getEnv(envPrefix+"SECRET", getEnv("SECRET", "")),
			AppURL:     getEnv(envPrefix+"APP_URL", ""),
			TokenTTL:   tokenTTL,
			BcryptCost: bcryptCost,
		},
		Server: ServerConfig{
			Port:             getEnvAsInt(envPrefix+"PORT", getEnvAsInt("PORT", 7120)),
			ShutdownTimeout:  getEnvAsDuration(envPrefix+"SHUTDOWN_TIMEOUT", 10*time.Second),
			StaticDir:        getEnv(envPrefix+"STATIC_DIR", ""),
			TrustedProxyHops: proxyHops,
		},
		Store: StoreConfig{
			Backend:      getEnv(envPrefix+"STORE", "postgres"),
			UsersFile:    getEnv(envPrefix+"USERS_FILE", ""),
			ContactName:  getEnv(envPrefix+"CONTACT_NAME", ""),
			ContactEmail: getEnv(envPrefix+"CONTACT_EMAIL", ""),
		},
		Database: DatabaseConfig{
			PrimaryDSN:      getEnv("DB_PRIMARY_DSN", ""),
			ReplicaDSNs:     getEnvList("DB_REPLICA1_DSN", "DB_REPLICA2_DSN", "DB_REPLICA3_DSN"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			ConnectRetries:  getEnvAsInt("DB_CONNECT_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),

			AttemptStream:       getEnv(envPrefix+"ATTEMPT_STREAM", ""),
			AttemptStreamMaxLen: int64(getEnvAsInt(envPrefix+"ATTEMPT_STREAM_MAXLEN", 100000)),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		invalid: errors.Join(invalid...),
	}

	return cfg, nil
}

// Validate reports the first configuration problem that must stop the process
// from starting.
func (c *Config) Validate() error {
	if c.invalid != nil {
		return c.invalid
	}
	if c.Auth.Secret == "" {
		return ErrMissingSecret
	}
	if c.Auth.AppURL == "" {
		return ErrMissingAppURL
	}
	if u, err := url.Parse(c.Auth.AppURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app url %q must be an absolute URL", c.Auth.AppURL)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %v", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.TrustedProxyHops < 0 {
		return fmt.Errorf("trusted proxy hops must not be negative, got %d", c.Server.TrustedProxyHops)
	}

	if c.Redis.AttemptStream != "" && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required to publish login attempts")
	}

	switch c.Store.Backend {
	case "postgres":
		if c.Database.PrimaryDSN == "" {
			return errors.New("DB_PRIMARY_DSN is required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseEnvAsInt is getEnvAsInt for values that must not silently fall back
// to the default when malformed.
func parseEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return intVal, nil
}

func parseEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not a duration (e.g. 24h): %w", key, value, err)
	}
	return duration, nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func getEnvList(keys ...string) []string {
	var values []string
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			values = append(values, value)
		}
	}
	return values
}
