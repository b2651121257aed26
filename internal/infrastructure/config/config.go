package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Idempotency IdempotencyConfig
}

// AppConfig identifies the running instance.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds the Postgres connection settings. Lifetime
// values are minutes.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// LogConfig selects level (debug..error), format (json, console) and
// output (stdout, stderr, or a file path).
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds server timeouts, body limits, rate limiting and CORS.
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// IdempotencyConfig controls refund idempotency key handling.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Load reads configuration in priority order: POS_-prefixed
// environment variables, then config.toml, then built-in defaults.
// A value of zero or empty falls back to the default, so POS_DATABASE_
// MAX_OPEN_CONNS=0 yields the default pool size rather than zero.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing config.toml is fine; env vars and defaults cover it.
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: fallback(v.GetString("app.name"), "pos-backoffice"),
			Env:  fallback(v.GetString("app.env"), "development"),
			Port: fallback(v.GetString("app.port"), "8080"),
		},
		Database: DatabaseConfig{
			Host:            fallback(v.GetString("database.host"), "localhost"),
			Port:            fallbackInt(v.GetInt("database.port"), 5432),
			User:            fallback(v.GetString("database.user"), "postgres"),
			Password:        v.GetString("database.password"),
			DBName:          fallback(v.GetString("database.dbname"), "pos"),
			SSLMode:         fallback(v.GetString("database.sslmode"), "disable"),
			MaxOpenConns:    fallbackInt(v.GetInt("database.max_open_conns"), 25),
			MaxIdleConns:    fallbackInt(v.GetInt("database.max_idle_conns"), 5),
			ConnMaxLifetime: fallbackInt(v.GetInt("database.conn_max_lifetime"), 60),
			ConnMaxIdleTime: fallbackInt(v.GetInt("database.conn_max_idle_time"), 30),
		},
		Redis: RedisConfig{
			Host:     fallback(v.GetString("redis.host"), "localhost"),
			Port:     fallbackInt(v.GetInt("redis.port"), 6379),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: fallbackDuration(v.GetDuration("jwt.access_token_expiration"), 15*time.Minute),
			Issuer:                fallback(v.GetString("jwt.issuer"), "pos-backoffice"),
		},
		Log: LogConfig{
			Level:  fallback(v.GetString("log.level"), "info"),
			Format: fallback(v.GetString("log.format"), "console"),
			Output: fallback(v.GetString("log.output"), "stdout"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       fallbackDuration(v.GetDuration("http.read_timeout"), 15*time.Second),
			WriteTimeout:      fallbackDuration(v.GetDuration("http.write_timeout"), 15*time.Second),
			IdleTimeout:       fallbackDuration(v.GetDuration("http.idle_timeout"), 60*time.Second),
			MaxHeaderBytes:    fallbackInt(v.GetInt("http.max_header_bytes"), 1<<20),
			MaxBodySize:       fallbackInt64(v.GetInt64("http.max_body_size"), 10<<20),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: fallbackInt(v.GetInt("http.rate_limit_requests"), 100),
			RateLimitWindow:   fallbackDuration(v.GetDuration("http.rate_limit_window"), time.Minute),
			// CORS origins deliberately have no "*" fallback: an empty
			// list blocks cross-origin requests until configured.
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: fallbackSlice(v.GetStringSlice("http.cors_allow_methods"),
				[]string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}),
			CORSAllowHeaders: fallbackSlice(v.GetStringSlice("http.cors_allow_headers"),
				[]string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Idempotency: IdempotencyConfig{
			// On unless explicitly switched off.
			Enabled: !v.IsSet("idempotency.enabled") || v.GetBool("idempotency.enabled"),
			TTL:     fallbackDuration(v.GetDuration("idempotency.ttl"), 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func fallbackInt(value, def int) int {
	if value == 0 {
		return def
	}
	return value
}

func fallbackInt64(value, def int64) int64 {
	if value == 0 {
		return def
	}
	return value
}

func fallbackDuration(value, def time.Duration) time.Duration {
	if value == 0 {
		return def
	}
	return value
}

func fallbackSlice(value, def []string) []string {
	if len(value) == 0 {
		return def
	}
	return value
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return errors.New("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env != "production" {
		return nil
	}

	// Production hardening: secrets present, TLS to the database, no
	// wildcard CORS.
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt.secret must be at least 32 characters in production")
	}
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return errors.New("database.sslmode cannot be 'disable' in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN builds the Postgres connection URL, escaping credentials that
// contain URL metacharacters.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
