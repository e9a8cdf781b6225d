package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Checkout      CheckoutConfig
	Returns       ReturnsConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TILLPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TILLPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TILLPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TILLPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TILLPOINT_DB_DSN"`
	Driver string `envconfig:"TILLPOINT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TILLPOINT_DB_HOST"`
	Port     int    `envconfig:"TILLPOINT_DB_PORT" default:"5432"`
	User     string `envconfig:"TILLPOINT_DB_USER"`
	Password string `envconfig:"TILLPOINT_DB_PASSWORD"`
	Name     string `envconfig:"TILLPOINT_DB_NAME"`
	SSLMode  string `envconfig:"TILLPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TILLPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TILLPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either TILLPOINT_DB_DSN or host/user/name must be provided")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TILLPOINT_REDIS_URL"`
	Address      string        `envconfig:"TILLPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"TILLPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TILLPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TILLPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TILLPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TILLPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TILLPOINT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TILLPOINT_JWT_ISSUER" default:"tillpoint"`
	ExpirationMinutes int    `envconfig:"TILLPOINT_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TILLPOINT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TILLPOINT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TILLPOINT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TILLPOINT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TILLPOINT_ARGON_KEY_LEN" default:"32"`
}

type CheckoutConfig struct {
	// RequireOpenTill makes checkout reject payments when the acting user
	// has no open till. Disabling it stores such payments without a till
	// reference.
	RequireOpenTill bool `envconfig:"TILLPOINT_CHECKOUT_REQUIRE_OPEN_TILL" default:"true"`
}

type ReturnsConfig struct {
	WindowDays int `envconfig:"TILLPOINT_RETURNS_WINDOW_DAYS" default:"14"`
}

// Window returns the sale return window as a duration.
func (r ReturnsConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TILLPOINT_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"TILLPOINT_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"TILLPOINT_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TILLPOINT_FEATURE_AUTO_MIGRATE" default:"false"`
}
