package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every runtime setting. It is decoded once at startup and
// passed by value to the components that need it.
type Config struct {
	Port        string `env:"PORT,default=3002"`
	CORSOrigins string `env:"CORS_ORIGINS,default=*"`

	Database Database
	Token    Token
	Redis    Redis
	Throttle Throttle

	BcryptCost int    `env:"BCRYPT_COST,default=10"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	LogFormat  string `env:"LOG_FORMAT,default=text"`
}

type Database struct {
	URL         string `env:"DATABASE_URL"`
	Host        string `env:"DB_HOST,default=localhost"`
	User        string `env:"DB_USER,default=postgres"`
	Password    string `env:"DB_PASSWORD"`
	Name        string `env:"DB_NAME,default=sales_ledger"`
	Port        string `env:"DB_PORT,default=5432"`
	SSLMode     string `env:"DB_SSLMODE,default=disable"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=true"`
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value DSN built
// from the individual DB_* variables.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Token struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL,default=72h"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL,default=24h"`
	Issuer        string        `env:"TOKEN_ISSUER,default=go-sales-ledger"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// Throttle limits auth endpoints per client IP.
type Throttle struct {
	Enabled bool          `env:"AUTH_RATE_LIMIT_ENABLED,default=true"`
	Limit   int           `env:"AUTH_RATE_LIMIT,default=10"`
	Window  time.Duration `env:"AUTH_RATE_WINDOW,default=1m"`
}

// Load decodes the process environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Maintenance is the subset of settings needed by operator tools that only
// touch the store.
type Maintenance struct {
	Database   Database
	BcryptCost int    `env:"BCRYPT_COST,default=10"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	LogFormat  string `env:"LOG_FORMAT,default=text"`
}

// LoadMaintenance decodes Maintenance. An environment that sets none of its
// variables is valid; every field has a default.
func LoadMaintenance() (Maintenance, error) {
	var m Maintenance
	if err := envdecode.Decode(&m); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Maintenance{}, fmt.Errorf("decode environment: %w", err)
	}
	return m, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Token.AccessSecret) == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET must not be empty"))
	}
	if strings.TrimSpace(c.Token.RefreshSecret) == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET must not be empty"))
	}
	if c.Token.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Token.RefreshTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.Throttle.Enabled && (c.Throttle.Limit < 1 || c.Throttle.Window <= 0) {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// AccessOutlivesRefresh reports the configuration inherited from the first
// deployment where the access token expires after the refresh token.
func (c Config) AccessOutlivesRefresh() bool {
	return c.Token.AccessTTL > c.Token.RefreshTTL
}
