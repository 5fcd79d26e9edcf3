package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
// Nested keys are separated by a double underscore, so
// AUTHNET_STORE__REDIS__ADDR maps to store.redis.addr.
const EnvPrefix = "AUTHNET_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Env    string       `koanf:"env" validate:"oneof=development production test"`
	Log    LogConfig    `koanf:"log"`
	HTTP   HTTPConfig   `koanf:"http"`
	OAuth2 OAuth2Config `koanf:"oauth2"`
	Store  StoreConfig  `koanf:"store"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

type HTTPConfig struct {
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`
	CAFile             string        `koanf:"ca_file" validate:"omitempty,file"`
	CertFile           string        `koanf:"cert_file" validate:"required_with=KeyFile"`
	KeyFile            string        `koanf:"key_file" validate:"required_with=CertFile"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
	DisableRedirects   bool          `koanf:"disable_redirects"`
	DisableRequestID   bool          `koanf:"disable_request_id"`
	Language           string        `koanf:"language"`
	Timezone           string        `koanf:"timezone"`
}

type OAuth2Config struct {
	TokenURL     string        `koanf:"token_url" validate:"required,url"`
	ClientID     string        `koanf:"client_id" validate:"required"`
	ClientSecret string        `koanf:"client_secret"`
	Scopes       string        `koanf:"scopes"`
	Grant        string        `koanf:"grant" validate:"oneof=refresh_token client_credentials"`
	ExpiryLeeway time.Duration `koanf:"expiry_leeway" validate:"gte=0"`
}

type StoreConfig struct {
	Driver   string         `koanf:"driver" validate:"oneof=memory redis postgres"`
	Redis    RedisConfig    `koanf:"redis"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

type PostgresConfig struct {
	DSN       string `koanf:"dsn"`
	Namespace string `koanf:"namespace"`
}

// Load reads the configuration from AUTHNET_* environment variables.
//
// envFiles are loaded with godotenv first; variables already set in the
// environment win. Without envFiles an optional ".env" in the working
// directory is loaded.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and the settings required by the
// selected store driver.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateStore, StoreConfig{})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

func validateStore(sl validator.StructLevel) {
	store := sl.Current().Interface().(StoreConfig)

	switch store.Driver {
	case DriverRedis:
		if store.Redis.Addr == "" {
			sl.ReportError(store.Redis.Addr, "Redis.Addr", "Addr", "required_for_driver", DriverRedis)
		}
	case DriverPostgres:
		if store.Postgres.DSN == "" {
			sl.ReportError(store.Postgres.DSN, "Postgres.DSN", "DSN", "required_for_driver", DriverPostgres)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
		if c.Env == "production" {
			c.Log.Format = "json"
		}
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.OAuth2.Grant == "" {
		c.OAuth2.Grant = "refresh_token"
	}
	if c.OAuth2.ExpiryLeeway == 0 {
		c.OAuth2.ExpiryLeeway = time.Minute
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "authnet"
	}
	if c.Store.Postgres.Namespace == "" {
		c.Store.Postgres.Namespace = "default"
	}
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load .env: %w", err)
		}
		return nil
	}

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("config: env file %s: %w", file, err)
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config: load env files: %w", err)
	}
	return nil
}
