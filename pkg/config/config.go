package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	envPrefix       = "STUDYSYNC_"
	testDatabaseURI = "postgres://localhost:5432/studysync_test?sslmode=disable"
)

var (
	ErrSecretRequired      = errors.New("auth.secret is required")
	ErrDatabaseURIRequired = errors.New("database.uri is required outside the test environment")
	ErrAIKeyRequired       = errors.New("ai.api_key is required outside the test environment")
)

type Config struct {
	Env      string         `koanf:"env" validate:"oneof=development production test"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	AI       AIConfig       `koanf:"ai"`
	Redis    RedisConfig    `koanf:"redis"`
	Cache    CacheConfig    `koanf:"cache"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr     string `koanf:"addr" validate:"required"`
	BasePath string `koanf:"base_path" validate:"required,startswith=/"`
}

type DatabaseConfig struct {
	URI     string `koanf:"uri"`
	Migrate bool   `koanf:"migrate"`
}

type AuthConfig struct {
	Secret     string        `koanf:"secret"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`
}

type AIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model" validate:"required"`
}

// RedisConfig selects the shared view cache. An empty Addr keeps views in process memory.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

type CacheConfig struct {
	TTL     time.Duration `koanf:"ttl" validate:"gt=0"`
	MaxSize int           `koanf:"max_size" validate:"gt=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("studysync", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("env", EnvDevelopment, "runtime environment: development, production or test")
	fs.String("server.addr", ":3000", "HTTP listen address")
	fs.String("server.base_path", "/api", "prefix of the JSON API")
	fs.String("database.uri", "", "PostgreSQL connection string")
	fs.Bool("database.migrate", true, "apply schema migrations at startup")
	fs.String("auth.secret", "", "session token signing secret")
	fs.Duration("auth.session_ttl", 7*24*time.Hour, "session lifetime")
	fs.String("ai.api_key", "", "generative model API key")
	fs.String("ai.model", "gemini-2.5-flash", "generative model name")
	fs.String("redis.addr", "", "redis address for the view cache; empty keeps views in memory")
	fs.String("redis.password", "", "redis password")
	fs.Int("redis.db", 0, "redis database index")
	fs.Duration("cache.ttl", 5*time.Minute, "lifetime of cached list views")
	fs.Int("cache.max_size", 500, "maximum cached views held in memory")
	fs.String("log.level", "info", "log level: debug, info, warn or error")
	return fs
}

// Load resolves configuration from, in increasing precedence: flag
// defaults, the YAML file named by --config, STUDYSYNC_* environment
// variables (nested keys joined by a double underscore), and flags set
// explicitly on the command line.
func Load(args []string) (*Config, error) {
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps STUDYSYNC_AUTH__SESSION_TTL to auth.session_ttl
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate enforces the startup rules. In the test environment a missing
// database URI falls back to the local test database.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Auth.Secret == "" {
		return ErrSecretRequired
	}

	if c.Database.URI == "" {
		if c.Env != EnvTest {
			return ErrDatabaseURIRequired
		}
		c.Database.URI = testDatabaseURI
	}

	if c.AI.APIKey == "" && c.Env != EnvTest {
		return ErrAIKeyRequired
	}

	return nil
}
