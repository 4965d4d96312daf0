// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads accountd settings. Sources are layered with later
// ones winning: built-in defaults, a YAML file, ACCOUNTD_* environment
// variables (plus DATABASE_URL), then command-line flags.
package config

import (
	"errors"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ACCOUNTD_"

const redactedValue = "xxxxx"

// Config is the effective service configuration.
type Config struct {
	Environment string         `koanf:"environment" yaml:"environment" validate:"oneof=development test production"`
	Log         LogConfig      `koanf:"log" yaml:"log"`
	HTTP        HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics     MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Database    DatabaseConfig `koanf:"database" yaml:"database"`
	Auth        AuthConfig     `koanf:"auth" yaml:"auth"`
	SMTP        SMTPConfig     `koanf:"smtp" yaml:"smtp"`
}

// LogConfig selects log output.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" validate:"oneof=json text"`
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url" yaml:"url"`
	MaxConns       int32         `koanf:"max_conns" yaml:"max_conns" validate:"gte=0"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout" validate:"gt=0"`
}

// AuthConfig configures hashing and sessions.
type AuthConfig struct {
	// BcryptCost of 0 derives the cost from Environment.
	BcryptCost           int           `koanf:"bcrypt_cost" yaml:"bcrypt_cost" validate:"eq=0|min=4,max=31"`
	HashConcurrency      int           `koanf:"hash_concurrency" yaml:"hash_concurrency" validate:"gte=0"`
	SessionTTL           time.Duration `koanf:"session_ttl" yaml:"session_ttl" validate:"gt=0"`
	SessionPurgeInterval time.Duration `koanf:"session_purge_interval" yaml:"session_purge_interval" validate:"gte=0"`
	SessionRetention     time.Duration `koanf:"session_retention" yaml:"session_retention" validate:"gte=0"`
}

// SMTPConfig configures outgoing mail.
type SMTPConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port" validate:"min=1,max=65535"`
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"password"`
	From     string `koanf:"from" yaml:"from" validate:"omitempty,email"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	return map[string]any{
		"environment":                 EnvDevelopment,
		"log.format":                  "json",
		"log.level":                   "info",
		"http.addr":                   ":3000",
		"http.shutdown_timeout":       "10s",
		"metrics.addr":                "127.0.0.1:9100",
		"database.url":                "",
		"database.max_conns":          0,
		"database.connect_timeout":    "30s",
		"auth.bcrypt_cost":            0,
		"auth.hash_concurrency":       0,
		"auth.session_ttl":            "720h",
		"auth.session_purge_interval": "1h",
		"auth.session_retention":      "24h",
		"smtp.host":                   "localhost",
		"smtp.port":                   1025,
		"smtp.username":               "",
		"smtp.password":               "",
		"smtp.from":                   "contato@accountd.dev",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"environment":      "environment",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"http-addr":        "http.addr",
	"metrics-addr":     "metrics.addr",
	"database-url":     "database.url",
	"bcrypt-cost":      "auth.bcrypt_cost",
	"session-ttl":      "auth.session_ttl",
	"purge-interval":   "auth.session_purge_interval",
	"hash-concurrency": "auth.hash_concurrency",
}

// BindFlags registers the configuration flags on fs. Only flags the user
// sets override lower layers.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("environment", EnvDevelopment, "deployment environment (development, test, production)")
	fs.String("log-format", "json", "log format (json or text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("http-addr", ":3000", "public API listen address")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Int("bcrypt-cost", 0, "bcrypt cost (0 = derive from environment)")
	fs.Duration("session-ttl", 30*24*time.Hour, "session lifetime")
	fs.Duration("purge-interval", time.Hour, "expired session purge interval (0 = disabled)")
	fs.Int("hash-concurrency", 0, "maximum concurrent password hashes (0 = number of CPUs)")
}

// Load builds a Config. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", path).
				Wrap(err)
		}
	}

	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		if err := k.Load(confmap.Provider(map[string]any{"database.url": v}, "."), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "DATABASE_URL").Wrap(err)
		}
	}
	if err := k.Load(envProvider(k.Keys()), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// envProvider reads ACCOUNTD_* overrides for the known keys. Names cannot
// be split on underscores because keys such as auth.session_ttl contain
// them. DATABASE_URL is loaded separately so the prefixed variable wins.
func envProvider(keys []string) *env.Env {
	byName := make(map[string]string, len(keys))
	for _, key := range keys {
		byName[EnvName(key)] = key
	}
	return env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(name, value string) (string, any) {
			return byName[name], value
		},
	})
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Namespace())
			}
			sort.Strings(fields)
			return oops.Code("CONFIG_INVALID").
				With("fields", fields).
				Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set %s, DATABASE_URL or --database-url)", EnvName("database.url"))
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Redacted returns a copy safe to print: passwords are masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Database.URL != "" {
		if u, err := url.Parse(out.Database.URL); err == nil {
			out.Database.URL = u.Redacted()
		} else {
			out.Database.URL = redactedValue
		}
	}
	if out.SMTP.Password != "" {
		out.SMTP.Password = redactedValue
	}
	return out
}
