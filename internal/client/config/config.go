package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the storefront client.
type Config struct {
	// APIBaseURL is prefixed to every gateway endpoint.
	APIBaseURL string `env:"API_BASE_URL"`
	// DSN of the SQLite database backing the credential vault. Empty keeps
	// credentials in memory for the life of the process.
	DSN string `env:"DSN"`
	// RedisURL enables cross-process credential change notifications and the
	// write lease. Empty disables both.
	RedisURL string `env:"REDIS_URL"`
	// ObfuscationSecret is the vault XOR key. It deters casual inspection of
	// the database file only.
	ObfuscationSecret string `env:"OBFUSCATION_SECRET"`
	// CredentialTTL is the vault credential lifetime.
	CredentialTTL time.Duration `env:"CREDENTIAL_TTL"`
	// RequestTimeout bounds every gateway request. Zero means no timeout.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	// Region is the default phone number region for registration.
	Region string `env:"REGION"`
	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STOREKEEPER_"

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.DSN = "file:storekeeper.db"
	c.ObfuscationSecret = "storekeeper-local"
	c.CredentialTTL = 24 * time.Hour
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Region = "US"
}

// LoadConfig builds a Config from defaults, then an optional JSON file,
// then STOREKEEPER_* environment variables, then command-line flags. Later
// sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// parseEnv overlays cfg with environment variables. Unset variables leave
// fields untouched. Panics on malformed values, like the other loaders.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.ObfuscationSecret == "" {
		return fmt.Errorf("obfuscation secret is required")
	}
	if c.CredentialTTL <= 0 {
		return fmt.Errorf("credential ttl must be positive, got %s", c.CredentialTTL)
	}
	return nil
}

func args() []string {
	if len(os.Args) < 2 {
		return nil
	}
	return os.Args[1:]
}
