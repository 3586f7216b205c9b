// Package config handles configuration for the development server,
// including defaults, JSON overlay, environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STOREKEEPER_SERVER_"

// Config holds runtime settings for the development server.
//
// Fields:
//   - Addr: HTTP listen address.
//   - BasePath: prefix of every route, e.g. "/api".
//   - SecretKey: HMAC secret for signing JWTs (HS256). Empty generates a
//     random secret at startup, which invalidates tokens across restarts.
//   - AccessTokenValidityDuration: access token lifetime.
//   - BcryptCost: password hashing cost.
//   - WrapResponses: nest success payloads under "data".
//   - DatabaseDSN: Postgres connection string. Empty keeps users in memory.
type Config struct {
	Addr                        string        `env:"ADDR"`
	BasePath                    string        `env:"BASE_PATH"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_TTL"`
	BcryptCost                  int           `env:"BCRYPT_COST"`
	WrapResponses               bool          `env:"WRAP_RESPONSES"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	LogLevel                    string        `env:"LOG_LEVEL"`
	OTelEndpoint                string        `env:"OTEL_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.BasePath = "/api"
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.WrapResponses = false
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is empty")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base path %q must start with /", c.BasePath)
	}
	if c.AccessTokenValidityDuration <= 0 {
		return errors.New("access token lifetime must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range", c.BcryptCost)
	}
	return nil
}

func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}

func args() []string {
	if len(os.Args) < 2 {
		return nil
	}
	return os.Args[1:]
}
