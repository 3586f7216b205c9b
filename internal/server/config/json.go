package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storekeeper/internal/flagx"
	"github.com/dmitrijs2005/storekeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration so
// they can be written as "24h" or integer nanoseconds. Absent keys leave
// the corresponding field unchanged.
type JsonConfig struct {
	Addr                        *string         `json:"addr"`
	BasePath                    *string         `json:"base_path"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	WrapResponses               *bool           `json:"wrap_responses"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	LogLevel                    *string         `json:"log_level"`
	OTelEndpoint                *string         `json:"otel_endpoint"`
}

// parseJson overlays config with the file named by -c/-config, if any.
// Panics if the file cannot be read or contains invalid JSON.
func parseJson(config *Config) {
	path := flagx.ConfigPath(args())
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Addr != nil {
		config.Addr = *c.Addr
	}
	if c.BasePath != nil {
		config.BasePath = *c.BasePath
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.WrapResponses != nil {
		config.WrapResponses = *c.WrapResponses
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.OTelEndpoint != nil {
		config.OTelEndpoint = *c.OTelEndpoint
	}
}
