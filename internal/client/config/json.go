package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/flagx"
	"github.com/dmitrijs2005/storekeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration so
// they can be written as "15s" or as integer nanoseconds. Absent keys leave
// the corresponding Config field unchanged.
type JsonConfig struct {
	APIBaseURL        *string         `json:"api_base_url"`
	DSN               *string         `json:"dsn"`
	RedisURL          *string         `json:"redis_url"`
	ObfuscationSecret *string         `json:"obfuscation_secret"`
	CredentialTTL     *timex.Duration `json:"credential_ttl"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	LogLevel          *string         `json:"log_level"`
	LogFormat         *string         `json:"log_format"`
	Region            *string         `json:"region"`
	OTelEndpoint      *string         `json:"otel_endpoint"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(args())
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc JsonConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.DSN, jc.DSN)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.ObfuscationSecret, jc.ObfuscationSecret)
	setDuration(&cfg.CredentialTTL, jc.CredentialTTL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.Region, jc.Region)
	setString(&cfg.OTelEndpoint, jc.OTelEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
