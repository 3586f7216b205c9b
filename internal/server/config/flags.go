package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   listen address (e.g., ":8080")
//	-b string   route base path (e.g., "/api")
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-w bool     wrap success payloads under "data"
//	-d string   Postgres DSN
//	-l string   log level
//
// Flags are filtered with flagx.FilterArgs first, so unknown flags are
// ignored. Panics on malformed values.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.BasePath, "b", config.BasePath, "route base path")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.BoolVar(&config.WrapResponses, "w", config.WrapResponses, "wrap responses under data")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args(), []string{"-a", "-b", "-s", "-t", "-w", "-d", "-l"})); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
