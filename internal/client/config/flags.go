package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
//	-a string   API base URL
//	-d string   SQLite DSN for the credential vault
//	-r string   Redis URL for cross-process notifications
//	-t int      request timeout in seconds
//	-l string   log level (debug, info, warn, error)
//
// Only these flags are read, via flagx.FilterArgs; anything else on the
// command line is ignored. Panics on malformed values.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.DSN, "d", cfg.DSN, "SQLite DSN for the credential store")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "Redis URL for cross-process notifications")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args(), []string{"-a", "-d", "-r", "-t", "-l"})); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
