// Package config loads runtime configuration for the storefront client.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults ((*Config).LoadDefaults).
//  2. Optional JSON file named by -c or -config.
//  3. STOREKEEPER_* environment variables.
//  4. Command-line flags.
//
// Flags
//
//	-a string   API base URL
//	-d string   SQLite DSN for the credential vault
//	-r string   Redis URL (enables cross-process notifications)
//	-t int      request timeout in seconds
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "https://shop.example/api",
//	  "dsn": "file:storekeeper.db",
//	  "redis_url": "redis://127.0.0.1:6379/0",
//	  "obfuscation_secret": "...",
//	  "credential_ttl": "24h",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "region": "LV",
//	  "otel_endpoint": "127.0.0.1:4318"
//	}
//
// Environment variables use the field names in upper snake case with the
// STOREKEEPER_ prefix, e.g. STOREKEEPER_API_BASE_URL.
package config
