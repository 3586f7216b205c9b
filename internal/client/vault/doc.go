// Package vault persists the session credential in the shared storage.
//
// A credential named "auth_token" occupies two entries:
//
//	enc_auth_token        obfuscated value (XOR with a repeating secret, base64)
//	auth_token_timestamp  creation time, epoch milliseconds as a decimal string
//
// The obfuscation only deters casual inspection of the store; it is not
// encryption and must not be treated as a confidentiality boundary.
//
// Expiry is lazy: every Retrieve compares the stored timestamp with the
// injected Clock and purges entries older than the TTL (24h by default).
// No background timers are started.
//
// Retrieve, Erase and Exists never return errors. Storage failures and
// corrupted entries are logged and reported as "no credential".
package vault
