// Package cli provides the interactive storekeeper command-line client.
//
// It drives a session.Controller from a small REPL: register, log in and
// out, inspect the current identity and walk through seller verification.
// Screen tracks the current page and doubles as the gateway's Navigator,
// so a rejected credential sends the user back to the login page.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
