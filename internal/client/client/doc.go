// Package client is the typed storefront auth API.
//
// The Client interface is what the session controller depends on; HTTPClient
// implements it on top of the request gateway, so every call inherits the
// gateway's credential injection, 401 handling and error taxonomy.
//
// Response shapes: login and registration accept both
//
//	{ "user": {...}, "access_token": "...", "token_type": "Bearer", "expires_in": 86400 }
//
// and the same object nested under "data". A success response without an
// access_token is a protocol violation (ErrProtocol) and is never defaulted.
// Me accepts a bare identity, {"user": identity}, or either one under "data".
//
// Errors are the gateway's; match them with errors.Is against
// ErrUnavailable, ErrSessionExpired, ErrRejected and ErrProtocol.
package client
