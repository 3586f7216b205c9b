// Package session owns the authentication state of the storefront client.
//
// A Controller is the single writer of the signed-in Identity. It moves
// between three states:
//
//	Unauthenticated -> Initializing -> Authenticated | Unauthenticated
//	Authenticated   -> Authenticated   (profile and verification updates)
//	Authenticated   -> Unauthenticated (sign-out, expiry, erase elsewhere)
//
// The rest of the application reads the session through Snapshot, Progress
// and Subscribe and never touches the credential vault directly.
//
// Every result that completes asynchronously is tagged with a generation
// number taken when the operation started. Sign-in, sign-out and forced
// expiry advance the generation, so an Initialize or RefreshIdentity that
// resolves after one of those is discarded instead of overwriting newer
// state.
package session
