// Package rest serves the storefront auth API over HTTP with fiber.
//
// Routes, relative to the configured base path:
//
//	POST  /auth/register               create an account, returns a session
//	POST  /auth/login                  returns a session
//	POST  /auth/logout                 revokes the caller's tokens
//	GET   /auth/me                     the caller's identity
//	PATCH /auth/verification           toggle one verification step
//	POST  /auth/verification/complete  finish verification, grant seller role
//
// Errors are rendered as {"message": "...", "errors": {"field": ["..."]}}.
// A missing, invalid, expired or revoked bearer token yields 401. With
// WrapResponses enabled, success payloads are nested under "data".
package rest
