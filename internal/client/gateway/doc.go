// Package gateway is the single path for authenticated calls to the
// storefront API.
//
// Every Send reads the credential from the vault afresh (it is never cached
// between calls), attaches it as a bearer token, and maps the outcome onto a
// small error taxonomy:
//
//	*NetworkError      no response (ErrNetwork)
//	ErrSessionExpired  HTTP 401; the credential is erased and, unless the
//	                   navigator is already on a sign-in/registration page,
//	                   a redirect to the sign-in page is requested
//	*HTTPError         any other non-2xx (ErrHTTP), server text verbatim
//	*ProtocolError     malformed success payloads (ErrProtocol), raised by
//	                   DecodeEnvelope and API callers
//
// Successful bodies are returned raw. Endpoints disagree on whether the
// payload is nested under "data"; callers unwrap with DecodeEnvelope.
//
// The gateway imposes no timeouts of its own; configure them on the
// http.Client passed with WithHTTPClient.
package gateway
