package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork matches *NetworkError: no response was received. This is the
	// only class callers should present as "try again / check connectivity".
	ErrNetwork = errors.New("network error")

	// ErrHTTP matches *HTTPError: the server rejected the request.
	ErrHTTP = errors.New("http error")

	// ErrSessionExpired is returned for any 401. The stored credential has
	// already been erased when the caller sees it.
	ErrSessionExpired = errors.New("session expired")

	// ErrProtocol matches *ProtocolError: a successful response lacked a
	// required field or had an unusable shape.
	ErrProtocol = errors.New("protocol error")
)

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// HTTPError carries the server's message and field errors verbatim.
type HTTPError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Is(target error) bool { return target == ErrHTTP }

type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s: %s", e.Op, e.Reason)
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// errorBody is the server error envelope: { message, errors?: {field: [msg]} }.
type errorBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// newHTTPError builds an HTTPError from a non-2xx body. The status text is
// used only when the server supplied no message at all.
func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Message
		if len(eb.Errors) > 0 {
			e.FieldErrors = make(map[string][]string, len(eb.Errors))
			for field, raw := range eb.Errors {
				e.FieldErrors[field] = fieldMessages(raw)
			}
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// fieldMessages accepts either ["msg", ...] or a bare "msg".
func fieldMessages(raw json.RawMessage) []string {
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	return []string{string(raw)}
}
