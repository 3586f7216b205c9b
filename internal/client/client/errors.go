package client

import "github.com/dmitrijs2005/storekeeper/internal/client/gateway"

// Re-exported so callers of Client need not import gateway to classify errors.
var (
	ErrUnavailable    = gateway.ErrNetwork
	ErrSessionExpired = gateway.ErrSessionExpired
	ErrRejected       = gateway.ErrHTTP
	ErrProtocol       = gateway.ErrProtocol
)
