package models

// State is the session state machine position.
type State int

const (
	StateUnauthenticated State = iota
	StateInitializing
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Snapshot is the read-only view of the session exposed to the rest of the
// application. Identity is nil unless State is StateAuthenticated.
type Snapshot struct {
	State           State
	IsAuthenticated bool
	IsLoading       bool
	Identity        *Identity
}
