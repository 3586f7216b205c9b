package cli

import (
	"fmt"
	"io"
	"sync"
)

// Pages the client can be on.
const (
	PageHome         = "/"
	PageLogin        = "/login"
	PageRegister     = "/register"
	PageAccount      = "/account"
	PageVerification = "/account/verification"
)

// Screen tracks which page the user is on. It implements gateway.Navigator.
type Screen struct {
	mu       sync.Mutex
	location string
	out      io.Writer
}

func NewScreen(out io.Writer) *Screen {
	return &Screen{location: PageHome, out: out}
}

func (s *Screen) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Redirect is a forced navigation, issued when the session expired.
func (s *Screen) Redirect(path string) {
	s.mu.Lock()
	s.location = path
	s.mu.Unlock()
	fmt.Fprintln(s.out, "Your session has expired. Please log in again.")
}

// Go is a user-initiated navigation.
func (s *Screen) Go(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = path
}
