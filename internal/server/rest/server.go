package rest

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/storekeeper/internal/logging"
	"github.com/dmitrijs2005/storekeeper/internal/server/users"
)

// Server wraps the fiber application.
type Server struct {
	app    *fiber.App
	addr   string
	users  *users.Service
	logger logging.Logger
	wrap   bool
}

type Options struct {
	Addr          string
	BasePath      string
	WrapResponses bool
}

func NewServer(opts Options, us *users.Service, logger logging.Logger) *Server {
	s := &Server{
		addr:   opts.Addr,
		users:  us,
		logger: logger,
		wrap:   opts.WrapResponses,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "storekeeper-devserver",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	api := s.app.Group(opts.BasePath)
	group := api.Group("/auth")
	group.Post("/register", s.register)
	group.Post("/login", s.login)
	group.Post("/logout", s.requireUser, s.logout)
	group.Get("/me", s.requireUser, s.me)
	group.Patch("/verification", s.requireUser, s.updateVerification)
	group.Post("/verification/complete", s.requireUser, s.completeVerification)

	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "listening", "addr", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
