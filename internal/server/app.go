// Package server wires the development backend: configuration, logging,
// tracing, user storage (in memory or Postgres) and the REST transport.
// It shuts down gracefully on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/common"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
	"github.com/dmitrijs2005/storekeeper/internal/server/config"
	"github.com/dmitrijs2005/storekeeper/internal/server/rest"
	"github.com/dmitrijs2005/storekeeper/internal/server/users"
	"github.com/dmitrijs2005/storekeeper/internal/telemetry"
)

const serviceName = "storekeeper-devserver"

type App struct {
	db          *sql.DB
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	server      *rest.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, "json", os.Stdout)

	if c.SecretKey == "" {
		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("secret generation error: %w", err)
		}
		c.SecretKey = secret
		logger.Warn(context.Background(), "no secret key configured, tokens will not survive a restart")
	}

	var (
		repo users.Repository = users.NewInMemoryRepository()
		db   *sql.DB
	)
	if c.DatabaseDSN != "" {
		var err error
		db, err = users.OpenPostgres(context.Background(), c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = users.NewPostgresRepository(db)
	}

	us := users.NewService(repo, c)
	srv := rest.NewServer(rest.Options{
		Addr:          c.Addr,
		BasePath:      c.BasePath,
		WrapResponses: c.WrapResponses,
	}, us, logger)

	return &App{db: db, config: c, logger: logger, userService: us, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.Addr, "base_path", app.config.BasePath)

	shutdown, err := telemetry.Setup(ctx, serviceName, app.config.OTelEndpoint)
	if err != nil {
		app.logger.Warn(ctx, "tracing disabled", "error", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close error", "error", err)
		}
	}
	app.logger.Info(context.Background(), "Stopped")
}
