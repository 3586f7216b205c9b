package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/storekeeper/internal/client/broadcast"
	"github.com/dmitrijs2005/storekeeper/internal/client/cli"
	"github.com/dmitrijs2005/storekeeper/internal/client/client"
	"github.com/dmitrijs2005/storekeeper/internal/client/config"
	"github.com/dmitrijs2005/storekeeper/internal/client/gateway"
	"github.com/dmitrijs2005/storekeeper/internal/client/session"
	"github.com/dmitrijs2005/storekeeper/internal/client/storage"
	"github.com/dmitrijs2005/storekeeper/internal/client/vault"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
	"github.com/dmitrijs2005/storekeeper/internal/telemetry"
)

const serviceName = "storekeeper-client"

func main() {

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}

}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Warn(ctx, "tracing disabled", "error", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	var store storage.Storage = storage.NewMemoryStorage()
	if cfg.DSN != "" {
		s, err := storage.Open(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	vaultOpts := []vault.Option{vault.WithTTL(cfg.CredentialTTL), vault.WithLogger(logger)}
	var bus broadcast.Bus = broadcast.NewLocalBus()
	if cfg.RedisURL != "" {
		rc, err := broadcast.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		bus = broadcast.NewRedisBus(rc, broadcast.DefaultChannel)
		vaultOpts = append(vaultOpts, vault.WithLease(broadcast.NewRedisLease(rc, broadcast.DefaultLeaseKey, cfg.CredentialTTL)))
	}
	vaultOpts = append(vaultOpts, vault.WithPublisher(bus))

	v, err := vault.New(store, cfg.ObfuscationSecret, vaultOpts...)
	if err != nil {
		return err
	}

	screen := cli.NewScreen(os.Stdout)
	gw := gateway.New(cfg.APIBaseURL, v,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithNavigator(screen),
		gateway.WithLogger(logger),
	)

	ctl := session.New(client.NewHTTPClient(gw), v, session.WithLogger(logger))
	defer ctl.Close()

	ctl.Initialize(ctx)
	if err := ctl.Watch(ctx, bus, v.Origin()); err != nil {
		logger.Warn(ctx, "credential change notifications disabled", "error", err)
	}

	app := cli.NewApp(ctl, screen, os.Stdin, os.Stdout, cli.WithRegion(cfg.Region), cli.WithLogger(logger))
	app.Run(ctx)
	return nil
}
