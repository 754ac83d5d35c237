package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysdream/fino/catalog"
	"github.com/sysdream/fino/config"
	"github.com/sysdream/fino/inspect"
	"github.com/sysdream/fino/loop"
	"github.com/sysdream/fino/macro"
	"github.com/sysdream/fino/server"
)

// serve runs the demo host and exposes it until interrupted.
func serve(cfg *config.Config) error {
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	store, err := macro.OpenStore(cfg.MacroDir())
	if err != nil {
		return fmt.Errorf("open macro store: %w", err)
	}
	defer store.Close()
	log.Infof("macro store: %s", store.Dir())

	registerDemoTypes(catalog.Default)

	mainLoop := loop.New("main")
	defer mainLoop.Stop()

	svc := inspect.New(
		inspect.WithExecutor(mainLoop),
		inspect.WithMacros(macro.WithStore(store), macro.WithPolicy(policy)),
	)
	defer svc.Close()

	app := newDemoApplication(mainLoop)
	if _, err := svc.Attach(app); err != nil {
		return err
	}
	for _, a := range app.Activities {
		if _, err := svc.Attach(a); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(svc)
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe(cfg.Server.Addr) }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Notice("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errs
}
