package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"printq/internal/api"
	"printq/internal/logging"
	"printq/internal/metrics"
	"printq/internal/preflight"
	"printq/internal/queue"
	"printq/internal/store"
)

// errServerRunning is returned when another serve process holds the data
// directory lock.
var errServerRunning = errors.New("another printq server is already running for this data directory")

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx, bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind")
	return cmd
}

func runServe(cmd *cobra.Command, ctx *commandContext, bindOverride string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.CheckPaths(cfg) {
		if !result.Passed {
			return fmt.Errorf("preflight %s: %s", strings.ToLower(result.Name), result.Detail)
		}
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (%s)", errServerRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	st, err := store.Open(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer st.Close()

	svcOpts := []queue.Option{queue.WithLogger(logger)}
	serverOpts := []api.Option{api.WithLogger(logger), api.WithToken(cfg.API.Token)}
	if pinger, ok := st.(store.Pinger); ok {
		serverOpts = append(serverOpts, api.WithPinger(pinger))
	}
	if cfg.API.Metrics {
		recorder := metrics.NewRecorder(st)
		svcOpts = append(svcOpts, queue.WithObserver(recorder))
		serverOpts = append(serverOpts, api.WithMetrics(recorder.Handler()))
	}
	svc := queue.NewService(st, svcOpts...)
	server := api.NewServer(svc, serverOpts...)

	bind := cfg.API.Bind
	if bindOverride != "" {
		bind = bindOverride
	}
	listener, err := api.Listen(bind)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "printq listening on http://%s\n", listener.Addr())
	logger.Info("printq server started",
		logging.String("backend", cfg.Store.Backend),
		logging.String("lock", cfg.LockPath()),
		logging.Bool("metrics", cfg.API.Metrics),
		logging.Bool("auth", cfg.API.Token != ""),
	)

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		return server.Serve(listener)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
