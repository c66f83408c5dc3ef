package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/metrics"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/scheduler"
	"github.com/dukerupert/chorewheel/internal/server"
	"github.com/dukerupert/chorewheel/internal/store"
	ws "github.com/dukerupert/chorewheel/internal/websocket"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port          string
		sweepInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background generation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if cmd.Flags().Changed("sweep-interval") {
				if sweepInterval <= 0 {
					return fmt.Errorf("sweep interval must be positive, got %s", sweepInterval)
				}
				a.cfg.SweepInterval = sweepInterval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP listen port (env CHOREWHEEL_PORT)")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "time between generation sweeps (env CHOREWHEEL_SWEEP_INTERVAL)")

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPrometheus(reg, "")

	hub := ws.NewHub(a.logger)
	gen := a.newGenerator(db, m, chore.WithOnCreated(hub.InstancesGenerated))

	limiter := middleware.NewRateLimiter(a.cfg.GenerateLimit, time.Minute)
	limiter.StartCleanup(ctx, 5*time.Minute)

	sched := scheduler.New(gen, store.NewHouseholdStore(db), a.cfg.SweepInterval, a.logger, m)
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(db, gen, hub, limiter, reg, a.logger)
	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("chorewheel listening",
			"addr", httpServer.Addr,
			"db", a.cfg.DBPath,
			"timezone", a.cfg.Timezone,
			"sweep_interval", a.cfg.SweepInterval,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		return err
	}
	return nil
}
