// Command robotcmd-sub runs a robot command subscriber at a fixed tick rate.
//
// It loads a YAML file holding the runtime configuration, the subscription
// inputs and the tick interval, then polls a Controller on every tick and logs
// each received command.
//
// Signals:
//   - SIGHUP re-reads the subscription inputs and tick interval
//   - SIGUSR1 resets the controller (outputs zeroed, subscription recreated on the next tick)
//   - SIGINT/SIGTERM release the controller and exit
//
// With -embedded an in-process NATS server is started and the transport is
// pointed at it, so the binary runs without external infrastructure.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/robotcmd"
	"github.com/arloliu/robotcmd/internal/logging"
)

func main() {
	configPath := flag.String("config", "robotcmd.yaml", "Path to configuration file")
	embedded := flag.Bool("embedded", false, "Start an in-process NATS server")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *configPath, *embedded); err != nil {
		logger.Fatal("subscriber failed", "error", err)
	}
}

func run(ctx context.Context, logger *logging.SlogLogger, cfg *FileConfig, configPath string, embedded bool) error {
	if embedded {
		srv, err := startEmbeddedNATS(ctx, cfg.Runtime.Transport)
		if err != nil {
			return err
		}
		defer srv.Shutdown()

		cfg.Runtime.Transport.Backend = robotcmd.BackendNATS
		cfg.Runtime.Transport.URL = srv.ClientURL()
		logger.Info("embedded NATS server started", "url", srv.ClientURL(), "stream", cfg.Runtime.Transport.Stream)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := robotcmd.NewPrometheusMetrics(reg, "")

	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(logger, cfg.Metrics.Addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	registry, err := robotcmd.NewRegistry(cfg.Runtime.Transport, logger, mc)
	if err != nil {
		return err
	}

	hooks := &robotcmd.Hooks{
		OnNewData: func(_ context.Context, cmd robotcmd.RobotCommand) error {
			logger.Info("robot command",
				"yaw", cmd.Yaw,
				"gripper", cmd.GripperCmd,
				"timestamp", cmd.Timestamp,
				"linear", cmd.ChassisLinearVel,
				"angular", cmd.ChassisAngularVel,
				"joints", cmd.JointNames,
				"positions", cmd.Positions,
			)

			return nil
		},
	}

	ctrl, err := robotcmd.NewController(&cfg.Runtime, registry,
		robotcmd.WithLogger(logger.With("component", "controller")),
		robotcmd.WithMetrics(mc),
		robotcmd.WithHooks(hooks),
	)
	if err != nil {
		return err
	}
	defer func() {
		// ctx is already cancelled here; Release bounds itself with ReleaseTimeout.
		if err := ctrl.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("release finished with errors", "error", err)
		}
	}()

	return loop(ctx, logger, ctrl, cfg, configPath)
}

func loop(ctx context.Context, logger *logging.SlogLogger, ctrl *robotcmd.Controller, cfg *FileConfig, configPath string) error {
	in := cfg.Subscription
	interval := cfg.TickInterval

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	logger.Info("subscriber running", append(in.LogFields(), "tick", interval)...)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case sig := <-sigCh:
			if sig == syscall.SIGUSR1 {
				ctrl.Reset(ctx)
				continue
			}

			next, err := LoadConfig(configPath)
			if err != nil {
				logger.Warn("config reload rejected, keeping current inputs", "error", err)
				continue
			}
			in = next.Subscription
			if next.TickInterval != interval {
				interval = next.TickInterval
				ticker.Reset(interval)
			}
			logger.Info("subscription inputs reloaded", append(in.LogFields(), "tick", interval)...)

		case <-ticker.C:
			// Failed binds are logged by the controller and retried next tick.
			if _, err := ctrl.Poll(ctx, in); errors.Is(err, robotcmd.ErrReleased) {
				return err
			}
		}
	}
}

func startMetricsServer(logger *logging.SlogLogger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("metrics server started", "addr", addr)

	return srv
}
