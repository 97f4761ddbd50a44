// Command mergeviz is an interactive terminal visualizer for a k-way merge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/kway-mergeviz/pkg/config"
	"github.com/dd0wney/kway-mergeviz/pkg/health"
	"github.com/dd0wney/kway-mergeviz/pkg/journal"
	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/metrics"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/pubsub"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mergeviz: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("mergeviz", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the program, so logs only go to a file.
	logger := logging.NewNopLogger()
	if cfg.LogFile != "" {
		fileLogger, closer, err := logging.NewFileLogger(cfg.LogFile, cfg.Level())
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = fileLogger.With(logging.String("service", "mergeviz"))
	}
	logging.SetDefaultLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metrics.NewRegistry()
	checker := health.NewChecker()
	checker.Register("runtime", health.RuntimeCheck())

	opts := []merge.Option{
		merge.WithLogger(logger),
		merge.WithMetrics(reg),
	}
	if cfg.JournalPath != "" {
		jw, err := journal.Create(cfg.JournalPath, journal.WithLogger(logger), journal.WithMetrics(reg))
		if err != nil {
			return err
		}
		defer jw.Close()
		opts = append(opts, merge.WithObserver(jw))
		checker.Register("journal", health.JournalCheck(jw.Err))
	}

	eng, err := merge.New(cfg.EngineConfig(), opts...)
	if err != nil {
		return err
	}

	bus := pubsub.New[playback.Event](pubsub.DefaultBuffer)
	defer bus.Shutdown()

	ctrl := playback.New(eng,
		playback.WithSpeed(cfg.Speed),
		playback.WithEventBus(bus),
		playback.WithLogger(logger),
		playback.WithMetrics(reg),
	)
	defer ctrl.Close()
	checker.Register("playback", health.PlaybackCheck(ctrl.Snapshot))
	checker.Register("event_bus", health.EventBusCheck(bus.Dropped))

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(ctx, cfg.MetricsAddr, reg, checker, logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	sub, err := bus.Subscribe(ctx, playback.Topic)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	logger.Info("starting visualizer",
		logging.Session(eng.Session()),
		logging.Seed(cfg.SeedValue()),
		logging.Int("streams", cfg.Streams),
		logging.Int("stream_length", cfg.StreamLength),
	)

	p := tea.NewProgram(newModel(ctrl, sub.Channel(), cfg.Seed, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// serveMetrics exposes the registry and health report on addr until the
// returned server is shut down, refreshing process gauges while ctx is live.
func serveMetrics(ctx context.Context, addr string, reg *metrics.Registry, checker *health.Checker, logger logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsMux(reg, checker),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logging.Error(err))
		}
	}()

	go func() {
		start := time.Now()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			reg.UpdateSystemMetrics(start)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return srv
}

func metricsMux(reg *metrics.Registry, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.Handle("/healthz", checker.Handler())
	return mux
}
