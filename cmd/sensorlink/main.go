// Package main implements the entry point for the sensorlink client.
// Sensorlink maintains a supervised websocket session with a remote anomaly
// detection service, tracks the detection session state it derives from the
// message stream, and captures labeled training samples from the live
// telemetry feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/sensorlink/collector"
	"github.com/c360/sensorlink/config"
	"github.com/c360/sensorlink/metric"
	"github.com/c360/sensorlink/session"
	"github.com/c360/sensorlink/supervisor"
)

const (
	appName   = "sensorlink"
	Version   = "1.0.0"
	BuildTime = "dev"

	shutdownTimeout = 10 * time.Second
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

type cliConfig struct {
	configPath   string
	logFormat    string
	deviceID     string
	showVersion  bool
	validateOnly bool
}

func parseFlags() *cliConfig {
	cli := &cliConfig{}
	flag.StringVar(&cli.configPath, "config", "", "path to JSON configuration file")
	flag.StringVar(&cli.logFormat, "log-format", "text", "log output format: text or json")
	flag.StringVar(&cli.deviceID, "device-id", "", "device tag attached to captured samples")
	flag.BoolVar(&cli.showVersion, "version", false, "print version and exit")
	flag.BoolVar(&cli.validateOnly, "validate", false, "validate configuration and exit")
	flag.Parse()
	return cli
}

func run() error {
	cli := parseFlags()

	if cli.showVersion {
		fmt.Printf("%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cli.validateOnly {
		slog.Info("Configuration is valid")
		return nil
	}

	logger := setupLogger(cfg.Log.Level, cli.logFormat)
	slog.SetDefault(logger)
	slog.Info("Starting sensorlink",
		"version", Version,
		"endpoint", cfg.Endpoint.URL,
		"config_path", cli.configPath)

	registry := metric.NewMetricsRegistry()
	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = metricsServer.Stop(5 * time.Second) }()
		slog.Info("Metrics endpoint up", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	sup, err := supervisor.New(cfg, logger, registry)
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}

	ctrl, err := session.New(cfg, sup, logger, registry)
	if err != nil {
		return fmt.Errorf("create session controller: %w", err)
	}

	// The collector sits idle until an operator-facing surface asks for a
	// capture; constructing it here keeps ownership explicit.
	if _, err := collector.New(cfg, ctrl, cli.deviceID, logger, registry); err != nil {
		return fmt.Errorf("create collector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go logReports(ctx, logger, ctrl)

	if err := sup.Initialize(); err != nil {
		return fmt.Errorf("initialize supervisor: %w", err)
	}
	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}

	waitForShutdown(ctx, logger, sup)

	slog.Info("Shutting down", "timeout", shutdownTimeout)
	if err := sup.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("stop supervisor: %w", err)
	}
	slog.Info("Shutdown complete")
	return nil
}

// waitForShutdown blocks until an interrupt arrives. SIGCONT, delivered
// when the process returns to the foreground after a suspension, redials a
// lapsed connection.
func waitForShutdown(ctx context.Context, logger *slog.Logger, sup *supervisor.Supervisor) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	resume := make(chan os.Signal, 1)
	signal.Notify(resume, syscall.SIGCONT)
	defer signal.Stop(stop)
	defer signal.Stop(resume)

	for {
		select {
		case sig := <-stop:
			logger.Info("Received shutdown signal", "signal", sig.String())
			return
		case <-resume:
			sup.OnResume()
		case <-ctx.Done():
			return
		}
	}
}

// logReports drains terminal session reports so every completed detection
// session leaves a trace even without an attached UI.
func logReports(ctx context.Context, logger *slog.Logger, ctrl *session.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-ctrl.Reports():
			logger.Info("Detection session finished",
				"reason", string(report.Reason),
				"decision", report.Analysis.Decision,
				"confidence", report.Analysis.Confidence,
				"predictions", report.Analysis.TotalPredictions,
				"anomalies", report.Analysis.AnomalyCount,
				"anomaly_pct", report.Analysis.AnomalyPercentage,
				"summary", report.Analysis.Summary)
		}
	}
}

func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
