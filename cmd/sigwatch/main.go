// Command sigwatch prints one line for every notification of the configured
// signals until it receives SIGINT or SIGTERM.
//
//	sigwatch --signal HUP --signal USR1
//	sigwatch -c sigwatch.toml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	sigreceipts "github.com/srozzo/go-signal-receipts"
	"github.com/srozzo/go-signal-receipts/channelnotify"
	"github.com/srozzo/go-signal-receipts/metrics"
)

var shutdownSignals = []syscall.Signal{unix.SIGINT, unix.SIGTERM}

func main() {
	if err := run(os.Args[1:], os.Stdout, nil); err != nil {
		fmt.Fprintln(os.Stderr, "sigwatch:", err)
		os.Exit(1)
	}
}

// run returns after a shutdown signal once everything is uninstalled. ready,
// if set, is called once both signal sets are installed.
func run(args []string, out io.Writer, ready func()) error {
	fs := pflag.NewFlagSet("sigwatch", pflag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", "", "Path to a TOML config file")
	signals := fs.StringSlice("signal", nil, "Signal to watch, by name or number (repeatable)")
	capacity := fs.Int("capacity", 0, "Bound the notification channel (default unbounded)")
	logLevel := fs.String("log-level", "", "Log level")
	logFile := fs.String("log-file", "", "Write logs to a rotating file")
	debug := fs.Bool("debug", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if len(*signals) > 0 {
		cfg.Signals = *signals
	}
	if fs.Changed("capacity") {
		cfg.Capacity = capacity
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sigs, err := cfg.SignalNumbers()
	if err != nil {
		return err
	}
	for _, sig := range sigs {
		if slices.Contains(shutdownSignals, sig) {
			return fmt.Errorf("%s is reserved for shutdown", sigreceipts.SignalName(sig))
		}
	}

	logger, closer, err := newLogger(cfg.Log, *debug)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		_ = closer.Close()
	}()

	return watch(cfg, sigs, logger, *debug, out, ready)
}

func loadConfig(path string) (*sigreceipts.Config, error) {
	if path == "" {
		return &sigreceipts.Config{}, nil
	}
	return sigreceipts.LoadConfig(path)
}

func watch(cfg *sigreceipts.Config, sigs []syscall.Signal, logger *zap.Logger, debug bool, out io.Writer, ready func()) error {
	collector := metrics.NewCollector("sigwatch")
	promReg := prometheus.NewRegistry()
	if err := promReg.Register(collector); err != nil {
		return err
	}

	ctx, release, err := sigreceipts.ContextFor(context.Background(), shutdownSignals,
		sigreceipts.WithLogger(logger), sigreceipts.WithDebug(debug))
	if err != nil {
		return err
	}
	defer release()

	f, err := channelnotify.New(sigs,
		channelnotify.WithLogger(logger),
		channelnotify.WithDebug(debug),
		channelnotify.WithRegistryOptions(
			sigreceipts.WithSemaphoreLimit(cfg.SemaphoreLimit),
			sigreceipts.WithObserver(collector),
		))
	if err != nil {
		return err
	}
	capacity := channelnotify.FromConfig(cfg.Capacity)
	rx, err := channelnotify.Install(f, capacity, channelnotify.Identity)
	if err != nil {
		return err
	}

	logger.Info("watching",
		zap.Strings("signals", cfg.Signals),
		zap.Stringer("capacity", capacity),
		zap.Int("pid", os.Getpid()))
	if ready != nil {
		ready()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		var got *sigreceipts.SignalReceived
		if errors.As(context.Cause(ctx), &got) {
			logger.Info("shutting down", zap.Stringer("receipt", got.Receipt))
		}
		// Finishing closes rx, which ends the print loop.
		return f.Finish(rx)
	})
	g.Go(func() error {
		for sig := range rx.All() {
			if _, err := fmt.Fprintln(out, sigreceipts.SignalName(sig)); err != nil {
				return err
			}
		}
		return nil
	})
	err = g.Wait()

	logStats(logger, promReg)
	return err
}

func logStats(logger *zap.Logger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logger.Warn("gathering stats", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			logger.Info(mf.GetName(), fields...)
		}
	}
}
