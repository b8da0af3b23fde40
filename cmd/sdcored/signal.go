package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacedriveapp/sdcore/internal/config"
)

// shutdownContext returns a context that cancels on the first SIGINT/SIGTERM
// and force-exits on the second, ported from the teacher's shutdownContext:
// the daemon gets one grace window to close every open library and drain
// in-flight jobs before a second signal forces an exit.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, initiating graceful shutdown", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", slog.String("signal", sig.String()))
			os.Exit(1)
		case <-parent.Done():
			return
		}
	}()

	return ctx
}

// watchReload notifies on every SIGHUP until ctx is done, the signal
// sendSIGHUP delivers for `sdcored reload`.
func watchReload(ctx context.Context, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				logger.Info("received SIGHUP: re-reading log level from config file")
				path := flagConfigPath
				if path == "" {
					path = config.DefaultConfigPath()
				}
				if cfg, err := config.Load(path); err == nil {
					logger.Info("config reloaded", slog.String("log_level", cfg.Logging.Level))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
