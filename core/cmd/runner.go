// Package cmd hosts the process-level runner: config discovery, signal
// handling, and the bot runtime lifecycle.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	coretelegram "github.com/m3rciful/tagbot/core/telegram"

	"log/slog"
)

// App is what the runner needs from the assembled application.
type App interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to assemble and run the bot.
type Options struct {
	// ConfigEnvVar names the env variable pointing at the config file.
	// Defaults to CONFIG_PATH; DefaultConfigPath is the fallback.
	ConfigEnvVar      string
	DefaultConfigPath string

	// Build loads config from path and assembles the application. The
	// logger is expected to be initialized before Build returns.
	Build func(path string) (App, error)
}

// Run resolves the config path, builds the app, and runs the bot until
// SIGINT/SIGTERM.
func Run(opts Options) error {
	if opts.Build == nil {
		return fmt.Errorf("cmd: Build is required")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	log.Printf("loading config: %s", cfgPath)
	application, err := opts.Build(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: build failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	startedAt := time.Now()
	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.L.With("component", "app").Info("app ready",
			slog.String("event", "ready"),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.L.With("component", "app").Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return coretelegram.RunTelegram(ctx, runOpts)
}
