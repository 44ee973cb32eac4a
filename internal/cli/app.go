package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfswap/internal/config"
	"github.com/roach88/shelfswap/internal/cover"
	"github.com/roach88/shelfswap/internal/engine"
	"github.com/roach88/shelfswap/internal/notify"
	"github.com/roach88/shelfswap/internal/store"
)

// closeTimeout bounds how long Close waits for pending commits.
const closeTimeout = 30 * time.Second

// App is the engine with everything it is wired to for one command.
type App struct {
	Config config.Config
	Engine *engine.Engine
	Logger *slog.Logger

	store    *store.Store
	covers   cover.Resolver
	notifier *notify.Notifier
}

// loadConfig loads the configuration named by the global flags.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger returns a text logger on w. Verbose forces debug level.
func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	lvl := parseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openApp loads config, opens the store, cover resolver and notifier, and
// opens the engine on top of them. Failures are reported through f and
// returned as command errors.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.Verbose)

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	covers, err := cover.New(ctx, cfg.Cover)
	if err != nil {
		st.Close()
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to set up cover storage", err)
	}

	notifier, err := notify.Open(ctx, cfg.Notify)
	if err != nil {
		if c, ok := covers.(io.Closer); ok {
			_ = c.Close()
		}
		st.Close()
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to set up notifications", err)
	}

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithCoverResolver(covers),
		engine.WithSeedUsers(cfg.Users()...),
	}
	if notifier != nil {
		engOpts = append(engOpts, engine.WithPublisher(notifier))
	}

	eng, err := engine.Open(ctx, st, engOpts...)
	if err != nil {
		if c, ok := covers.(io.Closer); ok {
			_ = c.Close()
		}
		if notifier != nil {
			_ = notifier.Close()
		}
		st.Close()
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open engine", err)
	}

	return &App{
		Config:   cfg,
		Engine:   eng,
		Logger:   logger,
		store:    st,
		covers:   covers,
		notifier: notifier,
	}, nil
}

// Close flushes the engine, then closes cover storage, the notifier and
// the store.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if err := a.Engine.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close engine: %w", err))
	}
	if c, ok := a.covers.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cover storage: %w", err))
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notifier: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withApp opens the App, runs fn and closes the App. A close failure is
// logged but does not override fn's result.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, app *App, f *OutputFormatter) error) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts, cmd)

	app, err := openApp(ctx, opts, cmd, f)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Error("shutdown failed", "error", err)
		}
	}()

	return fn(ctx, app, f)
}
