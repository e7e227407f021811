package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
	"git.home.luguber.info/inful/htmlconcat/internal/observability"
	"git.home.luguber.info/inful/htmlconcat/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceFlags `embed:""`

	Debounce string `help:"Quiet window before rebuilding (overrides watch.debounce)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if w.Debounce != "" {
		cfg.Watch.Debounce = w.Debounce
	}
	if err := w.apply(cfg); err != nil {
		return err
	}
	logger := configureLogging(cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = observability.WithStage(ctx, observability.StageWatch)

	// An initial failure is reported but does not stop watching; the next
	// change may fix it.
	if res, err := RunBuild(ctx, cfg, false, logger); err != nil {
		logger.Error("Initial build failed", logfields.Error(err))
	} else {
		printSummary(g, res, false)
	}

	watcher, err := watch.New(watch.Config{
		Root:     cfg.Input,
		Ignore:   []string{cfg.Output},
		Debounce: cfg.Watch.DebounceDuration(),
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("Rebuilding", logfields.FileCount(len(changed)))
			res, err := RunBuild(ctx, cfg, false, logger)
			if err != nil {
				return err
			}
			printSummary(g, res, false)
			return nil
		},
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
