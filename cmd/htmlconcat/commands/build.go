package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/htmlconcat/internal/build"
	"git.home.luguber.info/inful/htmlconcat/internal/config"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
	"git.home.luguber.info/inful/htmlconcat/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SourceFlags `embed:""`

	Clean       bool `help:"Remove the output directory before building (overrides build.clean)"`
	DryRun      bool `name:"dry-run" help:"Transform every file but write nothing"`
	Concurrency int  `help:"Documents processed in parallel (overrides build.concurrency)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Clean {
		cfg.Build.Clean = true
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
	if err := b.apply(cfg); err != nil {
		return err
	}
	logger := configureLogging(cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := RunBuild(ctx, cfg, b.DryRun, logger)
	if err != nil {
		return err
	}
	printSummary(g, res, b.DryRun)
	return nil
}

// RunBuild executes one build, exporting metrics when metrics.textfile is set.
func RunBuild(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (*build.BuildResult, error) {
	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		reg      *prom.Registry
	)
	if cfg.Metrics.Textfile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	svc := build.NewBuildService().WithRecorder(recorder).WithLogger(logger)
	res, err := svc.Run(ctx, build.BuildRequest{Config: cfg, DryRun: dryRun})

	if reg != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			logger.Warn("Failed to write metrics", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return res, err
}

func printSummary(g *Global, res *build.BuildResult, dryRun bool) {
	out := g.stdout()
	if dryRun {
		_, _ = fmt.Fprintf(out, "Processed %d files (dry run, nothing written) in %s (%s)\n",
			res.Documents, res.Duration.Round(time.Millisecond), res.Status)
	} else {
		_, _ = fmt.Fprintf(out, "Processed %d files, wrote %d files to %s in %s (%s)\n",
			res.Documents, res.FilesWritten, res.OutputPath, res.Duration.Round(time.Millisecond), res.Status)
	}
	for _, w := range res.Warnings {
		_, _ = fmt.Fprintf(out, "  %s\n", w)
	}
	for _, p := range res.Conflicts {
		_, _ = fmt.Fprintf(out, "  conflicting output: %s\n", p)
	}
}
