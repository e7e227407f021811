package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/htmlconcat/internal/config"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// DefaultConfigPath is used when -c is not given.
const DefaultConfigPath = "htmlconcat.yaml"

// Global carries state shared by subcommands.
type Global struct {
	// Stdout receives user-facing output; os.Stdout when nil.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"htmlconcat.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Concatenate assets of every HTML document under the input directory"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the input directory changes"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// configureLogging replaces the default logger with one honouring the
// config's level and format. -v always wins over logging.level.
func configureLogging(cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.Logging.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads root.Config. A missing file at the default path falls back
// to built-in defaults so the tool works without any configuration.
func loadConfig(root *CLI) (*config.Config, error) {
	if _, err := os.Stat(root.Config); os.IsNotExist(err) && root.Config == DefaultConfigPath {
		slog.Debug("No configuration file found, using defaults", logfields.Path(root.Config))
		return config.Default(), nil
	}
	return config.Load(root.Config)
}

// SourceFlags override the configured input and output trees.
type SourceFlags struct {
	Input  string `short:"i" help:"Input directory (overrides config input)"`
	Output string `short:"o" help:"Output directory (overrides config output)"`
}

// apply copies set flags onto cfg and revalidates it.
func (f SourceFlags) apply(cfg *config.Config) error {
	if f.Input != "" {
		cfg.Input = f.Input
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	return config.ValidateConfig(cfg)
}
