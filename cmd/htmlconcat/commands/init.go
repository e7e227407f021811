package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/htmlconcat/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Output != "" {
		cfgPath = filepath.Join(i.Output, DefaultConfigPath)
	}
	if err := config.Init(cfgPath, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Wrote configuration to %s\n", cfgPath)
	return nil
}
