package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/htmlconcat/cmd/htmlconcat/commands"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("htmlconcat"),
		kong.Description("Concatenate adjacent local scripts and stylesheets in static HTML sites."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
