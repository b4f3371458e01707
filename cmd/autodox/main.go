package main

import (
	"github.com/alecthomas/kong"

	"github.com/ekumenlabs/autodox/cmd/autodox/commands"
	"github.com/ekumenlabs/autodox/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("autodox"),
		kong.Description("Generate and convert doxygen API documentation for embedding in Sphinx sites"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
