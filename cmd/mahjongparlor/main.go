package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the mahjong server"`
	Play    PlayCmd          `cmd:"" help:"Connect as an interactive player"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mahjongparlor"),
		kong.Description("Authoritative server and terminal client for four-player mahjong"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
