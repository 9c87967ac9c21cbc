package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are bound into every command's Run.
type Globals struct {
	Stdout io.Writer
	Stdin  io.Reader
}

type CLI struct {
	Version      kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel     string           `help:"Log level (debug, info, warn, error)" default:"info" env:"LOG_LEVEL"`
	Settle       SettleCmd        `cmd:"" help:"Settle a game snapshot offline and print the report as JSON"`
	HashPassword HashPasswordCmd  `cmd:"hash-password" help:"Print a bcrypt hash for seeding a player account"`
	Migrate      MigrateCmd       `cmd:"" help:"Apply the embedded schema to DATABASE_URL"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wsobctl"),
		kong.Description("Operator tools for the WSOB poker league"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&Globals{Stdout: os.Stdout, Stdin: os.Stdin}),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
