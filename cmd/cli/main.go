package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/ledenhub/ledenhub/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Whoami  commands.WhoamiCmd `cmd:"" help:"Show the authenticated principal"`
		Orgs    commands.OrgsCmd   `cmd:"" help:"Manage organisations"`
		Server  string             `help:"Portal URL" default:"https://portal.ledenhub.nl" env:"LEDENHUB_SERVER"`
		Token   string             `help:"Bearer token of a platform admin" env:"LEDENHUB_TOKEN"`
		Tracing bool               `help:"Trace outgoing requests" env:"LEDENHUB_TRACING"`
		Debug   bool               `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("ledenctl"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Server:  cli.Server,
		Token:   cli.Token,
		Tracing: cli.Tracing,
	})
	cmd.FatalIfErrorf(err)
}
