package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ledenhub/ledenhub/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode." env:"LEDENHUB_DEBUG"`
		Version kong.VersionFlag
		Server  commands.ServerCmd  `cmd:"" default:"withargs" help:"Start the API server"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply PostgreSQL migrations and exit"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("ledenhub"),
		kong.Description("Multi-tenant membership administration API."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
