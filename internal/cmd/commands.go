package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/strongbox/internal/cmd/base"
	"github.com/hashicorp-forge/strongbox/internal/cmd/commands/seed"
	"github.com/hashicorp-forge/strongbox/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/strongbox/internal/cmd/commands/version"
)

// Commands is the command registry used by Main.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(ui, log)

	Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"seed": func() (cli.Command, error) {
			return &seed.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
