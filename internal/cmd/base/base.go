// Package base holds what every CLI command shares: UI, logger, and a flag
// set wrapper that renders its own help.
package base

import (
	"bytes"
	"flag"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by each CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// NewCommand returns a base command.
func NewCommand(ui cli.Ui, log hclog.Logger) *Command {
	return &Command{UI: ui, Log: log}
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a flag set that reports errors instead of exiting.
func NewFlagSet(name string) *FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(new(bytes.Buffer))
	return &FlagSet{FlagSet: f}
}

// Help renders the flag defaults as a help block.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	orig := f.FlagSet
	orig.SetOutput(&buf)
	orig.PrintDefaults()
	return "Flags:\n" + buf.String()
}
