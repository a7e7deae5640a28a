package serve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/strongbox/internal/cmd/base"
	"github.com/hashicorp-forge/strongbox/internal/config"
)

func newTestCommand() *Command {
	return &Command{Command: base.NewCommand(cli.NewMockUi(), hclog.NewNullLogger())}
}

func TestLoadConfigZeroConfigPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	c := newTestCommand()

	cfg, err := c.loadConfig([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)

	cfgPath := filepath.Join(dir, "config.hcl")
	require.FileExists(t, cfgPath)

	// Edits to the persisted file are honored on the next run.
	edited := *cfg
	edited.ListenAddr = "127.0.0.1:9999"
	require.NoError(t, config.WriteConfig(&edited, cfgPath))

	again, err := c.loadConfig([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", again.ListenAddr)
	assert.Equal(t, cfg.Database.Path, again.Database.Path)
}

func TestLoadConfigExplicitFileSkipsPersistence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "explicit.hcl")
	require.NoError(t, config.WriteConfig(config.Default(dir), cfgPath))

	c := newTestCommand()
	c.FlagConfig = cfgPath

	cfg, err := c.loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)

	_, err = os.Stat(filepath.Join(dir, "config.hcl"))
	assert.True(t, os.IsNotExist(err))
}
