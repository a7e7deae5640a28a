// Package seed implements the seed command: it loads a YAML fixture of
// users, groups, and documents into the repository.
package seed

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/strongbox/internal/cmd/base"
	"github.com/hashicorp-forge/strongbox/internal/config"
	"github.com/hashicorp-forge/strongbox/internal/db"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

type Command struct {
	*base.Command

	FlagConfig string
}

func (c *Command) Synopsis() string {
	return "Load a YAML fixture into the repository"
}

func (c *Command) Help() string {
	return `Usage: strongbox seed -config=config.hcl fixture.yaml

  Load the users, groups, and document tree described by a YAML fixture
  into the configured repository. Existing users and groups are updated in
  place; documents are planted under the repository root.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("seed")
	f.StringVar(&c.FlagConfig, "config", "", "Path to an HCL configuration file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if len(f.Args()) != 1 {
		c.UI.Error("exactly one fixture path is required")
		return 1
	}
	fixturePath := f.Args()[0]

	var cfg *config.Config
	if c.FlagConfig != "" {
		var err error
		cfg, err = config.NewConfig(c.FlagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
			return 1
		}
	} else {
		cfg = config.Default("strongbox-data")
	}

	fixture, err := repository.LoadSeedFixture(afero.NewOsFs(), fixturePath)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading seed fixture: %v", err))
		return 1
	}

	ctx := context.Background()
	store, err := db.NewStore(ctx, cfg, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening repository: %v", err))
		return 1
	}
	if err := store.Seed(ctx, fixture); err != nil {
		c.UI.Error(fmt.Sprintf("error seeding repository: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Seeded repository from %s", fixturePath))
	return 0
}
