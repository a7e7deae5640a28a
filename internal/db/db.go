// Package db assembles the repository store from configuration: database
// connection, blob store, and search index.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/strongbox/internal/config"
	"github.com/hashicorp-forge/strongbox/pkg/database"
	"github.com/hashicorp-forge/strongbox/pkg/repository"
)

// NewStore opens the configured database and returns a bootstrapped
// repository store with its content store and search index attached.
func NewStore(ctx context.Context, cfg *config.Config, log hclog.Logger) (*repository.Store, error) {
	dbCfg := database.Config{
		Driver:         cfg.Database.Driver,
		Path:           cfg.Database.Path,
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		DBName:         cfg.Database.DBName,
		SSLMode:        cfg.Database.SSLMode,
		ConnectTimeout: 30 * time.Second,
	}
	gormDB, err := database.Connect(dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.BlobDir())
	content := repository.NewContentStore(fs)

	index, err := repository.OpenIndex(cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("error opening search index: %w", err)
	}

	store := repository.NewStore(gormDB, index, content, log)
	if err := store.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("error bootstrapping repository: %w", err)
	}
	return store, nil
}
