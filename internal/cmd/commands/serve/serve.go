// Package serve implements the serve command: it assembles the store, the
// box service, and the HTTP API, then runs the server until interrupted.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/strongbox/internal/cmd/base"
	"github.com/hashicorp-forge/strongbox/internal/config"
	"github.com/hashicorp-forge/strongbox/internal/db"
	"github.com/hashicorp-forge/strongbox/internal/server"
	"github.com/hashicorp-forge/strongbox/pkg/adapter"
	"github.com/hashicorp-forge/strongbox/pkg/repository"

	api "github.com/hashicorp-forge/strongbox/internal/api/v2"
)

type Command struct {
	*base.Command

	FlagConfig  string
	FlagAddr    string
	FlagBrowser bool
}

func (c *Command) Synopsis() string {
	return "Run the server (zero-config mode or with an explicit config file)"
}

func (c *Command) Help() string {
	return `Usage: strongbox serve [path]
       strongbox serve -config=config.hcl

  Run the Strongbox server.

  Zero-Config Mode:
    ./strongbox serve                 - Uses ./strongbox-data/ in the
                                        current directory
    ./strongbox serve /path/to/data   - Uses the specified data directory

  In zero-config mode the server auto-creates the data directory, uses an
  embedded SQLite database, stores content blobs on the local filesystem,
  and serves on http://` + config.DefaultListenAddr + `.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("serve")
	f.StringVar(&c.FlagConfig, "config", "", "Path to an HCL configuration file")
	f.StringVar(&c.FlagAddr, "addr", "", "Listen address, overrides the configuration")
	f.BoolVar(&c.FlagBrowser, "browser", false, "Open a browser once the server is ready")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.loadConfig(f.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if c.FlagAddr != "" {
		cfg.ListenAddr = c.FlagAddr
		cfg.BaseURL = "http://" + c.FlagAddr
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.NewStore(ctx, cfg, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening repository: %v", err))
		return 1
	}

	if cfg.SeedFile != "" {
		fixture, err := repository.LoadSeedFixture(afero.NewOsFs(), cfg.SeedFile)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading seed fixture: %v", err))
			return 1
		}
		if err := store.Seed(ctx, fixture); err != nil {
			c.UI.Error(fmt.Sprintf("error seeding repository: %v", err))
			return 1
		}
		c.Log.Info("seed fixture applied", "path", cfg.SeedFile)
	}

	svc := adapter.NewService(store, store.Directory(), c.Log.Named("box"))
	srv := server.Server{
		Box:    svc,
		Config: cfg,
		Logger: c.Log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("/api/v2/folders", api.FoldersHandler(srv))
	mux.Handle("/api/v2/folders/", api.FoldersHandler(srv))
	mux.Handle("/api/v2/files/", api.FilesHandler(srv))
	mux.Handle("/api/v2/collaborations", api.CollaborationsHandler(srv))
	mux.Handle("/api/v2/collaborations/", api.CollaborationsHandler(srv))
	mux.Handle("/api/v2/search", api.SearchHandler(srv))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	if c.FlagBrowser {
		go c.launchBrowser(cfg.BaseURL)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	c.UI.Info(fmt.Sprintf("Strongbox listening on %s", cfg.BaseURL))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.UI.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case <-ctx.Done():
		c.UI.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}
	return 0
}

// loadConfig resolves the effective configuration: an explicit config file
// when given, else the zero-config data directory from the remaining
// arguments or the working directory.
func (c *Command) loadConfig(args []string) (*config.Config, error) {
	if c.FlagConfig != "" {
		cfg, err := config.NewConfig(c.FlagConfig)
		if err != nil {
			return nil, fmt.Errorf("error loading configuration: %w", err)
		}
		return cfg, nil
	}

	dataDir := ""
	if len(args) > 0 {
		dataDir = args[0]
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}
		dataDir = filepath.Join(cwd, "strongbox-data")
	}
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving data directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}
	c.UI.Info(fmt.Sprintf("Using data directory %s", absDir))

	// A config persisted by an earlier run wins, so edits to it stick.
	cfgPath := filepath.Join(absDir, "config.hcl")
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := config.NewConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("error loading configuration: %w", err)
		}
		return cfg, nil
	}
	cfg := config.Default(absDir)
	if err := config.WriteConfig(cfg, cfgPath); err != nil {
		return nil, fmt.Errorf("error writing configuration: %w", err)
	}
	c.UI.Info(fmt.Sprintf("Wrote configuration to %s", cfgPath))
	return cfg, nil
}
