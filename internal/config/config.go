// Package config loads and writes the server's HCL configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Config is the top-level server configuration.
type Config struct {
	// BaseURL is the public base URL of the server.
	BaseURL string `hcl:"base_url,optional"`

	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogFormat is "standard" or "json".
	LogFormat string `hcl:"log_format,optional"`

	// DataDir is the directory holding database, blobs, and search index
	// when their locations are not set explicitly.
	DataDir string `hcl:"data_dir,optional"`

	// SeedFile is an optional YAML fixture loaded at startup.
	SeedFile string `hcl:"seed_file,optional"`

	// Database is the database configuration.
	Database *Database `hcl:"database,block"`
}

// Database configures the backing database. Driver is "sqlite" or
// "postgres".
type Database struct {
	Driver string `hcl:"driver,optional"`

	// SQLite.
	Path string `hcl:"path,optional"`

	// PostgreSQL.
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
}

const (
	DefaultListenAddr = "127.0.0.1:8000"
	DefaultLogFormat  = "standard"
)

// NewConfig parses the HCL configuration file at path.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the zero-config setup rooted at dataDir: embedded SQLite,
// local blob store, local search index.
func Default(dataDir string) *Config {
	cfg := &Config{
		ListenAddr: DefaultListenAddr,
		DataDir:    dataDir,
		Database: &Database{
			Driver: "sqlite",
			Path:   filepath.Join(dataDir, "strongbox.db"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://" + c.ListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.Database == nil {
		c.Database = &Database{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, "strongbox.db")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

// BlobDir returns the directory of the content store.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blobs")
}

// IndexPath returns the location of the full-text search index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "search-index")
}

// WriteConfig renders cfg as HCL to path.
func WriteConfig(cfg *Config, path string) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue("listen_addr", cty.StringVal(cfg.ListenAddr))
	body.SetAttributeValue("base_url", cty.StringVal(cfg.BaseURL))
	body.SetAttributeValue("log_format", cty.StringVal(cfg.LogFormat))
	body.SetAttributeValue("data_dir", cty.StringVal(cfg.DataDir))
	if cfg.SeedFile != "" {
		body.SetAttributeValue("seed_file", cty.StringVal(cfg.SeedFile))
	}

	if cfg.Database != nil {
		dbBody := body.AppendNewBlock("database", nil).Body()
		dbBody.SetAttributeValue("driver", cty.StringVal(cfg.Database.Driver))
		switch cfg.Database.Driver {
		case "sqlite":
			dbBody.SetAttributeValue("path", cty.StringVal(cfg.Database.Path))
		case "postgres":
			dbBody.SetAttributeValue("host", cty.StringVal(cfg.Database.Host))
			dbBody.SetAttributeValue("port", cty.NumberIntVal(int64(cfg.Database.Port)))
			dbBody.SetAttributeValue("user", cty.StringVal(cfg.Database.User))
			dbBody.SetAttributeValue("password", cty.StringVal(cfg.Database.Password))
			dbBody.SetAttributeValue("dbname", cty.StringVal(cfg.Database.DBName))
			dbBody.SetAttributeValue("sslmode", cty.StringVal(cfg.Database.SSLMode))
		}
	}

	return os.WriteFile(path, f.Bytes(), 0o644)
}
