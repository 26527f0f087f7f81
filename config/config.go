// Package config handles incr.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/incr/oo"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "incr.toml"

// Config represents an incr.toml file.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime"`
	Log     LogConfig     `toml:"log"`
	Store   StoreConfig   `toml:"store"`
	Defs    DefsConfig    `toml:"defs"`

	// Dir is the directory containing the incr.toml file (set at load time).
	Dir string `toml:"-"`
}

// RuntimeConfig configures the object runtime.
type RuntimeConfig struct {
	StorageNamespace string `toml:"storage-namespace"`
	Autoload         bool   `toml:"autoload"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	// Verbosity is 0 for errors and warnings only; each step adds a level.
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// StoreConfig locates the class store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// DefsConfig lists class definition files loaded at startup.
type DefsConfig struct {
	Files []string `toml:"files"`
}

// Default returns the configuration used when no incr.toml exists.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			StorageNamespace: oo.DefaultStorageNamespace,
			Autoload:         true,
		},
		Store: StoreConfig{Path: filepath.Join(".incr", "classes.db")},
	}
}

// Load parses incr.toml from the given directory. Keys missing from the
// file keep their defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if c.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log verbosity must not be negative", path)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find an incr.toml file, then
// loads it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// RuntimeConfig converts the [runtime] table for oo.New.
func (c *Config) RuntimeConfig() *oo.Config {
	return &oo.Config{
		StorageNamespace: c.Runtime.StorageNamespace,
		Autoload:         c.Runtime.Autoload,
	}
}

// StorePath returns the store path, relative paths taken from Dir.
func (c *Config) StorePath() string {
	return c.resolve(c.Store.Path)
}

// DefsPaths returns the definition files, relative paths taken from Dir.
func (c *Config) DefsPaths() []string {
	paths := make([]string, len(c.Defs.Files))
	for i, f := range c.Defs.Files {
		paths[i] = c.resolve(f)
	}
	return paths
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ConfigureLogging applies the [log] table to commonlog.
func ConfigureLogging(lc LogConfig) {
	var path *string
	if lc.File != "" {
		path = &lc.File
	}
	commonlog.Configure(lc.Verbosity, path)
}
