// Package config handles cleovm.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a cleovm.toml configuration.
type Config struct {
	Scripts Scripts `toml:"scripts"`
	Store   Store   `toml:"store"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the cleovm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Scripts configures script file locations.
type Scripts struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
}

// Store configures the script archive.
type Store struct {
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Load parses a cleovm.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "cleovm.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return &c, nil
}

// Default returns the configuration used when no cleovm.toml exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if len(c.Scripts.Dirs) == 0 {
		c.Scripts.Dirs = []string{"scripts"}
	}
	if len(c.Scripts.Extensions) == 0 {
		c.Scripts.Extensions = []string{".csa", ".csi"}
	}
	if c.Store.Path == "" {
		c.Store.Path = "cleovm.db"
	}
}

// ScriptDirs returns the script directories resolved against Dir.
func (c *Config) ScriptDirs() []string {
	dirs := make([]string, len(c.Scripts.Dirs))
	for i, d := range c.Scripts.Dirs {
		if filepath.IsAbs(d) {
			dirs[i] = d
		} else {
			dirs[i] = filepath.Join(c.Dir, d)
		}
	}
	return dirs
}

// StorePath returns the archive path resolved against Dir.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}
