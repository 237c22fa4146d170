// Package config provides the optional configuration file for bv.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds startup defaults. Command-line flags override every
// field here except LoadBatch, which has no flag.
type Config struct {
	Mode         string `toml:"mode"`          // oneline | pretty | tostring | logs
	ExtendedJSON bool   `toml:"extended-json"` // start in the extended (canonical) flavor
	LoadBatch    int    `toml:"load-batch"`    // documents parsed per idle tick
	Log          string `toml:"log"`           // debug log path
	LogLevel     string `toml:"log-level"`     // debug | info | warn | error
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:      "oneline",
		LoadBatch: 100,
		LogLevel:  "info",
	}
}

// Path returns the location of the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bv", "config.toml"), nil
}

// Load reads the config file if it exists. A missing file yields the
// defaults; a malformed file is an error.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return load(path)
}

func load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bad config file %s: %w", path, err)
	}
	if cfg.LoadBatch <= 0 {
		cfg.LoadBatch = Default().LoadBatch
	}
	return cfg, nil
}
