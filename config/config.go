// Package config handles fino.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	finov1 "github.com/sysdream/fino/api/finov1"
	"github.com/sysdream/fino/macro"
)

// FileName is the name of the configuration file.
const FileName = "fino.toml"

// Config represents a fino.toml configuration.
type Config struct {
	Server Server `toml:"server"`
	Macros Macros `toml:"macros"`
	Log    Log    `toml:"log"`

	// Dir is the directory containing the fino.toml file (set at load time).
	Dir string `toml:"-"`
}

// Server configures the listener.
type Server struct {
	Addr  string `toml:"addr"`
	Codec string `toml:"codec"`
}

// Macros configures the macro store and the trust policy.
type Macros struct {
	Dir            string   `toml:"dir"`
	AllowedKinds   []string `toml:"allowed-kinds"`
	AllowedDigests []string `toml:"allowed-digests"`
	DeniedDigests  []string `toml:"denied-digests"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when there is no fino.toml.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:7700"
	}
	if c.Server.Codec == "" {
		c.Server.Codec = "cbor"
	}
	if c.Macros.Dir == "" {
		c.Macros.Dir = filepath.Join(".fino", "macros")
	}
}

// Load parses a fino.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
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

// FindAndLoad walks up from startDir to find a fino.toml file, then loads
// and returns it. Returns nil if no file is found.
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

// MacroDir returns the macro store directory, resolved against Dir.
func (c *Config) MacroDir() string {
	if filepath.IsAbs(c.Macros.Dir) || c.Dir == "" {
		return c.Macros.Dir
	}
	return filepath.Join(c.Dir, c.Macros.Dir)
}

// Codec returns the configured wire codec.
func (c *Config) Codec() (finov1.Codec, error) {
	return finov1.CodecByName(c.Server.Codec)
}

// Policy builds the macro trust policy. No allowed kinds means every kind
// is allowed.
func (c *Config) Policy() (*macro.Policy, error) {
	p := macro.NewPermissivePolicy()
	for _, k := range c.Macros.AllowedKinds {
		switch kind := macro.Kind(k); kind {
		case macro.KindPlugin, macro.KindScript:
			p.AllowKind(kind)
		default:
			return nil, fmt.Errorf("unknown macro kind %q in [macros] allowed-kinds", k)
		}
	}
	for _, d := range c.Macros.AllowedDigests {
		p.Allow(d)
	}
	for _, d := range c.Macros.DeniedDigests {
		p.Deny(d)
	}
	return p, nil
}
