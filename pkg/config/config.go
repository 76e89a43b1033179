// Package config handles mc.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"gomc/pkg/vm"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "mc.toml"

// Config represents an mc.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Machine Machine `toml:"machine"`
	Build   Build   `toml:"build"`

	// Dir is the directory containing the mc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where compilation starts.
type Source struct {
	Entry string `toml:"entry"`
}

// Machine configures the machine a program runs on.
type Machine struct {
	Entry  string `toml:"entry"`
	Memory int    `toml:"memory"`
}

// Build configures object file output.
type Build struct {
	Output string `toml:"output"`
}

// Load parses the mc.toml file in the given directory and applies
// defaults.
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

	if c.Source.Entry == "" {
		c.Source.Entry = "main.mc"
	}
	if c.Machine.Entry == "" {
		c.Machine.Entry = "0xf000"
	}
	if c.Machine.Memory == 0 {
		c.Machine.Memory = vm.MemorySize
	}
	if c.Machine.Memory < vm.MemorySize {
		return nil, fmt.Errorf("machine memory %d in %s is below the minimum %d", c.Machine.Memory, path, vm.MemorySize)
	}
	if c.Build.Output == "" && c.Project.Name != "" {
		c.Build.Output = c.Project.Name + ".mco"
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find an mc.toml file, then loads
// and returns it. Returns nil if no manifest is found.
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
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry source file.
func (c *Config) EntryPath() string {
	return filepath.Join(c.Dir, c.Source.Entry)
}

// EntryAddress parses the configured load address.
func (c *Config) EntryAddress() (vm.Value, error) {
	v, err := vm.ParseValue(c.Machine.Entry)
	if err != nil {
		return 0, fmt.Errorf("bad machine entry in %s: %w", filepath.Join(c.Dir, FileName), err)
	}
	return v, nil
}

// OutputPath returns the absolute path objects are written to, or "" when
// no output is configured.
func (c *Config) OutputPath() string {
	if c.Build.Output == "" {
		return ""
	}
	return filepath.Join(c.Dir, c.Build.Output)
}
