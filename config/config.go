// Package config loads the runtime's tunables from YAML, mirroring the
// teacher's scheduler.Config (a single flat struct with yaml tags,
// decoded with gopkg.in/yaml.v3 and a zero value that runs).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything SPEC_FULL §6.4 names: the active provenance
// scheme, disjunction-width defaults, the fixed-point iteration cap,
// an optional wall-clock deadline, and the input-file loader's backend
// and concurrency.
type Config struct {
	Scheme            string        `yaml:"scheme"`
	DisjunctionWidthK int           `yaml:"disjunctionWidthK"`
	IterationLimit    int           `yaml:"iterationLimit"`
	Deadline          time.Duration `yaml:"deadline"`
	LoaderBackend     string        `yaml:"loaderBackend"`
	MaxLoaderWorkers  int           `yaml:"maxLoaderWorkers"`
}

// applyDefaults fills the zero value into a fully usable configuration,
// so a caller that never loads a file still gets a runnable Config.
func (c *Config) applyDefaults() {
	if c.DisjunctionWidthK == 0 {
		c.DisjunctionWidthK = 3
	}
	if c.LoaderBackend == "" {
		c.LoaderBackend = "goroutine"
	}
	if c.MaxLoaderWorkers == 0 {
		c.MaxLoaderWorkers = 4
	}
	if c.Scheme == "" {
		c.Scheme = "unit"
	}
}

// Default returns a fully-defaulted, valid Config.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and decodes a YAML config file at path, applying defaults
// to any field the file leaves unset.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}
