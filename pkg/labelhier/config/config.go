// Package config loads analysis settings and the files they point to.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/labelhier/pkg/labelhier/assoc"
	"github.com/cognicore/labelhier/pkg/labelhier/decompose"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

// Config holds the thresholds and paths of one analysis run.
type Config struct {
	PruneMinFreq      int64  `yaml:"prune_min_freq" json:"prune_min_freq"`
	RootMinFreq       int64  `yaml:"root_min_freq" json:"root_min_freq"`
	MapMinFreq        int64  `yaml:"map_min_freq" json:"map_min_freq"`
	DescendantMinFreq *int64 `yaml:"descendant_min_freq,omitempty" json:"descendant_min_freq,omitempty"`
	DescendantPolicy  string `yaml:"descendant_policy" json:"descendant_policy"`
	CohesionRatio     string `yaml:"cohesion_ratio" json:"cohesion_ratio"`
	Workers           int    `yaml:"workers" json:"workers"`
	Stoplist          string `yaml:"stoplist" json:"stoplist"`
	Store             string `yaml:"store" json:"store"`
}

// Default returns the settings used when no config file is given.
func Default() Config {
	return Config{
		PruneMinFreq:     50,
		RootMinFreq:      50,
		MapMinFreq:       100,
		DescendantPolicy: decompose.SinglePath.String(),
		CohesionRatio:    assoc.SumRatio.String(),
		Workers:          1,
	}
}

// Load reads a YAML config file. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects negative thresholds and unknown policy names.
func (c Config) Validate() error {
	thresholds := map[string]int64{
		"prune_min_freq": c.PruneMinFreq,
		"root_min_freq":  c.RootMinFreq,
		"map_min_freq":   c.MapMinFreq,
	}
	if c.DescendantMinFreq != nil {
		thresholds["descendant_min_freq"] = *c.DescendantMinFreq
	}
	for name, v := range thresholds {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d: %w", name, v, internalerr.ErrInvalidConfig)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d: %w", c.Workers, internalerr.ErrInvalidConfig)
	}
	if _, err := decompose.ParsePolicy(c.DescendantPolicy); err != nil {
		return err
	}
	if _, err := assoc.ParseRatio(c.CohesionRatio); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed descendant policy.
func (c Config) Policy() decompose.Policy {
	p, _ := decompose.ParsePolicy(c.DescendantPolicy)
	return p
}

// Ratio returns the parsed cohesion ratio.
func (c Config) Ratio() assoc.Ratio {
	r, _ := assoc.ParseRatio(c.CohesionRatio)
	return r
}
