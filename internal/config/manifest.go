package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RunManifest records the resolved configuration for a single run: which
// map and feed were used, the seed, and the filter tuning in effect, so a
// batch-evaluation run or demo session can be reproduced and logged.
type RunManifest struct {
	MapPath         string  `yaml:"map_path"`
	FeedPath        string  `yaml:"feed_path"`
	ConfigPath      string  `yaml:"config_path,omitempty"`
	Seed            int64   `yaml:"seed"`
	NumParticles    int     `yaml:"num_particles"`
	TickIntervalMS  int64   `yaml:"tick_interval_ms"`
	ClassifierNoise float64 `yaml:"classifier_noise"`
	MotionNoise     float64 `yaml:"motion_noise"`
}

// WriteManifest serializes a RunManifest as yaml to path.
func WriteManifest(path string, manifest RunManifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadManifest reads back a previously written RunManifest, for replaying
// or auditing a prior run.
func LoadManifest(path string) (RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunManifest{}, err
	}
	var manifest RunManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return RunManifest{}, err
	}
	return manifest, nil
}
