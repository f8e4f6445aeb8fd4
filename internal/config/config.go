// Package config loads the KEY=value run configuration file and exposes
// it as a typed, defaulted settings struct, with optional environment
// variable override for unattended/containerized runs.
package config

import (
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"

	"indoorpf/particlefilter"
)

// Settings is the fully-resolved run configuration: filter tuning plus
// ambient concerns (log verbosity, RNG seed).
type Settings struct {
	NumParticles        int
	UpdatesPerFrame     int
	ParticleMoveSpeed   float64
	RandomWalkFrequency int
	RandomWalkMaxDist   float64
	RandomWalkMaxTheta  float64
	WeightDecayRate     float64
	ClusterBinWidth     float64

	StartX     int
	StartY     int
	StartTheta float64
	HasStart   bool

	LogLevel string
	Seed     int64
}

const (
	keyNumParticles        = "NUM_PARTICLES"
	keyUpdatesPerFrame     = "UPDATES_PER_FRAME"
	keyParticleMoveSpeed   = "PARTICLE_MOVE_SPEED"
	keyRandomWalkFrequency = "RANDOM_WALK_FREQUENCY"
	keyRandomWalkMaxDist   = "RANDOM_WALK_MAX_DIST"
	keyRandomWalkMaxTheta  = "RANDOM_WALK_MAX_THETA"
	keyWeightDecayRate     = "WEIGHT_DECAY_RATE"
	keyClusterBinWidth     = "CLUSTER_BIN_WIDTH"
	keyStartX              = "START_X"
	keyStartY              = "START_Y"
	keyStartTheta          = "START_THETA"
	keyLogLevel            = "LOG_LEVEL"
	keySeed                = "SEED"
)

// defaults mirrors the documented defaults for every recognized key.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		keyNumParticles:        2000,
		keyUpdatesPerFrame:     1,
		keyParticleMoveSpeed:   3.0,
		keyRandomWalkFrequency: 3,
		keyRandomWalkMaxDist:   80.0,
		keyRandomWalkMaxTheta:  math.Pi / 4,
		keyWeightDecayRate:     1.0,
		keyClusterBinWidth:     20.0,
		keyLogLevel:            "info",
		keySeed:                0,
	}
}

// Load reads a KEY=value properties-style config file at path, applying
// documented defaults for any key left unset. Environment variables
// prefixed INDOORPF_ take precedence over the file, matching viper's
// usual override order. A missing file is not an error: defaults apply
// to every key.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("props")
	v.SetEnvPrefix("indoorpf")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Settings{}, err
			}
		}
	}

	s := Settings{
		NumParticles:        v.GetInt(keyNumParticles),
		UpdatesPerFrame:     v.GetInt(keyUpdatesPerFrame),
		ParticleMoveSpeed:   v.GetFloat64(keyParticleMoveSpeed),
		RandomWalkFrequency: v.GetInt(keyRandomWalkFrequency),
		RandomWalkMaxDist:   v.GetFloat64(keyRandomWalkMaxDist),
		RandomWalkMaxTheta:  v.GetFloat64(keyRandomWalkMaxTheta),
		WeightDecayRate:     v.GetFloat64(keyWeightDecayRate),
		ClusterBinWidth:     v.GetFloat64(keyClusterBinWidth),
		LogLevel:            v.GetString(keyLogLevel),
		Seed:                v.GetInt64(keySeed),
	}

	if v.IsSet(keyStartX) && v.IsSet(keyStartY) {
		s.StartX = v.GetInt(keyStartX)
		s.StartY = v.GetInt(keyStartY)
		s.StartTheta = v.GetFloat64(keyStartTheta)
		s.HasStart = true
	}

	return s, nil
}

// FilterConfig projects the subset of Settings the particle filter itself
// consumes.
func (s Settings) FilterConfig() particlefilter.Config {
	return particlefilter.Config{
		NumParticles:        s.NumParticles,
		UpdatesPerFrame:     s.UpdatesPerFrame,
		ParticleMoveSpeed:   s.ParticleMoveSpeed,
		RandomWalkFrequency: s.RandomWalkFrequency,
		RandomWalkMaxDist:   s.RandomWalkMaxDist,
		RandomWalkMaxTheta:  s.RandomWalkMaxTheta,
		WeightDecayRate:     s.WeightDecayRate,
		ClusterBinWidth:     s.ClusterBinWidth,
	}
}
