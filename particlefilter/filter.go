// Package particlefilter implements the Monte-Carlo particle filter that is
// the core of the indoor-localization engine: motion, observation
// weighting against a BuildingMap, weighted random resampling, spatial
// clustering of survivors, and per-cluster pose estimation.
package particlefilter

import (
	"math"
	"math/rand"

	"indoorpf/buildingmap"
	"indoorpf/errlog"
	"indoorpf/feed"
)

// Config is the filter's tunable population, and its population is fixed
// for the lifetime of a filter once constructed.
type Config struct {
	NumParticles         int
	UpdatesPerFrame      int
	ParticleMoveSpeed    float64 // not read by Tick: particles do not move when feed motion is absent
	RandomWalkFrequency  int     // apply random walk every k-th frame; 0 disables
	RandomWalkMaxDist    float64 // uniform displacement bound per axis
	RandomWalkMaxTheta   float64 // uniform heading perturbation bound
	WeightDecayRate      float64 // blends observation weight toward 1; 1 disables
	ClusterBinWidth      float64 // side length of spatial cluster bins
}

// AppliedMotion is the (move_speed, turn_angle) the filter actually applied
// during a tick, returned for downstream display.
type AppliedMotion struct {
	MoveSpeed float64
	TurnAngle float64
}

// ParticleFilter owns the particle population and borrows a BuildingMap and
// FeedProcessor constructed once by the caller. All stochastic draws in a
// tick come from a single PRNG owned by the filter.
type ParticleFilter struct {
	cfg Config
	m   *buildingmap.BuildingMap
	fp  *feed.FeedProcessor
	rng *rand.Rand

	particles []Particle
	frame     int

	clusters []Cluster
	best     int

	groundTruth *feed.GroundTruth
}

// New constructs a filter with cfg.NumParticles particles randomly
// scattered over the map, weight 1.0, and cluster id 0. If rng is nil, a
// source with the fixed seed 1 is used.
func New(cfg Config, m *buildingmap.BuildingMap, fp *feed.FeedProcessor, rng *rand.Rand) *ParticleFilter {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	pf := &ParticleFilter{
		cfg: cfg,
		m:   m,
		fp:  fp,
		rng: rng,
	}
	pf.particles = make([]Particle, cfg.NumParticles)
	for i := range pf.particles {
		pf.particles[i] = pf.randomParticle()
	}
	return pf
}

func (pf *ParticleFilter) randomParticle() Particle {
	w, h := pf.m.Width, pf.m.Height
	x, y := 0.0, 0.0
	if w > 0 {
		x = float64(1 + pf.rng.Intn(w))
	}
	if h > 0 {
		y = float64(1 + pf.rng.Intn(h))
	}
	return Particle{
		X:     x,
		Y:     y,
		Theta: pf.rng.Float64() * 2 * math.Pi,
		Weight: 1.0,
	}
}

// Particles returns a read-only snapshot of the current population.
func (pf *ParticleFilter) Particles() []Particle {
	out := make([]Particle, len(pf.particles))
	copy(out, pf.particles)
	return out
}

// Clusters returns the cluster list emitted by the most recent tick.
func (pf *ParticleFilter) Clusters() []Cluster {
	out := make([]Cluster, len(pf.clusters))
	copy(out, pf.clusters)
	return out
}

// Best returns the index into Clusters() of the current top-choice
// hypothesis.
func (pf *ParticleFilter) Best() int {
	return pf.best
}

// GroundTruth returns the most recently observed ground truth, if any.
func (pf *ParticleFilter) GroundTruth() *feed.GroundTruth {
	return pf.groundTruth
}

// Frame returns the number of internal updates applied so far.
func (pf *ParticleFilter) Frame() int {
	return pf.frame
}

// Tick pulls the next observation from the feed and applies
// cfg.UpdatesPerFrame internal updates (move, random walk, reweight,
// normalize, resample, cluster). It returns the motion actually applied
// for downstream display; motion is pulled once per external tick and
// reused for every internal update, per the algorithm's ordering.
func (pf *ParticleFilter) Tick() AppliedMotion {
	if pf.cfg.NumParticles == 0 {
		return AppliedMotion{}
	}

	obs := pf.fp.Next()
	pf.groundTruth = obs.GroundTruth
	if obs.RegionProbs != nil {
		pf.m.SetProbabilities(obs.RegionProbs)
	}

	var applied AppliedMotion
	if obs.Motion != nil {
		applied = AppliedMotion{MoveSpeed: obs.Motion.MoveSpeed, TurnAngle: obs.Motion.TurnAngle}
	}

	for i := 0; i < pf.cfg.UpdatesPerFrame; i++ {
		pf.move(obs.Motion)
		pf.randomWalk()
		maxW := pf.reweight()
		pf.normalize(maxW)
		pf.resample()
		pf.clusterAndEstimate()
		pf.frame++
	}

	return applied
}

// move advances every particle by (move_speed*cos(theta), move_speed*sin(theta))
// when motion is present, then applies a symmetric turn jitter to every
// particle: each particle draws a sign uniformly and adds sign*turn_angle
// to its heading. Without motion, neither step runs. Half the
// population rotates each way, preserving multi-hypothesis coverage when
// the true turn direction is ambiguous.
func (pf *ParticleFilter) move(motion *feed.Motion) {
	if motion != nil {
		for i := range pf.particles {
			p := &pf.particles[i]
			p.X += motion.MoveSpeed * math.Cos(p.Theta)
			p.Y += motion.MoveSpeed * math.Sin(p.Theta)
		}
		for i := range pf.particles {
			p := &pf.particles[i]
			sign := 1.0
			if pf.rng.Intn(2) == 0 {
				sign = -1.0
			}
			p.Theta += sign * motion.TurnAngle
		}
	}
}

// randomWalk perturbs every particle's position and heading uniformly,
// every random_walk_frequency-th frame, to inject exploration entropy.
func (pf *ParticleFilter) randomWalk() {
	freq := pf.cfg.RandomWalkFrequency
	if freq == 0 || pf.frame%freq != 0 {
		return
	}

	halfD := int(pf.cfg.RandomWalkMaxDist) / 2
	halfTheta := pf.cfg.RandomWalkMaxTheta / 2

	for i := range pf.particles {
		p := &pf.particles[i]
		p.X += float64(pf.randIntRange(halfD))
		p.Y += float64(pf.randIntRange(halfD))
		p.Theta += pf.randFloatRange(halfTheta)
	}
}

// randIntRange returns a uniform integer in [-half, half).
func (pf *ParticleFilter) randIntRange(half int) int {
	if half <= 0 {
		return 0
	}
	return pf.rng.Intn(2*half) - half
}

// randFloatRange returns a uniform float64 in [-half, half).
func (pf *ParticleFilter) randFloatRange(half float64) float64 {
	if half <= 0 {
		return 0
	}
	return pf.rng.Float64()*2*half - half
}

// reweight scores every particle against the map's current region
// likelihoods, blending by weight_decay_rate, and returns the maximum
// resulting weight observed.
func (pf *ParticleFilter) reweight() float64 {
	decay := pf.cfg.WeightDecayRate
	maxW := 0.0
	for i := range pf.particles {
		p := &pf.particles[i]
		wObs := pf.m.ProbabilityOf(int(p.X), int(p.Y))
		wObs = wObs + (1-wObs)*(1-decay)
		p.Weight *= wObs
		if p.Weight > maxW {
			maxW = p.Weight
		}
	}
	return maxW
}

// normalize scales every weight so the peak is 1.0. If maxW is non-positive
// the population has lost confidence everywhere: the step is logged and
// skipped, leaving particles with their stale weights.
func (pf *ParticleFilter) normalize(maxW float64) {
	if maxW <= 0 {
		errlog.Log("max particle weight is non-positive; skipping normalize for this update")
		return
	}
	for i := range pf.particles {
		pf.particles[i].Weight /= maxW
	}
}

// resample draws a fresh population of size N by repeated weighted
// selection: for each output slot, pick a uniform target in
// [0, weight_sum) and linearly scan accumulating weight until the
// cumulative sum reaches the target. Clones carry no lineage across
// resampling.
func (pf *ParticleFilter) resample() {
	weightSum := 0.0
	for _, p := range pf.particles {
		weightSum += p.Weight
	}
	if weightSum <= 0 {
		return
	}

	next := make([]Particle, len(pf.particles))
	for slot := range next {
		target := pf.rng.Float64() * weightSum
		acc := 0.0
		chosen := len(pf.particles) - 1
		for i, p := range pf.particles {
			acc += p.Weight
			if acc >= target {
				chosen = i
				break
			}
		}
		next[slot] = pf.particles[chosen].clone()
	}
	pf.particles = next
}
