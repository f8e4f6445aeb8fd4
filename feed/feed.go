// Package feed implements the lazy, line-oriented observation stream that
// drives the particle filter: per-tick region-probability vectors, motion,
// and optional ground truth, with optional noise injection and looping.
package feed

import (
	"bufio"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"indoorpf/errlog"
)

// Motion is the odometry/turn-angle pair attached to a tick by a '+' line.
type Motion struct {
	MoveSpeed float64
	TurnAngle float64
}

// GroundTruth is the pose attached to a tick by a '!' line.
type GroundTruth struct {
	X, Y  int
	Theta float64
}

// Observation is one tick's data triple. RegionProbs, Motion, and
// GroundTruth are nil when absent, and all three are nil for the sentinel
// triple returned once the stream is exhausted and not looping.
type Observation struct {
	RegionProbs []float64
	Motion      *Motion
	GroundTruth *GroundTruth
}

// Options configures noise injection and looping behavior. The zero value
// means no noise and no looping.
type Options struct {
	LoopFeed        bool
	ClassifierNoise float64 // sigma >= 0
	MotionNoise     float64 // mu >= 0
	IgnoreRegions   bool
	// Rand is the single PRNG used for every stochastic draw in this
	// processor. If nil, a private source with the fixed seed 1 is used.
	Rand *rand.Rand
}

// FeedProcessor is a parsed, in-memory observation sequence with optional
// looping and noise injection. It owns the backing vectors for the
// sequence; the stream is consumed once per tick via Next.
type FeedProcessor struct {
	entries   []Observation
	nextIndex int
	opts      Options
	rng       *rand.Rand
}

// Load parses a line-oriented feed file per the documented grammar. An IO
// failure (open or read) yields an empty, valid FeedProcessor (logged);
// subsequent Next calls on it return the sentinel triple. A malformed
// probability, motion or ground-truth line is logged and skipped on its
// own; the other lines of the file are still loaded.
func Load(path string, opts Options) *FeedProcessor {
	fp := &FeedProcessor{opts: opts, rng: opts.Rand}
	if fp.rng == nil {
		fp.rng = rand.New(rand.NewSource(1))
	}

	f, err := os.Open(path)
	if err != nil {
		errlog.Logf("failed to load feed file %q: %v", path, err)
		return fp
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch line[0] {
		case '+':
			fp.attachMotion(line[1:])
		case '!':
			fp.attachGroundTruth(line[1:])
		default:
			fp.addEntry(line)
		}
	}
	if err := scanner.Err(); err != nil {
		errlog.Logf("failed reading feed file %q: %v", path, err)
		fp.entries = nil
	}

	return fp
}

func (fp *FeedProcessor) addEntry(line string) {
	fields := strings.Fields(line)
	probs := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			errlog.Logf("skipping malformed probability line %q: %v", line, err)
			return
		}
		probs = append(probs, v)
	}
	if fp.opts.IgnoreRegions {
		uniform := 1.0 / float64(len(probs))
		for i := range probs {
			probs[i] = uniform
		}
	}
	fp.entries = append(fp.entries, Observation{RegionProbs: probs})
}

func (fp *FeedProcessor) attachMotion(line string) {
	if len(fp.entries) == 0 {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	speed, err1 := strconv.ParseFloat(fields[0], 64)
	angle, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		errlog.Logf("skipping malformed motion line %q", line)
		return
	}
	fp.entries[len(fp.entries)-1].Motion = &Motion{MoveSpeed: speed, TurnAngle: angle}
}

func (fp *FeedProcessor) attachGroundTruth(line string) {
	if len(fp.entries) == 0 {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return
	}
	x, err1 := strconv.Atoi(fields[0])
	y, err2 := strconv.Atoi(fields[1])
	theta, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		errlog.Logf("skipping malformed ground-truth line %q", line)
		return
	}
	fp.entries[len(fp.entries)-1].GroundTruth = &GroundTruth{X: x, Y: y, Theta: theta}
}

// HasNext reports whether another observation is available. With looping
// enabled this is always true once the sequence has at least one entry.
func (fp *FeedProcessor) HasNext() bool {
	if len(fp.entries) == 0 {
		return false
	}
	if fp.opts.LoopFeed {
		return true
	}
	return fp.nextIndex < len(fp.entries)
}

// Next returns the next observation, applying configured noise. Once the
// sequence is exhausted and not looping, Next returns the all-nil sentinel
// triple on every subsequent call.
func (fp *FeedProcessor) Next() Observation {
	if fp.nextIndex >= len(fp.entries) {
		return Observation{}
	}

	entry := fp.entries[fp.nextIndex]
	obs := Observation{
		RegionProbs: entry.RegionProbs,
		Motion:      entry.Motion,
		GroundTruth: entry.GroundTruth,
	}

	if fp.opts.ClassifierNoise > 0 && obs.RegionProbs != nil {
		obs.RegionProbs = fp.addClassifierNoise(obs.RegionProbs, fp.opts.ClassifierNoise)
	}
	if fp.opts.MotionNoise > 0 && obs.Motion != nil {
		noisy := fp.addMotionNoise(*obs.Motion, fp.opts.MotionNoise)
		obs.Motion = &noisy
	}

	fp.nextIndex++
	if fp.nextIndex >= len(fp.entries) && fp.opts.LoopFeed {
		fp.nextIndex = 0
	}

	return obs
}

// addClassifierNoise perturbs each probability by |Normal(0, sigma)|,
// subtracting at the saturated (1.0) element and adding elsewhere, then
// L2-normalizes the result.
func (fp *FeedProcessor) addClassifierNoise(probs []float64, sigma float64) []float64 {
	out := make([]float64, len(probs))
	copy(out, probs)

	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: fp.rng}
	for i, p := range out {
		n := math.Abs(dist.Rand())
		if p == 1.0 {
			out[i] = math.Abs(p - n)
		} else {
			out[i] = p + n
		}
	}

	if norm := floats.Norm(out, 2); norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}

// addMotionNoise perturbs move speed and turn angle by a uniformly random
// sign times a uniform(0,1) fraction of the noise parameter.
func (fp *FeedProcessor) addMotionNoise(m Motion, mu float64) Motion {
	m.MoveSpeed += fp.randSign() * fp.rng.Float64() * mu * m.MoveSpeed
	m.TurnAngle += fp.randSign() * fp.rng.Float64() * mu * math.Pi / 2
	return m
}

func (fp *FeedProcessor) randSign() float64 {
	if fp.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}
