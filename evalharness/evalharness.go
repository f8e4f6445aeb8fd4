// Package evalharness runs many independent particle-filter trials
// concurrently against a feed and building map, fanning their results
// into a single estimator that aggregates convergence statistics. The
// concurrency shape mirrors a worker/estimator split: trial runners
// generate results on their own goroutines and never share filter state,
// so no locking is needed between them. Each trial runner loads its own
// BuildingMap and FeedProcessor and seeds its own PRNG; nothing is
// shared across trial goroutines.
package evalharness

import (
	"context"
	"math"
	"math/rand"

	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"

	"indoorpf/buildingmap"
	"indoorpf/feed"
	"indoorpf/particlefilter"
)

// TrialResult is one completed trial's outcome: how many ticks it ran,
// and its final distance from ground truth if the feed carried any.
// TrialID is a unique identifier independent of TrialIndex, suitable for
// correlating a result with logs or a stored artifact from the same run.
type TrialResult struct {
	TrialID        string
	TrialIndex     int
	Ticks          int
	FinalDistance  float64
	HasGroundTruth bool
}

// Summary aggregates TrialResults across a batch of trials.
type Summary struct {
	TrialCount     int
	MeanTicks      float64
	MeanFinalError float64
	WorstError     float64
}

// Options configures a batch run.
type Options struct {
	NumTrials int
	MaxTicks  int
}

// RunBatch launches cfg-configured trial runners, one per trial, each
// loading its own BuildingMap/FeedProcessor pair from path/opts and
// seeding its own PRNG, and fans their results into a single estimator
// goroutine via channerics.Merge. It blocks until every trial completes
// or ctx is cancelled. mapPath is validated once up front so a bad path
// fails fast rather than once per trial.
func RunBatch(
	ctx context.Context,
	feedPath string,
	feedOpts feed.Options,
	mapPath string,
	pfCfg particlefilter.Config,
	opts Options,
) (Summary, error) {
	if _, err := buildingmap.Load(mapPath); err != nil {
		return Summary{}, err
	}

	baseSeed := int64(1)
	if feedOpts.Rand != nil {
		baseSeed = feedOpts.Rand.Int63()
	}

	done := ctx.Done()
	trialChans := make([]<-chan TrialResult, 0, opts.NumTrials)
	for i := 0; i < opts.NumTrials; i++ {
		trialChans = append(trialChans, runTrial(i, baseSeed, mapPath, feedPath, feedOpts, pfCfg, opts.MaxTicks, done))
	}

	results := channerics.Merge(done, trialChans...)
	return estimate(results), nil
}

// runTrial loads its own BuildingMap and FeedProcessor and drives an
// independent ParticleFilter, seeded from baseSeed mixed with index so
// every trial's PRNG differs, to completion (feed exhaustion or
// MaxTicks) on its own goroutine, emitting a single TrialResult. Nothing
// here is shared with any other trial's goroutine.
func runTrial(
	index int,
	baseSeed int64,
	mapPath string,
	feedPath string,
	feedOpts feed.Options,
	pfCfg particlefilter.Config,
	maxTicks int,
	done <-chan struct{},
) <-chan TrialResult {
	out := make(chan TrialResult, 1)
	go func() {
		defer close(out)

		m, err := buildingmap.Load(mapPath)
		if err != nil {
			return
		}

		rng := rand.New(rand.NewSource(baseSeed + int64(index) + 1))
		trialOpts := feedOpts
		trialOpts.Rand = rng

		fp := feed.Load(feedPath, trialOpts)
		pf := particlefilter.New(pfCfg, m, fp, rng)

		ticks := 0
		for fp.HasNext() && (maxTicks <= 0 || ticks < maxTicks) {
			select {
			case <-done:
				return
			default:
			}
			pf.Tick()
			ticks++
		}

		result := TrialResult{TrialID: uuid.NewString(), TrialIndex: index, Ticks: ticks}
		if gt := pf.GroundTruth(); gt != nil {
			clusters := pf.Clusters()
			if len(clusters) > 0 {
				best := clusters[pf.Best()]
				dx := float64(best.PredictedX - gt.X)
				dy := float64(best.PredictedY - gt.Y)
				result.FinalDistance = math.Sqrt(dx*dx + dy*dy)
				result.HasGroundTruth = true
			}
		}

		select {
		case out <- result:
		case <-done:
		}
	}()
	return out
}

// estimate folds the merged trial-result stream into a Summary. This is
// the estimator side of the worker/estimator split: a single goroutine
// (the caller, here run synchronously since there's no shared state
// to protect) consumes results as they arrive.
func estimate(results <-chan TrialResult) Summary {
	var sum Summary
	totalTicks := 0.0
	totalError := 0.0
	groundTruthCount := 0

	for r := range results {
		sum.TrialCount++
		totalTicks += float64(r.Ticks)
		if r.HasGroundTruth {
			totalError += r.FinalDistance
			groundTruthCount++
			if r.FinalDistance > sum.WorstError {
				sum.WorstError = r.FinalDistance
			}
		}
	}

	if sum.TrialCount > 0 {
		sum.MeanTicks = totalTicks / float64(sum.TrialCount)
	}
	if groundTruthCount > 0 {
		sum.MeanFinalError = totalError / float64(groundTruthCount)
	}
	return sum
}
