// Package telemetry publishes lock-free running metrics about filter
// convergence that other goroutines can read without taking a lock on the
// filter's own tick loop. cmd/pf records into it after every tick and
// prints its snapshot in headless mode.
package telemetry

import (
	"sync/atomic"

	"indoorpf/atomic_float"
)

// Metrics accumulates running counters across ticks using CAS-based
// float64 ops so a single filter's tick goroutine can publish updates
// while other goroutines read them concurrently.
type Metrics struct {
	ticks           uint64
	bestWeightSum   float64
	clusterCountSum float64
	maxBestWeight   float64
}

// New returns a zeroed Metrics ready to record.
func New() *Metrics {
	return &Metrics{}
}

// Record folds one tick's outcome into the running totals.
func (m *Metrics) Record(bestWeight float64, clusterCount int) {
	atomic.AddUint64(&m.ticks, 1)
	atomic_float.AtomicAdd(&m.bestWeightSum, bestWeight)
	atomic_float.AtomicAdd(&m.clusterCountSum, float64(clusterCount))

	if bestWeight > atomic_float.AtomicRead(&m.maxBestWeight) {
		atomic_float.AtomicSet(&m.maxBestWeight, bestWeight)
	}
}

// Snapshot is an immutable copy of Metrics state safe to read without
// further synchronization.
type Snapshot struct {
	Ticks              uint64
	MeanBestWeight     float64
	MeanClusterCount   float64
	MaxBestWeightSeen  float64
}

// Snapshot takes a consistent-enough read of the running totals. Because
// each field is read independently via CAS-backed loads, a snapshot taken
// mid-update may pair a newer numerator with an older tick count; this is
// an accepted approximation for a display-only metric.
func (m *Metrics) Snapshot() Snapshot {
	ticks := atomic.LoadUint64(&m.ticks)
	if ticks == 0 {
		return Snapshot{}
	}
	sumW := atomic_float.AtomicRead(&m.bestWeightSum)
	sumC := atomic_float.AtomicRead(&m.clusterCountSum)
	maxW := atomic_float.AtomicRead(&m.maxBestWeight)
	return Snapshot{
		Ticks:             ticks,
		MeanBestWeight:    sumW / float64(ticks),
		MeanClusterCount:  sumC / float64(ticks),
		MaxBestWeightSeen: maxW,
	}
}
