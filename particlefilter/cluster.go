package particlefilter

import "math"

// Cluster is a weighted-centroid pose estimate over one spatially
// contiguous group of particles.
type Cluster struct {
	PredictedX     int
	PredictedY     int
	PredictedTheta float64
	TotalWeight    float64
}

// clusterAndEstimate bins particles by position into a coarse grid,
// groups adjacent occupied bins via 8-connected flood fill, computes a
// weighted centroid pose per group, and selects the highest-weight group
// as the current best hypothesis. An empty population yields no clusters
// and resets best to 0. A population with zero total weight still yields
// one cluster per group, each a zero-valued Cluster record, and best is 0.
func (pf *ParticleFilter) clusterAndEstimate() {
	pf.clusters = nil
	pf.best = 0

	if len(pf.particles) == 0 || pf.cfg.ClusterBinWidth <= 0 {
		return
	}

	binW := pf.cfg.ClusterBinWidth
	minBX, minBY := math.MaxInt32, math.MaxInt32
	maxBX, maxBY := math.MinInt32, math.MinInt32
	binX := make([]int, len(pf.particles))
	binY := make([]int, len(pf.particles))

	for i, p := range pf.particles {
		bx := floorDiv(p.X, binW)
		by := floorDiv(p.Y, binW)
		binX[i], binY[i] = bx, by
		if bx < minBX {
			minBX = bx
		}
		if bx > maxBX {
			maxBX = bx
		}
		if by < minBY {
			minBY = by
		}
		if by > maxBY {
			maxBY = by
		}
	}

	gridW := maxBX - minBX + 1
	gridH := maxBY - minBY + 1
	if gridW <= 0 || gridH <= 0 {
		return
	}

	// occupant lists particles in each bin, indexed row-major.
	occupants := make([][]int, gridW*gridH)
	for i := range pf.particles {
		idx := (binY[i]-minBY)*gridW + (binX[i] - minBX)
		occupants[idx] = append(occupants[idx], i)
	}

	labels := make([]int, gridW*gridH)
	for i := range labels {
		labels[i] = -1
	}

	nextLabel := 0
	var stack []int
	for start := 0; start < len(occupants); start++ {
		if len(occupants[start]) == 0 || labels[start] != -1 {
			continue
		}
		labels[start] = nextLabel
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx := cur % gridW
			cy := cur / gridW
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= gridW || ny < 0 || ny >= gridH {
						continue
					}
					nIdx := ny*gridW + nx
					if len(occupants[nIdx]) == 0 || labels[nIdx] != -1 {
						continue
					}
					labels[nIdx] = nextLabel
					stack = append(stack, nIdx)
				}
			}
		}
		nextLabel++
	}

	if nextLabel == 0 {
		return
	}

	sumX := make([]float64, nextLabel)
	sumY := make([]float64, nextLabel)
	sumTheta := make([]float64, nextLabel)
	sumW := make([]float64, nextLabel)

	for binIdx, idxs := range occupants {
		if len(idxs) == 0 {
			continue
		}
		label := labels[binIdx]
		for _, i := range idxs {
			p := &pf.particles[i]
			w := p.Weight
			sumX[label] += p.X * w
			sumY[label] += p.Y * w
			sumTheta[label] += p.Theta * w
			sumW[label] += w
			p.ClusterID = label
		}
	}

	clusters := make([]Cluster, nextLabel)
	bestIdx, bestWeight := 0, -1.0
	for i := range clusters {
		if sumW[i] <= 0 {
			clusters[i] = Cluster{}
			continue
		}
		clusters[i] = Cluster{
			PredictedX:     int(math.Floor(sumX[i] / sumW[i])),
			PredictedY:     int(math.Floor(sumY[i] / sumW[i])),
			PredictedTheta: math.Floor(sumTheta[i] / sumW[i]),
			TotalWeight:    sumW[i],
		}
		if clusters[i].TotalWeight > bestWeight {
			bestWeight = clusters[i].TotalWeight
			bestIdx = i
		}
	}

	pf.clusters = clusters
	if bestWeight <= 0 {
		pf.best = 0
	} else {
		pf.best = bestIdx
	}
}

// floorDiv returns floor(v / width) as an integer, matching bin
// assignment semantics for particles that have wandered into negative
// coordinates rather than truncating toward zero.
func floorDiv(v, width float64) int {
	return int(math.Floor(v / width))
}
