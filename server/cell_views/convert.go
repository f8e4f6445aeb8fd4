package cell_views

import "indoorpf/particlefilter"

// TickData is the raw per-tick state the server pulls from a running
// filter: a per-cell lookup of the map's current probabilities, the map's
// footprint, and the filter's current cluster list and best index.
type TickData struct {
	Width, Height int
	// ProbabilityAt returns the current observation probability for the
	// map cell at (x, y), mirroring buildingmap.BuildingMap.ProbabilityOf
	// without requiring this package to import buildingmap directly.
	ProbabilityAt func(x, y int) float64
	Clusters      []particlefilter.Cluster
	Best          int
}

// Convert transforms one tick's raw filter/map state into the view-model
// consumed by every cell_views view: a full probability grid plus a
// fixed-slot cluster marker list, flipped into svg's top-left-origin
// coordinate system.
func Convert(data TickData) Snapshot {
	grid := make([][]MapCell, data.Width)
	for x := 0; x < data.Width; x++ {
		grid[x] = make([]MapCell, data.Height)
		for y := 0; y < data.Height; y++ {
			grid[x][y] = MapCell{
				X:           x,
				Y:           data.Height - y - 1,
				Probability: data.ProbabilityAt(x, y),
			}
		}
	}

	markers := make([]ClusterMarker, len(data.Clusters))
	for i, c := range data.Clusters {
		markers[i] = ClusterMarker{
			Slot:   i,
			X:      c.PredictedX,
			Y:      data.Height - c.PredictedY - 1,
			Theta:  c.PredictedTheta,
			Weight: c.TotalWeight,
			Best:   i == data.Best,
		}
	}

	return Snapshot{Grid: grid, Clusters: markers}
}
