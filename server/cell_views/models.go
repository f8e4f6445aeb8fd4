// Package cell_views contains the view-models derived from a running
// ParticleFilter and the views built on top of them: a per-cell region
// probability heatmap, an isometric probability surface, and fixed-slot
// cluster markers.
package cell_views

// MapCell is one x/y cell of the building map, oriented in svg coordinate
// system such that [0][0] is the cell printed at top left in the console.
type MapCell struct {
	X, Y        int
	Probability float64
}

// ClusterMarker is one cluster's estimated pose, assigned a fixed display
// slot so the client can update an existing marker element rather than
// creating/destroying DOM nodes as the cluster count fluctuates tick to
// tick.
type ClusterMarker struct {
	Slot   int
	X, Y   int
	Theta  float64
	Weight float64
	Best   bool
}

// Snapshot is the full view-model pushed to the cell_views layer each
// tick: the region-probability grid plus the current cluster markers.
type Snapshot struct {
	Grid     [][]MapCell
	Clusters []ClusterMarker
}
