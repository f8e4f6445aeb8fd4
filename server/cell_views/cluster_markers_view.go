package cell_views

import (
	"fmt"
	"html/template"
	"strings"

	"indoorpf/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// maxClusterSlots bounds the number of marker elements rendered into the
// initial page; clusters beyond this slot count are dropped from display
// (the filter's clustering already keeps cluster counts small in
// practice, so this is a display safety valve, not a behavior change).
const maxClusterSlots = 16

// ClusterMarkersView renders the filter's current cluster estimates as a
// fixed pool of circle markers layered over the heatmap, one marker per
// display slot so the client updates existing elements instead of
// creating and destroying DOM nodes as the cluster count changes.
type ClusterMarkersView struct {
	id      string
	updates chan []fastview.EleUpdate
}

// NewClusterMarkersView satisfies the fastview view-constructor signature.
func NewClusterMarkersView(done <-chan struct{}, snapshots <-chan Snapshot) fastview.ViewComponent {
	id := "clustermarkers"
	cv := &ClusterMarkersView{id: template.HTMLEscapeString(id)}
	cv.init(done, snapshots)
	return cv
}

func (cv *ClusterMarkersView) init(done <-chan struct{}, snapshots <-chan Snapshot) {
	updates := make(chan []fastview.EleUpdate)
	go func() {
		defer close(updates)
		for snap := range channerics.OrDone(done, snapshots) {
			ops := cv.update(snap.Clusters)
			select {
			case updates <- ops:
			case <-done:
				return
			}
		}
	}()
	cv.updates = updates
}

func (cv *ClusterMarkersView) Updates() <-chan []fastview.EleUpdate {
	return cv.updates
}

func (cv *ClusterMarkersView) Parse(parent *template.Template) (string, error) {
	if strings.Contains(cv.id, "-") {
		fmt.Println("WARNING: names with hyphens interfere with html/template parsing of the `template` directive")
	}
	name := cv.id
	var markers strings.Builder
	for slot := 0; slot < maxClusterSlots; slot++ {
		fmt.Fprintf(&markers,
			`<circle id="%d-marker" cx="0" cy="0" r="0" fill="none" stroke="red" stroke-width="2" visibility="hidden"/>`,
			slot)
	}

	_, err := parent.Parse(
		`{{ define "` + name + `" }}
		<svg id="` + cv.id + `" style="position:absolute; top:0; left:0; pointer-events:none;">
			` + markers.String() + `
		</svg>
		{{ end }}`)
	return name, err
}

// update returns the ele updates needed to move every marker slot to its
// current cluster's position, or hide the slot if no cluster currently
// occupies it.
func (cv *ClusterMarkersView) update(clusters []ClusterMarker) (ops []fastview.EleUpdate) {
	occupied := make(map[int]bool, len(clusters))
	for _, c := range clusters {
		if c.Slot >= maxClusterSlots {
			continue
		}
		occupied[c.Slot] = true
		radius := 6
		if c.Best {
			radius = 10
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("%d-marker", c.Slot),
			Ops: []fastview.Op{
				{Key: "cx", Value: fmt.Sprintf("%d", c.X*20)},
				{Key: "cy", Value: fmt.Sprintf("%d", c.Y*20)},
				{Key: "r", Value: fmt.Sprintf("%d", radius)},
				{Key: "visibility", Value: "visible"},
			},
		})
	}
	for slot := 0; slot < maxClusterSlots; slot++ {
		if occupied[slot] {
			continue
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("%d-marker", slot),
			Ops:   []fastview.Op{{Key: "visibility", Value: "hidden"}},
		})
	}
	return
}
