package cell_views

import (
	"fmt"
	"html/template"
	"strings"

	"indoorpf/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// HeatmapView renders the building map as a grid of cells shaded by their
// current region probability: darker cells are more likely given the
// latest classifier observation.
type HeatmapView struct {
	id      string
	updates chan []fastview.EleUpdate
}

// NewHeatmapView satisfies the fastview view-constructor signature.
func NewHeatmapView(done <-chan struct{}, snapshots <-chan Snapshot) fastview.ViewComponent {
	id := "heatmap"
	hv := &HeatmapView{id: template.HTMLEscapeString(id)}
	hv.init(done, snapshots)
	return hv
}

func (hv *HeatmapView) init(done <-chan struct{}, snapshots <-chan Snapshot) {
	updates := make(chan []fastview.EleUpdate)
	go func() {
		defer close(updates)
		for snap := range channerics.OrDone(done, snapshots) {
			ops := hv.update(snap.Grid)
			select {
			case updates <- ops:
			case <-done:
				return
			}
		}
	}()
	hv.updates = updates
}

func (hv *HeatmapView) Updates() <-chan []fastview.EleUpdate {
	return hv.updates
}

func (hv *HeatmapView) Parse(parent *template.Template) (string, error) {
	if strings.Contains(hv.id, "-") {
		fmt.Println("WARNING: names with hyphens interfere with html/template parsing of the `template` directive")
	}
	name := hv.id
	_, err := parent.Parse(
		`{{ define "` + name + `" }}
		{{ $x_cells := len .Grid }}
		{{ $y_cells := len (index .Grid 0) }}
		{{ $cell_width := 20 }}
		{{ $cell_height := $cell_width }}
		{{ $width := mult $cell_width $x_cells }}
		{{ $height := mult $cell_height $y_cells }}
		<svg id="` + hv.id + `"
			width="{{ add $width 1 }}px"
			height="{{ add $height 1 }}px"
			style="shape-rendering: crispEdges;">
			{{ range $row := .Grid }}
				{{ range $cell := $row }}
				<rect id="{{$cell.X}}-{{$cell.Y}}-prob-cell"
					x="{{ mult $cell.X $cell_width }}"
					y="{{ mult $cell.Y $cell_height }}"
					width="{{ $cell_width }}"
					height="{{ $cell_height }}"
					fill="black"
					fill-opacity="{{ printf "%.3f" $cell.Probability }}"
					stroke="gray"
					stroke-width="1"/>
				{{ end }}
			{{ end }}
		</svg>
		{{ end }}`)
	return name, err
}

// update returns the ele updates needed for every cell in the grid to
// reflect its current probability.
func (hv *HeatmapView) update(grid [][]MapCell) (ops []fastview.EleUpdate) {
	for _, row := range grid {
		for _, cell := range row {
			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-prob-cell", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "fill-opacity", Value: fmt.Sprintf("%.3f", cell.Probability)},
				},
			})
		}
	}
	return
}
