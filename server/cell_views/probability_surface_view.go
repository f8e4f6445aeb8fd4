package cell_views

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"sync"

	"indoorpf/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ProbabilitySurfaceView renders the region-probability grid as an
// isometric height map, the same projection idiom used for 3d surface
// plots: probability stands in for elevation.
type ProbabilitySurfaceView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// NewProbabilitySurfaceView satisfies the fastview view-constructor signature.
func NewProbabilitySurfaceView(done <-chan struct{}, snapshots <-chan Snapshot) fastview.ViewComponent {
	id := "probsurface"
	pv := &ProbabilitySurfaceView{id: template.HTMLEscapeString(id)}
	pv.updates = channerics.Convert(done, snapshots, pv.onUpdate)
	return pv
}

func (pv *ProbabilitySurfaceView) Updates() <-chan []fastview.EleUpdate {
	return pv.updates
}

var (
	surfaceWidth   float64
	surfaceCellDim float64 = 20
	surfaceCells   float64
	xyscale        float64
	zscale         float64
	ang30                  = math.Pi / 6
	setSurfaceOnce sync.Once
)

var sin30, cos30 = math.Sin(ang30), math.Cos(ang30)

func setSurfaceParams(grid [][]MapCell) {
	surfaceCells = float64(len(grid))
	surfaceWidth = surfaceCells * surfaceCellDim
	zscale = surfaceCellDim * 6 // exaggerate probability height for visibility
	xyscale = surfaceCellDim
}

// project applies an isometric projection to the passed point.
func project(x, y, z float64) (float64, float64) {
	sx := surfaceWidth + (x-y)*cos30*xyscale
	sy := (x+y)*sin30*xyscale - z*zscale
	return sx, sy
}

// getPolyPoints returns an svg polygon describing four adjacent cells.
func getPolyPoints(cellA, cellB, cellC, cellD MapCell) string {
	ax, ay := project(float64(cellA.X), float64(cellA.Y), cellA.Probability)
	bx, by := project(float64(cellB.X), float64(cellB.Y), cellB.Probability)
	cx, cy := project(float64(cellC.X), float64(cellC.Y), cellC.Probability)
	dx, dy := project(float64(cellD.X), float64(cellD.Y), cellD.Probability)

	return fmt.Sprintf("%d,%d %d,%d %d,%d %d,%d",
		int(ax), int(ay), int(bx), int(by), int(cx), int(cy), int(dx), int(dy))
}

func (pv *ProbabilitySurfaceView) onUpdate(snap Snapshot) (ops []fastview.EleUpdate) {
	grid := snap.Grid
	if len(grid) < 2 || len(grid[0]) < 2 {
		return nil
	}
	setSurfaceOnce.Do(func() { setSurfaceParams(grid) })

	for ri, row := range grid[:len(grid)-1] {
		for ci, cell := range row[:len(row)-1] {
			cellA := grid[ri][ci+1]
			cellB := grid[ri][ci]
			cellC := grid[ri+1][ci]
			cellD := grid[ri+1][ci+1]

			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-prob-polygon", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "points", Value: getPolyPoints(cellA, cellB, cellC, cellD)},
				},
			})
		}
	}
	return
}

func (pv *ProbabilitySurfaceView) Parse(parent *template.Template) (string, error) {
	if strings.Contains(pv.id, "-") {
		fmt.Println("WARNING: names with hyphens interfere with html/template parsing of the `template` directive")
	}
	name := pv.id
	addedMap := template.FuncMap{"getPolyPoints": getPolyPoints}
	_, err := parent.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:40px;">
			{{ $x_cells := len .Grid }}
			{{ $y_cells := len (index .Grid 0) }}
			{{ $num_x_polys := sub $x_cells 1 }}
			{{ $num_y_polys := sub $y_cells 1 }}
			{{ $cell_width := ` + fmt.Sprintf("%d", int(surfaceCellDim)) + ` }}
			{{ $cell_height := $cell_width }}
			{{ $width := mult $cell_width $x_cells }}
			{{ $height := mult $cell_height $y_cells }}
			<svg id="` + pv.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ mult $width 2 }}px"
				height="{{ mult $height 2 }}px"
				style="shape-rendering: crispEdges; stroke: black; stroke-opacity: 0.9; stroke-width: 1;">
				<g style="scale: 0.75;">
				{{ $cells := .Grid }}
				{{ range $ri, $row := .Grid }}
					{{ if lt $ri $num_x_polys }}
						{{ range $ci, $cell := $row }}
							{{ if lt $ci $num_y_polys }}
								<polygon id="{{$cell.X}}-{{$cell.Y}}-prob-polygon"
									{{ $cell_a := index $cells $ri (add $ci 1) }}
									{{ $cell_b := index $cells $ri $ci }}
									{{ $cell_c := index $cells (add $ri 1) $ci }}
									{{ $cell_d := index $cells (add $ri 1) (add $ci 1) }}
									points="{{ getPolyPoints $cell_a $cell_b $cell_c $cell_d }}"
									fill="steelblue" fill-opacity="0.6"/>
							{{ end }}
						{{ end }}
					{{ end }}
				{{ end }}
				</g>
			</svg>
		</div>
		{{ end }}`)
	return name, err
}
