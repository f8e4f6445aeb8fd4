package buildingmap

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// regionColors assigns each RegionClass a display color for the demo
// visualizer's map overlay.
var regionColors = [NumRegionClasses]color.NRGBA{
	VoidSpace:    {R: 20, G: 20, B: 20, A: 255},
	Hallway:      {R: 200, G: 200, B: 200, A: 255},
	Staircase:    {R: 180, G: 120, B: 60, A: 255},
	Elevator:     {R: 80, G: 120, B: 220, A: 255},
	Door:         {R: 140, G: 90, B: 170, A: 255},
	SittingArea:  {R: 90, G: 180, B: 90, A: 255},
	StandingArea: {R: 220, G: 190, B: 60, A: 255},
}

// RenderPNG rasterizes the map's region-class grid as a PNG, one source
// pixel per cell, upscaled by cellSize so it is viewable alongside the
// particle overlay. cellSize <= 1 renders at native one-pixel-per-cell
// resolution.
func (m *BuildingMap) RenderPNG(w io.Writer, cellSize int) error {
	base := image.NewNRGBA(image.Rect(0, 0, max(m.Width, 1), max(m.Height, 1)))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			base.SetNRGBA(x, y, regionColors[m.grid[y][x]])
		}
	}

	if cellSize <= 1 {
		return png.Encode(w, base)
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, base.Bounds().Dx()*cellSize, base.Bounds().Dy()*cellSize))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), draw.Over, nil)
	return png.Encode(w, scaled)
}
