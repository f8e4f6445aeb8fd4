// Package buildingmap implements the typed 2D floor-plan raster that the
// particle filter weighs observations against: a row-major grid of region
// classes plus a mutable per-tick likelihood vector.
package buildingmap

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"indoorpf/errlog"
)

// RegionClass is one of the seven semantic labels assigned to a map cell.
type RegionClass int

const (
	VoidSpace RegionClass = iota
	Hallway
	Staircase
	Elevator
	Door
	SittingArea
	StandingArea

	// NumRegionClasses is the fixed size of the region enumeration.
	NumRegionClasses = 7
)

// ErrMapFormat is returned when a map file's rows do not share a column count.
var ErrMapFormat = errors.New("buildingmap: inconsistent row width")

// ErrMapIO is returned when the map file cannot be opened or read.
var ErrMapIO = errors.New("buildingmap: failed to read file")

// BuildingMap is a row-major grid of region classes, with a mutable
// likelihood vector shared by every cell of a given region class.
//
// Invariants: RegionProbs[VoidSpace] is always 0. Width and Height never
// change after Load.
type BuildingMap struct {
	Width, Height int
	grid          [][]RegionClass // grid[y][x]

	// RegionProbs[i] is the current observation likelihood for RegionClass(i).
	// RegionProbs[VoidSpace] is pinned to 0.
	RegionProbs [NumRegionClasses]float64
}

// New returns an empty, degenerate 0x0 map whose RegionProbs[VoidSpace] is 0.
func New() *BuildingMap {
	return &BuildingMap{}
}

// Load parses a map file: newline-separated rows, comma-separated integer
// region ids per cell. Width is the length of row 0; any row of a different
// length is a format error. An empty file yields a legal, degenerate 0x0 map.
//
// Load never returns a partially built map on error: on IO failure it
// returns an empty map and ErrMapIO; on a ragged file it returns an empty
// map and ErrMapFormat. Load logs both with errlog itself and returns
// rather than terminating, per the system's degrade-don't-abort policy;
// treating a load failure as fatal is a decision made by cmd/pf, not here.
func Load(path string) (*BuildingMap, error) {
	f, err := os.Open(path)
	if err != nil {
		errlog.Logf("failed to open map file %q: %v", path, err)
		return New(), ErrMapIO
	}
	defer f.Close()

	var rows [][]RegionClass
	width := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if width == -1 {
			width = len(fields)
		} else if len(fields) != width {
			errlog.Logf("map file %q: row %d has %d columns, expected %d", path, len(rows), len(fields), width)
			return New(), ErrMapFormat
		}

		row := make([]RegionClass, len(fields))
		for i, f := range fields {
			id, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				errlog.Logf("map file %q: non-integer region id %q", path, f)
				return New(), ErrMapFormat
			}
			row[i] = RegionClass(id)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		errlog.Logf("failed reading map file %q: %v", path, err)
		return New(), ErrMapIO
	}

	if width == -1 {
		width = 0
	}

	m := &BuildingMap{
		Width:  width,
		Height: len(rows),
		grid:   rows,
	}
	for i := 1; i < NumRegionClasses; i++ {
		m.RegionProbs[i] = 1.0
	}
	return m, nil
}

// ProbabilityOf returns RegionProbs[grid[y][x]] when (x,y) falls within the
// map's bounds, and 0 otherwise. Callers pass truncated (toward zero)
// particle positions; out-of-bounds is not an error, it is how particles
// that wander off the map get penalized to zero weight.
func (m *BuildingMap) ProbabilityOf(x, y int) float64 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.RegionProbs[m.grid[y][x]]
}

// SetProbabilities assigns RegionProbs[i+1] = v[i] for i in 0..6. A length
// mismatch is a soft error: logged and ignored, leaving RegionProbs
// unchanged. Values are used as-is; SetProbabilities never renormalizes.
func (m *BuildingMap) SetProbabilities(v []float64) {
	if len(v) != NumRegionClasses-1 {
		errlog.Logf("set probabilities: got %d values, want %d", len(v), NumRegionClasses-1)
		return
	}
	for i, p := range v {
		m.RegionProbs[i+1] = p
	}
}

// RegionAt returns the region class at (x, y). Callers must ensure the
// coordinates are in bounds; out-of-bounds access panics, matching Go slice
// semantics rather than silently returning VoidSpace.
func (m *BuildingMap) RegionAt(x, y int) RegionClass {
	return m.grid[y][x]
}
