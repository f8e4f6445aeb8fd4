package buildingmap

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTempMap(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "map.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given a well-formed 3x3 all-hallway map", t, func() {
		path := writeTempMap(t, "1,1,1\n1,1,1\n1,1,1\n")

		m, err := Load(path)

		Convey("It loads without error and has the expected dimensions", func() {
			So(err, ShouldBeNil)
			So(m.Width, ShouldEqual, 3)
			So(m.Height, ShouldEqual, 3)
		})

		Convey("RegionProbs[VoidSpace] is pinned to 0", func() {
			So(m.RegionProbs[VoidSpace], ShouldEqual, 0)
		})
	})

	Convey("Given a ragged map file", t, func() {
		path := writeTempMap(t, "1,1,1\n1,1\n")

		m, err := Load(path)

		Convey("It returns a format error and an empty map", func() {
			So(err, ShouldEqual, ErrMapFormat)
			So(m.Width, ShouldEqual, 0)
			So(m.Height, ShouldEqual, 0)
		})
	})

	Convey("Given a nonexistent file", t, func() {
		m, err := Load(filepath.Join(t.TempDir(), "missing.txt"))

		Convey("It returns an IO error and an empty map", func() {
			So(err, ShouldEqual, ErrMapIO)
			So(m.Width, ShouldEqual, 0)
			So(m.Height, ShouldEqual, 0)
		})
	})

	Convey("Given an empty file", t, func() {
		path := writeTempMap(t, "")

		m, err := Load(path)

		Convey("It yields a legal degenerate 0x0 map", func() {
			So(err, ShouldBeNil)
			So(m.Width, ShouldEqual, 0)
			So(m.Height, ShouldEqual, 0)
		})
	})
}

func TestProbabilityOf(t *testing.T) {
	Convey("Given a 5x5 map with a single hallway cell at (2,2)", t, func() {
		rows := ""
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				if x == 2 && y == 2 {
					rows += "1"
				} else {
					rows += "0"
				}
				if x < 4 {
					rows += ","
				}
			}
			rows += "\n"
		}
		path := writeTempMap(t, rows)
		m, _ := Load(path)
		m.SetProbabilities([]float64{0.9, 0, 0, 0, 0, 0})

		Convey("The hallway cell returns its region probability", func() {
			So(m.ProbabilityOf(2, 2), ShouldEqual, 0.9)
		})

		Convey("VoidSpace cells return 0", func() {
			So(m.ProbabilityOf(0, 0), ShouldEqual, 0)
		})

		Convey("Out-of-bounds coordinates return 0", func() {
			So(m.ProbabilityOf(-1, 2), ShouldEqual, 0)
			So(m.ProbabilityOf(5, 2), ShouldEqual, 0)
			So(m.ProbabilityOf(2, -1), ShouldEqual, 0)
			So(m.ProbabilityOf(2, 5), ShouldEqual, 0)
		})
	})

	Convey("Given an empty (0x0) map", t, func() {
		m := New()

		Convey("Every coordinate returns 0", func() {
			So(m.ProbabilityOf(0, 0), ShouldEqual, 0)
			So(m.ProbabilityOf(-5, -5), ShouldEqual, 0)
		})
	})
}

func TestSetProbabilities(t *testing.T) {
	Convey("Given a loaded map", t, func() {
		path := writeTempMap(t, "1,1\n1,1\n")
		m, _ := Load(path)

		Convey("Setting a 6-value vector assigns region probs 1..6", func() {
			m.SetProbabilities([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6})
			So(m.RegionProbs[Hallway], ShouldEqual, 0.1)
			So(m.RegionProbs[Staircase], ShouldEqual, 0.2)
			So(m.RegionProbs[StandingArea], ShouldEqual, 0.6)
			So(m.RegionProbs[VoidSpace], ShouldEqual, 0)
		})

		Convey("Setting the same vector twice is idempotent", func() {
			v := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
			m.SetProbabilities(v)
			first := m.RegionProbs
			m.SetProbabilities(v)
			So(m.RegionProbs, ShouldResemble, first)
		})

		Convey("A mismatched-length vector is ignored", func() {
			before := m.RegionProbs
			m.SetProbabilities([]float64{1, 2, 3})
			So(m.RegionProbs, ShouldResemble, before)
		})
	})
}
