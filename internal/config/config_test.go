package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.cfg")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	Convey("Given no config file path", t, func() {
		s, err := Load("")

		Convey("Every documented default applies", func() {
			So(err, ShouldBeNil)
			So(s.NumParticles, ShouldEqual, 2000)
			So(s.UpdatesPerFrame, ShouldEqual, 1)
			So(s.ParticleMoveSpeed, ShouldEqual, 3.0)
			So(s.RandomWalkFrequency, ShouldEqual, 3)
			So(s.WeightDecayRate, ShouldEqual, 1.0)
			So(s.LogLevel, ShouldEqual, "info")
			So(s.HasStart, ShouldBeFalse)
		})
	})
}

func TestLoadOverridesFromFile(t *testing.T) {
	Convey("Given a config file overriding a subset of keys", t, func() {
		path := writeTempConfig(t, "NUM_PARTICLES=500\nWEIGHT_DECAY_RATE=0.9\n")
		s, err := Load(path)

		Convey("The overridden keys reflect the file and the rest keep their defaults", func() {
			So(err, ShouldBeNil)
			So(s.NumParticles, ShouldEqual, 500)
			So(s.WeightDecayRate, ShouldEqual, 0.9)
			So(s.ParticleMoveSpeed, ShouldEqual, 3.0)
		})
	})
}

func TestLoadStartPoseRequiresXAndY(t *testing.T) {
	Convey("Given only START_X set without START_Y", t, func() {
		path := writeTempConfig(t, "START_X=10\n")
		s, err := Load(path)

		Convey("HasStart remains false", func() {
			So(err, ShouldBeNil)
			So(s.HasStart, ShouldBeFalse)
		})
	})

	Convey("Given both START_X and START_Y set", t, func() {
		path := writeTempConfig(t, "START_X=10\nSTART_Y=20\nSTART_THETA=1.5\n")
		s, err := Load(path)

		Convey("HasStart is true and the pose is populated", func() {
			So(err, ShouldBeNil)
			So(s.HasStart, ShouldBeTrue)
			So(s.StartX, ShouldEqual, 10)
			So(s.StartY, ShouldEqual, 20)
			So(s.StartTheta, ShouldEqual, 1.5)
		})
	})
}

func TestFilterConfigProjection(t *testing.T) {
	Convey("Given resolved settings", t, func() {
		s, _ := Load("")

		Convey("FilterConfig carries over the filter-relevant fields", func() {
			fc := s.FilterConfig()
			So(fc.NumParticles, ShouldEqual, s.NumParticles)
			So(fc.ClusterBinWidth, ShouldEqual, s.ClusterBinWidth)
		})
	})
}
