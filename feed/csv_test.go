package feed

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp csv: %v", err)
	}
	return path
}

func TestLoadCSVParsesRowsAndAttachments(t *testing.T) {
	Convey("Given a csv feed with motion and ground truth on one row", t, func() {
		csv := "region_probs,has_motion,move_speed,turn_angle,has_ground_truth,gt_x,gt_y,gt_theta\n" +
			"\"0 1 0 0 0 0 0\",true,5,0.1,true,3,4,0.2\n" +
			"\"0 0 1 0 0 0 0\",false,0,0,false,0,0,0\n"
		path := writeTempCSV(t, csv)

		fp := LoadCSV(path, Options{})

		Convey("Both rows are loaded as observations", func() {
			So(fp.HasNext(), ShouldBeTrue)
			first := fp.Next()
			So(first.RegionProbs, ShouldResemble, []float64{0, 1, 0, 0, 0, 0, 0})
			So(first.Motion, ShouldNotBeNil)
			So(first.Motion.MoveSpeed, ShouldEqual, 5)
			So(first.GroundTruth, ShouldNotBeNil)
			So(first.GroundTruth.X, ShouldEqual, 3)

			second := fp.Next()
			So(second.Motion, ShouldBeNil)
			So(second.GroundTruth, ShouldBeNil)
		})
	})
}

func TestLoadCSVMissingFileYieldsEmptyProcessor(t *testing.T) {
	Convey("Given a path that does not exist", t, func() {
		fp := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), Options{})

		Convey("HasNext is false", func() {
			So(fp.HasNext(), ShouldBeFalse)
		})
	})
}
