package evalharness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"indoorpf/feed"
	"indoorpf/particlefilter"
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

func writeTempFeed(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func smallMapPath(t *testing.T) string {
	rows := ""
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			rows += "1"
			if x < 4 {
				rows += ","
			}
		}
		rows += "\n"
	}
	return writeTempMap(t, rows)
}

func TestRunBatchAggregatesAllTrials(t *testing.T) {
	Convey("Given a feed with ground truth and a batch of trials", t, func() {
		feedPath := writeTempFeed(t, "1 0 0 0 0 0\n! 2 2 0.0\n1 0 0 0 0 0\n! 2 2 0.0\n")
		mapPath := smallMapPath(t)
		cfg := particlefilter.Config{
			NumParticles:       50,
			UpdatesPerFrame:    1,
			WeightDecayRate:    1.0,
			ClusterBinWidth:    2,
			RandomWalkFrequency: 0,
		}

		summary, err := RunBatch(context.Background(), feedPath, feed.Options{}, mapPath, cfg, Options{NumTrials: 4})

		Convey("Every trial is represented in the summary", func() {
			So(err, ShouldBeNil)
			So(summary.TrialCount, ShouldEqual, 4)
			So(summary.MeanTicks, ShouldEqual, 2)
		})
	})
}

func TestRunBatchRespectsMaxTicks(t *testing.T) {
	Convey("Given a looping feed and a tick cap", t, func() {
		feedPath := writeTempFeed(t, "1 0 0 0 0 0\n")
		mapPath := smallMapPath(t)
		cfg := particlefilter.Config{NumParticles: 10, UpdatesPerFrame: 1, WeightDecayRate: 1.0, ClusterBinWidth: 2}

		summary, err := RunBatch(context.Background(), feedPath, feed.Options{LoopFeed: true}, mapPath, cfg, Options{NumTrials: 2, MaxTicks: 5})

		Convey("No trial exceeds the cap", func() {
			So(err, ShouldBeNil)
			So(summary.MeanTicks, ShouldEqual, 5)
		})
	})
}

func TestRunBatchBadMapReturnsError(t *testing.T) {
	Convey("Given a nonexistent map path", t, func() {
		_, err := RunBatch(context.Background(), "", feed.Options{}, filepath.Join(t.TempDir(), "missing.txt"), particlefilter.Config{}, Options{NumTrials: 1})

		Convey("RunBatch surfaces the load error", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
