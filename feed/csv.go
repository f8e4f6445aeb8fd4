package feed

import (
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"indoorpf/errlog"
)

// csvRow is one tick's data in the tabular feed format: an alternative to
// the line-oriented grammar Load reads, for callers that already produce
// feed data as a spreadsheet or database export.
type csvRow struct {
	RegionProbs    string  `csv:"region_probs"`
	HasMotion      bool    `csv:"has_motion"`
	MoveSpeed      float64 `csv:"move_speed"`
	TurnAngle      float64 `csv:"turn_angle"`
	HasGroundTruth bool    `csv:"has_ground_truth"`
	GTX            int     `csv:"gt_x"`
	GTY            int     `csv:"gt_y"`
	GTTheta        float64 `csv:"gt_theta"`
}

// LoadCSV parses a tabular feed file, one row per tick, as an alternative
// to Load. region_probs holds a space-separated probability vector within
// the single CSV field. Behaves like Load on IO/parse failure: returns an
// empty, valid FeedProcessor rather than propagating the error.
func LoadCSV(path string, opts Options) *FeedProcessor {
	fp := &FeedProcessor{opts: opts, rng: opts.Rand}
	if fp.rng == nil {
		fp.rng = rand.New(rand.NewSource(1))
	}

	f, err := os.Open(path)
	if err != nil {
		errlog.Logf("failed to load csv feed file %q: %v", path, err)
		return fp
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		errlog.Logf("failed parsing csv feed file %q: %v", path, err)
		return fp
	}

	for _, row := range rows {
		probs := parseProbs(row.RegionProbs)
		if opts.IgnoreRegions && len(probs) > 0 {
			uniform := 1.0 / float64(len(probs))
			for i := range probs {
				probs[i] = uniform
			}
		}

		entry := Observation{RegionProbs: probs}
		if row.HasMotion {
			entry.Motion = &Motion{MoveSpeed: row.MoveSpeed, TurnAngle: row.TurnAngle}
		}
		if row.HasGroundTruth {
			entry.GroundTruth = &GroundTruth{X: row.GTX, Y: row.GTY, Theta: row.GTTheta}
		}
		fp.entries = append(fp.entries, entry)
	}

	return fp
}

func parseProbs(field string) []float64 {
	fields := strings.Fields(field)
	if len(fields) == 0 {
		return nil
	}
	probs := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			errlog.Logf("skipping malformed probability field %q: %v", field, err)
			return nil
		}
		probs = append(probs, v)
	}
	return probs
}
