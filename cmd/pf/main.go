// Command pf drives a particle filter against a building map and feed
// file, optionally serving a live svg visualization over http.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"indoorpf/buildingmap"
	"indoorpf/errlog"
	"indoorpf/feed"
	"indoorpf/internal/config"
	"indoorpf/particlefilter"
	"indoorpf/server"
	"indoorpf/server/cell_views"
	"indoorpf/telemetry"
)

func main() {
	feedPath := flag.String("feed", "", "path to the feed file to replay")
	mapPath := flag.String("map-data", "", "path to the building map data file")
	configPath := flag.String("config", "", "path to a KEY=value run configuration file")
	loop := flag.Bool("loop", false, "loop the feed when it is exhausted")
	display := flag.Bool("display", true, "serve a live svg visualization")
	addr := flag.String("addr", ":8080", "address to serve the visualization on, with --display")
	classifierNoise := flag.Float64("classifier-noise", 0, "stddev of classifier noise injected into region probabilities")
	motionNoise := flag.Float64("motion-noise", 0, "fraction of motion noise injected into move speed and turn angle")
	ignoreRegions := flag.Bool("ignore-regions", false, "replace every feed probability vector with a uniform distribution")
	seed := flag.Int64("seed", 0, "seed for the shared PRNG; 0 uses the config file's SEED, or the current time if that is also 0")
	tickInterval := flag.Duration("tick-interval", 100*time.Millisecond, "wall-clock interval between ticks")
	feedCSV := flag.Bool("feed-csv", false, "parse --feed as the tabular csv format instead of the line-oriented grammar")
	mapImageOut := flag.String("map-image", "", "optional path to rasterize the building map as a PNG overlay")
	mapImageCellSize := flag.Int("map-image-cell-size", 8, "pixels per map cell when rendering --map-image")
	manifestOut := flag.String("manifest", "", "optional path to write a yaml run manifest recording the resolved configuration")
	makeFeed := flag.Bool("make-feed", false, "interactively synthesize a feed file (out of scope; always rejected)")
	flag.Parse()

	if *makeFeed {
		errlog.Fatal("--make-feed is out of scope: the interactive feed simulator is an external collaborator, not part of this driver")
	}

	if *mapPath == "" {
		errlog.Fatal("--map-data is required")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		errlog.Fatal(fmt.Sprintf("failed to load config %q: %v", *configPath, err))
	}

	m, err := buildingmap.Load(*mapPath)
	if err != nil {
		errlog.Fatal(fmt.Sprintf("failed to load map %q: %v", *mapPath, err))
	}

	if *mapImageOut != "" {
		if err := renderMapPNG(m, *mapImageOut, *mapImageCellSize); err != nil {
			errlog.Logf("failed to render map image %q: %v", *mapImageOut, err)
		}
	}

	resolvedSeed := *seed
	if resolvedSeed == 0 {
		resolvedSeed = settings.Seed
	}
	if resolvedSeed == 0 {
		resolvedSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(resolvedSeed))

	feedOpts := feed.Options{
		LoopFeed:        *loop,
		ClassifierNoise: *classifierNoise,
		MotionNoise:     *motionNoise,
		IgnoreRegions:   *ignoreRegions,
		Rand:            rng,
	}
	var fp *feed.FeedProcessor
	if *feedCSV {
		fp = feed.LoadCSV(*feedPath, feedOpts)
	} else {
		fp = feed.Load(*feedPath, feedOpts)
	}

	pfCfg := settings.FilterConfig()
	pf := particlefilter.New(pfCfg, m, fp, rng)
	metrics := telemetry.New()

	if *manifestOut != "" {
		manifest := config.RunManifest{
			MapPath:         *mapPath,
			FeedPath:        *feedPath,
			ConfigPath:      *configPath,
			Seed:            resolvedSeed,
			NumParticles:    pfCfg.NumParticles,
			TickIntervalMS:  tickInterval.Milliseconds(),
			ClassifierNoise: *classifierNoise,
			MotionNoise:     *motionNoise,
		}
		if err := config.WriteManifest(*manifestOut, manifest); err != nil {
			errlog.Logf("failed to write run manifest %q: %v", *manifestOut, err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *display {
		runWithDisplay(ctx, pf, m, *addr, *tickInterval, metrics)
		return
	}
	runHeadless(ctx, pf, fp, *tickInterval, metrics)
}

// runHeadless ticks the filter on a wall-clock schedule until the feed is
// exhausted or the context is cancelled, logging a periodic convergence
// summary.
func runHeadless(
	ctx context.Context,
	pf *particlefilter.ParticleFilter,
	fp *feed.FeedProcessor,
	interval time.Duration,
	metrics *telemetry.Metrics,
) {
	done := ctx.Done()
	ticks := channerics.NewTicker(done, interval)
	for fp.HasNext() {
		select {
		case <-done:
			return
		case <-ticks:
			pf.Tick()
			recordTick(pf, metrics)
			if pf.Frame()%50 == 0 {
				snap := metrics.Snapshot()
				fmt.Printf("frame=%d ticks=%d mean_best_weight=%.3f mean_clusters=%.2f\n",
					pf.Frame(), snap.Ticks, snap.MeanBestWeight, snap.MeanClusterCount)
			}
		}
	}
}

// runWithDisplay ticks the filter and serves the demo visualizer,
// pushing TickData to the server after each tick.
func runWithDisplay(
	ctx context.Context,
	pf *particlefilter.ParticleFilter,
	m *buildingmap.BuildingMap,
	addr string,
	interval time.Duration,
	metrics *telemetry.Metrics,
) {
	tickUpdates := make(chan cell_views.TickData)
	initial := tickDataFor(pf, m)

	srv, err := server.NewServer(ctx, addr, initial, tickUpdates)
	if err != nil {
		errlog.Fatal(fmt.Sprintf("failed to initialize server: %v", err))
	}

	go func() {
		if err := srv.Serve(); err != nil {
			errlog.Logf("server exited: %v", err)
		}
	}()

	done := ctx.Done()
	ticks := channerics.NewTicker(done, interval)
	for {
		select {
		case <-done:
			close(tickUpdates)
			return
		case <-ticks:
			pf.Tick()
			recordTick(pf, metrics)
			select {
			case tickUpdates <- tickDataFor(pf, m):
			case <-done:
				close(tickUpdates)
				return
			}
		}
	}
}

func recordTick(pf *particlefilter.ParticleFilter, metrics *telemetry.Metrics) {
	clusters := pf.Clusters()
	bestWeight := 0.0
	if len(clusters) > 0 {
		bestWeight = clusters[pf.Best()].TotalWeight
	}
	metrics.Record(bestWeight, len(clusters))
}

func tickDataFor(pf *particlefilter.ParticleFilter, m *buildingmap.BuildingMap) cell_views.TickData {
	return cell_views.TickData{
		Width:         m.Width,
		Height:        m.Height,
		ProbabilityAt: m.ProbabilityOf,
		Clusters:      pf.Clusters(),
		Best:          pf.Best(),
	}
}

// renderMapPNG writes a PNG overlay of the building map's region grid to
// path, for inspecting the map independent of the live demo visualizer.
func renderMapPNG(m *buildingmap.BuildingMap, path string, cellSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.RenderPNG(f, cellSize)
}
