// Package pipeline exports DayZ worlds into tiled web maps: it downloads game
// data with steamcmd, extracts PBOs, writes the viewer metadata from the
// parsed cfgWorlds class and turns the satellite layers into map tiles with
// external image tools.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/woozymasta/rvcfg/internal/config"
	"github.com/woozymasta/rvcfg/internal/mapinfo"
)

// Options controls the exporter.
type Options struct {
	// Logger receives stage and tool logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics receives stage timings and tool counts, optional.
	Metrics *Metrics
	// Progress is where stage progress bars are drawn; nil hides them.
	Progress io.Writer
}

// normalize normalizes the Options.
func (o *Options) normalize() Options {
	if o == nil {
		return Options{Logger: zap.NewNop()}
	}

	out := *o
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}

	return out
}

// Result summarizes one world export.
type Result struct {
	World    string        // Catalog name
	Dir      string        // Extraction directory
	Duration time.Duration // Total time
	Layers   int           // Converted layer tiles
	Columns  int           // Merged tile columns
	Skipped  bool          // Extraction existed and re-export was not requested
}

// Exporter runs the export pipeline for catalog worlds.
type Exporter struct {
	cfg     *config.Config
	run     Runner
	log     *zap.Logger
	metrics *Metrics
	bars    io.Writer
}

// New creates an exporter.
func New(cfg *config.Config, run Runner, opt *Options) *Exporter {
	o := opt.normalize()

	return &Exporter{
		cfg:     cfg,
		run:     Instrument(run, o.Metrics),
		log:     o.Logger,
		metrics: o.Metrics,
		bars:    o.Progress,
	}
}

// EnsureDirs creates the extraction, game data and workshop roots.
func (e *Exporter) EnsureDirs() error {
	for _, dir := range []string{e.cfg.Paths.Extraction, e.cfg.Paths.Workshop, e.cfg.Paths.GameData} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

// WriteOverview writes the index page listing every catalog world.
func (e *Exporter) WriteOverview() error {
	if err := os.MkdirAll(e.cfg.Paths.Extraction, 0o755); err != nil {
		return err
	}

	return mapinfo.WriteOverview(e.cfg.Paths.Extraction, e.cfg.WorldNames())
}

// ExportAll exports every catalog world in order and stops at the first failure.
func (e *Exporter) ExportAll(ctx context.Context) ([]Result, error) {
	var results []Result
	for _, name := range e.cfg.WorldNames() {
		res, err := e.Export(ctx, name)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

// Export runs every stage for one world.
func (e *Exporter) Export(ctx context.Context, name string) (res Result, err error) {
	start := time.Now()
	res.World = name

	w, err := e.cfg.World(name)
	if err != nil {
		return res, err
	}

	dir, err := filepath.Abs(filepath.Join(e.cfg.Paths.Extraction, name))
	if err != nil {
		return res, err
	}
	res.Dir = dir

	log := e.log.With(zap.String("world", name))
	defer func() {
		res.Duration = time.Since(start)
		switch {
		case err != nil:
			e.metrics.countWorld(resultFailed)
			log.Error("export failed", zap.Error(err))
		case res.Skipped:
			e.metrics.countWorld(resultSkipped)
		default:
			e.metrics.countWorld(resultExported)
			log.Info("export done", zap.Duration("took", res.Duration))
		}
	}()

	if _, statErr := os.Stat(dir); statErr == nil {
		if !e.cfg.Reexport() {
			log.Info("skipping, extraction already exists", zap.String("dir", dir))
			res.Skipped = true
			return res, nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return res, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, err
	}

	log.Info("running export", zap.String("dir", dir))
	x := &export{Exporter: e, log: log, name: name, world: w, dir: dir}

	var extracted []string
	stages := []struct {
		name string
		fn   func() error
	}{
		{"download", func() error { return x.download(ctx) }},
		{"extract", func() error {
			if err := x.extractPBOs(ctx); err != nil {
				return err
			}
			names, lerr := listDir(dir)
			extracted = names
			return lerr
		}},
		{"mapinfo", x.writeMapInfo},
		{"layers", func() error { return x.collectLayers(ctx) }},
		{"convert", func() error {
			n, err := x.convertLayers(ctx)
			res.Layers = n
			return err
		}},
		{"cleanup", func() error { return x.cleanup(extracted) }},
		{"normalize", func() error { return x.normalize(ctx) }},
		{"merge", func() error {
			n, err := x.merge(ctx)
			res.Columns = n
			return err
		}},
		{"tile", func() error { return x.tile(ctx) }},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.stage(log, st.name, st.fn); err != nil {
			return res, fmt.Errorf("%s: %s: %w", name, st.name, err)
		}
	}

	return res, nil
}

// stage runs fn, timing and logging it.
func (e *Exporter) stage(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	log.Debug("stage start", zap.String("stage", name))

	err := fn()
	took := time.Since(start)
	e.metrics.observeStage(name, took)
	if err != nil {
		return err
	}
	log.Info("stage done", zap.String("stage", name), zap.Duration("took", took))

	return nil
}

// errNoLayers indicates a layers folder without s_*.paa tiles.
var errNoLayers = errors.New("no satellite layer tiles found")
