package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/rvcfg"
	"github.com/woozymasta/rvcfg/internal/config"
	"github.com/woozymasta/rvcfg/internal/mapinfo"
)

// Tool names.
const (
	toolSteam      = "steamcmd"
	toolExtractPBO = "extractpbo"
	toolArmake     = "armake"
	toolConvert    = "convert"
	toolMogrify    = "mogrify"
	toolPython     = "python3"
)

// steamOKCodes are steamcmd exit codes that still leave the content installed.
var steamOKCodes = []int{0, 6, 7}

// export is the state of one world export.
type export struct {
	*Exporter
	log   *zap.Logger
	name  string
	world config.World
	dir   string
}

// download installs the game or the workshop item with steamcmd.
func (x *export) download(ctx context.Context) error {
	if x.cfg.Export.SkipDownload {
		x.log.Info("download skipped")
		return nil
	}

	steam := x.cfg.Steam
	app := strconv.Itoa(steam.AppID)

	args := []string{"+@sSteamCmdForcePlatformType windows"}
	if steam.Guard != "" {
		args = append(args, "+set_steam_guard_code", steam.Guard)
	}
	args = append(args, "+login", steam.User, steam.Password)
	if x.world.WorkshopID == "" {
		args = append(args, "+force_install_dir", x.cfg.Paths.GameData, "+app_update", app)
	} else {
		args = append(args, "+force_install_dir", x.cfg.Paths.Workshop, "+workshop_download_item", app, x.world.WorkshopID)
	}
	args = append(args, "+quit")

	_, err := x.run.Run(ctx, Command{
		Name:        toolSteam,
		Args:        args,
		OKCodes:     steamOKCodes,
		Secrets:     []string{steam.Password, steam.Guard},
		Interactive: true,
	})
	return err
}

// pboSource returns the installed path of a PBO.
// Workshop items ship either addons or Addons.
func (x *export) pboSource(pbo string) string {
	if x.world.WorkshopID == "" {
		return filepath.Join(x.cfg.Paths.GameData, "Addons", pbo)
	}

	base := filepath.Join(x.cfg.Paths.Workshop, "steamapps", "workshop", "content",
		strconv.Itoa(x.cfg.Steam.AppID), x.world.WorkshopID)
	lower := filepath.Join(base, "addons", pbo)
	if _, err := os.Stat(lower); err == nil {
		return lower
	}

	return filepath.Join(base, "Addons", pbo)
}

// extractPBOs copies each PBO into the extraction dir, unpacks it and removes the copy.
func (x *export) extractPBOs(ctx context.Context) error {
	for _, pbo := range x.world.ExtractPBOs {
		dst := filepath.Join(x.dir, pbo)
		if err := copyFile(x.pboSource(pbo), dst); err != nil {
			return err
		}

		x.log.Info("extracting", zap.String("pbo", pbo))
		if _, err := x.run.Run(ctx, Command{Name: toolExtractPBO, Args: []string{pbo, x.dir}, Dir: x.dir}); err != nil {
			return err
		}
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	return nil
}

// writeMapInfo parses the cfgWorlds file and writes data.json and the viewer page.
func (x *export) writeMapInfo() error {
	cfgPath, err := PathResolver{Root: x.dir}.Lookup(x.world.CfgWorlds)
	if err != nil {
		return err
	}

	doc, err := readDocument(cfgPath, x.log)
	if err != nil {
		return err
	}
	for _, it := range doc.Warnings() {
		x.log.Debug("cfgWorlds line skipped", zap.String("file", cfgPath), zap.Stringer("issue", it))
	}

	info, err := mapinfo.Build(doc.Root, x.name, x.world)
	if err != nil {
		return err
	}

	x.log.Info("writing config", zap.String("title", info.Title), zap.Int("locations", len(info.Locations)))
	if err := mapinfo.Write(x.dir, info); err != nil {
		return err
	}

	if page := x.cfg.Paths.IndexPage; page != "" {
		return copyFile(page, filepath.Join(x.dir, mapinfo.OverviewFile))
	}
	return nil
}

// readDocument parses a cfgWorlds file with comment stripping.
func readDocument(path string, log *zap.Logger) (*rvcfg.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return rvcfg.ParseDocument(b, &rvcfg.ParseOptions{
		Logger:        log.Named("rvcfg"),
		StripComments: true,
	})
}

// collectLayers copies s_*.paa tiles from the layers folder into the
// extraction dir with lowercased names.
func (x *export) collectLayers(ctx context.Context) error {
	layers, err := PathResolver{Root: x.dir}.Lookup(x.world.LayersFolder)
	if err != nil {
		return err
	}

	names, err := listDir(layers)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(x.parallelism())
	count := 0
	for _, name := range names {
		lower := strings.ToLower(name)
		if !isLayer(lower, ".paa") {
			continue
		}
		count++
		src, dst := filepath.Join(layers, name), filepath.Join(x.dir, lower)
		g.Go(func() error { return copyFile(src, dst) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w in %s", errNoLayers, layers)
	}

	x.log.Info("layers collected", zap.Int("count", count))
	return nil
}

// convertLayers turns every s_*.paa into s_*.png with armake.
func (x *export) convertLayers(ctx context.Context) (int, error) {
	paas, err := x.layerFiles(".paa")
	if err != nil {
		return 0, err
	}

	x.log.Info("converting PAAs to PNGs", zap.Int("count", len(paas)))
	err = x.forEach(ctx, paas, "Converting PAA", func(ctx context.Context, name string) error {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		_, err := x.run.Run(ctx, Command{Name: toolArmake, Args: []string{"paa2img", base + ".paa", base + ".png"}, Dir: x.dir})
		if err == nil {
			x.metrics.countLayer()
		}
		return err
	})

	return len(paas), err
}

// cleanup removes the extracted PBO content and the source tiles.
func (x *export) cleanup(extracted []string) error {
	for _, name := range extracted {
		if err := os.RemoveAll(filepath.Join(x.dir, name)); err != nil {
			return err
		}
	}

	paas, err := x.layerFiles(".paa")
	if err != nil {
		return err
	}
	return removeAll(x.dir, paas)
}

// normalize caps tile size at 512x512 and shaves the overlapping border.
func (x *export) normalize(ctx context.Context) error {
	pngs, err := x.layerFiles(".png")
	if err != nil {
		return err
	}

	x.log.Info("size check", zap.Int("count", len(pngs)))
	err = x.forEach(ctx, pngs, "Scaling", func(ctx context.Context, name string) error {
		_, err := x.run.Run(ctx, Command{Name: toolConvert, Args: []string{"-scale", "512x512<", name, name}, Dir: x.dir})
		return err
	})
	if err != nil {
		return err
	}

	shave := x.world.ShaveOrDefault()
	x.log.Info("shaving", zap.String("geometry", shave))
	return x.forEach(ctx, pngs, "Shaving", func(ctx context.Context, name string) error {
		_, err := x.run.Run(ctx, Command{Name: toolMogrify, Args: []string{"-shave", shave, name}, Dir: x.dir})
		return err
	})
}

// merge stacks tiles into columns, joins the columns into map.png and
// renders preview.png. It returns the number of columns.
func (x *export) merge(ctx context.Context) (int, error) {
	maxTile := 0
	for {
		marker := filepath.Join(x.dir, columnMarker(maxTile+1))
		if _, err := os.Stat(marker); err != nil {
			break
		}
		maxTile++
	}
	x.log.Info("merge stage 1", zap.Int("maxTile", maxTile))

	cols := make([]int, maxTile+1)
	for i := range cols {
		cols[i] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.parallelism())
	bar := newProgressBar(x.bars, len(cols), "Merging columns")
	for _, i := range cols {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			tiles, err := filepath.Glob(filepath.Join(x.dir, fmt.Sprintf("s_%03d*.png", i)))
			if err != nil {
				return err
			}
			if len(tiles) == 0 {
				return fmt.Errorf("column %d: %w", i, errNoLayers)
			}

			args := []string{"-append"}
			for _, t := range tiles {
				args = append(args, filepath.Base(t))
			}
			args = append(args, columnFile(i))
			_, err = x.run.Run(gctx, Command{Name: toolConvert, Args: args, Dir: x.dir})
			return err
		})
	}
	err := g.Wait()
	_ = bar.Finish()
	if err != nil {
		return 0, err
	}

	pngs, err := x.layerFiles(".png")
	if err != nil {
		return 0, err
	}
	if err := removeAll(x.dir, pngs); err != nil {
		return 0, err
	}

	x.log.Info("merge stage 2")
	rows, err := filepath.Glob(filepath.Join(x.dir, "row_*.png"))
	if err != nil {
		return 0, err
	}
	args := []string{"+append"}
	for _, r := range rows {
		args = append(args, filepath.Base(r))
	}
	args = append(args, mapinfo.MapFile)
	if _, err := x.run.Run(ctx, Command{Name: toolConvert, Args: args, Dir: x.dir}); err != nil {
		return 0, err
	}

	if _, err := x.run.Run(ctx, Command{
		Name: toolConvert,
		Args: []string{mapinfo.MapFile, "-resize", "512x512", mapinfo.PreviewFile},
		Dir:  x.dir,
	}); err != nil {
		return 0, err
	}

	for _, r := range rows {
		if err := os.Remove(r); err != nil {
			return 0, err
		}
	}

	return len(cols), nil
}

// tile cuts map.png into a leaflet tile pyramid.
func (x *export) tile(ctx context.Context) error {
	_, err := x.run.Run(ctx, Command{
		Name: toolPython,
		Args: []string{
			x.cfg.Paths.Gdal2Tiles,
			"--leaflet",
			"-p", "raster",
			"-z", fmt.Sprintf("0-%d", x.world.MaxZoomOrDefault()),
			"-w", "none",
			mapinfo.MapFile,
			"tiles",
		},
		Dir: x.dir,
	})
	return err
}

// forEach runs fn for every name with bounded parallelism and a progress bar.
func (x *export) forEach(ctx context.Context, names []string, desc string, fn func(context.Context, string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.parallelism())
	bar := newProgressBar(x.bars, len(names), desc)

	for _, name := range names {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			return fn(gctx, name)
		})
	}

	err := g.Wait()
	_ = bar.Finish()
	return err
}

// layerFiles lists s_* files with ext in the extraction dir, sorted.
func (x *export) layerFiles(ext string) ([]string, error) {
	names, err := listDir(x.dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range names {
		if isLayer(name, ext) {
			out = append(out, name)
		}
	}

	return out, nil
}

// parallelism returns the tool concurrency limit.
func (x *export) parallelism() int {
	if x.cfg.Export.Parallelism > 0 {
		return x.cfg.Export.Parallelism
	}
	return 1
}

// isLayer reports whether name is a satellite layer tile with ext.
func isLayer(name, ext string) bool {
	return strings.HasPrefix(name, "s_") && strings.HasSuffix(name, ext)
}

// columnMarker is the first tile of column i; its presence means the column exists.
func columnMarker(i int) string {
	return fmt.Sprintf("s_%03d_000_lco.png", i)
}

// columnFile is the merged image of column i.
func columnFile(i int) string {
	return fmt.Sprintf("row_%02d.png", i+1)
}

// listDir returns entry names of dir, sorted.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)

	return out, nil
}

// removeAll removes names from dir.
func removeAll(dir string, names []string) error {
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies src to dst, creating parent directories.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
