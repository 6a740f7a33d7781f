// Package mapinfo builds the viewer metadata (data.json) of an exported world
// from its parsed cfgWorlds class.
package mapinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/woozymasta/rvcfg"
	"github.com/woozymasta/rvcfg/internal/config"
)

var (
	// ErrMissingConfiguration indicates that CfgWorlds, the world class or a
	// required field of it is absent.
	ErrMissingConfiguration = errors.New("missing world configuration")
)

// File names written into the extraction directory.
const (
	DataFile    = "data.json"
	PreviewFile = "preview.png"
	MapFile     = "map.png"
)

// cfgWorldsClass is the top-level class holding world definitions.
const cfgWorldsClass = "CfgWorlds"

// MapInfo is the viewer metadata of one world.
type MapInfo struct {
	Title       string    `json:"title"`
	WorldName   string    `json:"worldName"`
	TilePattern string    `json:"tilePattern"`
	MaxZoom     int       `json:"maxZoom"`
	MinZoom     int       `json:"minZoom"`
	DefaultZoom int       `json:"defaultZoom"`
	Attribution *string   `json:"attribution"`
	TileSize    *int      `json:"tileSize"`
	Center      []float64 `json:"center"`
	WorldSize   float64   `json:"worldSize"`
	Scale       float64   `json:"scale"`
	Preview     string    `json:"preview"`
	FullSize    string    `json:"fullSize"`
	Locations   []any     `json:"locations"`
}

// Locate finds the class of a world under CfgWorlds. Both names match case-insensitively.
func Locate(root *rvcfg.Node, worldName string) (*rvcfg.Node, error) {
	worlds, ok := root.Class(cfgWorldsClass)
	if !ok {
		return nil, fmt.Errorf("%w: no %s class", ErrMissingConfiguration, cfgWorldsClass)
	}

	world, ok := worlds.Class(worldName)
	if !ok {
		return nil, fmt.Errorf("%w: no class %s in %s", ErrMissingConfiguration, worldName, cfgWorldsClass)
	}

	return world, nil
}

// Build assembles MapInfo from a parsed cfgWorlds file and the catalog entry.
// Catalog values win over values read from the world class.
func Build(root *rvcfg.Node, worldName string, w config.World) (*MapInfo, error) {
	world, err := Locate(root, worldName)
	if err != nil {
		return nil, err
	}

	cfgCenter, hasCenter := world.Vec2("centerPosition")

	info := &MapInfo{
		Title:       title(root, world, worldName),
		WorldName:   worldName,
		TilePattern: w.TilePattern,
		MaxZoom:     w.MaxZoomOrDefault(),
		DefaultZoom: max(w.DefaultZoom, 0),
		Scale:       w.Scale,
		Preview:     PreviewFile,
		FullSize:    MapFile,
		Locations:   []any{},
	}
	if info.TilePattern == "" {
		info.TilePattern = config.DefaultTilePattern
	}
	if info.Scale == 0 {
		info.Scale = 1
	}
	if w.Attribution != "" {
		info.Attribution = &w.Attribution
	}
	if w.TileSize > 0 {
		info.TileSize = &w.TileSize
	}

	switch {
	case len(w.Center) >= 2:
		info.Center = []float64{w.Center[0], w.Center[1]}
	case hasCenter:
		info.Center = cfgCenter.ToArray()
	default:
		return nil, fmt.Errorf("%w: %s has no centerPosition and no center is configured", ErrMissingConfiguration, worldName)
	}

	switch {
	case w.WorldSize > 0:
		info.WorldSize = w.WorldSize
	case hasCenter:
		info.WorldSize = cfgCenter.Max() * 2
	default:
		return nil, fmt.Errorf("%w: %s has no centerPosition and no worldSize is configured", ErrMissingConfiguration, worldName)
	}

	if names, ok := world.Class("Names"); ok {
		for name, loc := range names.Classes() {
			info.Locations = append(info.Locations, namedLocation(name, loc))
		}
	}
	for _, loc := range w.Locations {
		info.Locations = append(info.Locations, loc)
	}

	return info, nil
}

// title picks the display title: the world description, then the file-level
// description, then the world name.
func title(root, world *rvcfg.Node, worldName string) string {
	if s, ok := world.StringField("description"); ok && s != "" {
		return s
	}
	if s, ok := root.StringField("description"); ok && s != "" {
		return s
	}
	return worldName
}

// namedLocation copies a Names entry and tags it with its class name.
func namedLocation(name string, src *rvcfg.Node) *rvcfg.Node {
	out := rvcfg.NewNode()
	out.Parent = src.Parent
	for k, v := range src.All() {
		out.Set(k, v)
	}
	out.Set("cfgName", rvcfg.StringValue(name))

	return out
}

// Write stores info as data.json in dir.
func Write(dir string, info *MapInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DataFile, err)
	}

	return os.WriteFile(filepath.Join(dir, DataFile), b, 0o644)
}

// Read loads data.json from dir.
func Read(dir string) (*MapInfo, error) {
	b, err := os.ReadFile(filepath.Join(dir, DataFile))
	if err != nil {
		return nil, err
	}

	var info MapInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DataFile, err)
	}

	return &info, nil
}
