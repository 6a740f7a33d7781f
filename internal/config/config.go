// Package config handles the world catalog and export settings.
package config

// Config holds all export settings.
type Config struct {
	Paths   PathsConfig      `yaml:"paths"`
	Steam   SteamConfig      `yaml:"steam"`
	Export  ExportConfig     `yaml:"export"`
	Logging LoggingConfig    `yaml:"logging"`
	Metrics MetricsConfig    `yaml:"metrics"`
	Worlds  map[string]World `yaml:"worlds"`

	order []string // World names in file order
}

// PathsConfig holds working directories.
type PathsConfig struct {
	GameData   string `yaml:"game_data"`  // steamcmd install dir of the game
	Workshop   string `yaml:"workshop"`   // steamcmd install dir for workshop items
	Extraction string `yaml:"extraction"` // Per-world output root
	IndexPage  string `yaml:"index_page"` // Leaflet viewer copied next to data.json, optional
	Gdal2Tiles string `yaml:"gdal2tiles"` // Path to gdal2tiles.py (leaflet fork)
}

// SteamConfig holds steamcmd credentials.
type SteamConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Guard    string `yaml:"guard"`
	AppID    int    `yaml:"app_id"`
}

// ExportConfig holds run-wide export switches.
type ExportConfig struct {
	Force        bool `yaml:"force"`         // Re-export even if the extraction dir exists
	ExportHost   bool `yaml:"export_host"`   // Running on the export host, always re-export
	SkipDownload bool `yaml:"skip_download"` // Use already installed game data
	Parallelism  int  `yaml:"parallelism"`   // Concurrent image tool runs
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// World describes one exportable map.
type World struct {
	WorkshopID   string     `yaml:"workshopId,omitempty" json:"workshopId,omitempty"`
	ExtractPBOs  []string   `yaml:"extractPbos" json:"extractPbos"`
	CfgWorlds    string     `yaml:"cfgWorlds" json:"cfgWorlds"`
	LayersFolder string     `yaml:"layersFolder" json:"layersFolder"`
	MaxZoom      int        `yaml:"maxZoom,omitempty" json:"maxZoom,omitempty"`
	DefaultZoom  int        `yaml:"defaultZoom,omitempty" json:"defaultZoom,omitempty"`
	Attribution  string     `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	TileSize     int        `yaml:"tileSize,omitempty" json:"tileSize,omitempty"`
	Center       []float64  `yaml:"center,omitempty" json:"center,omitempty"`
	WorldSize    float64    `yaml:"worldSize,omitempty" json:"worldSize,omitempty"`
	Scale        float64    `yaml:"scale,omitempty" json:"scale,omitempty"`
	TilePattern  string     `yaml:"tilePattern,omitempty" json:"tilePattern,omitempty"`
	Shave        string     `yaml:"shave,omitempty" json:"shave,omitempty"`
	Locations    []Location `yaml:"locations,omitempty" json:"locations,omitempty"`
}

// Location is a free-form map marker appended after the cfgWorlds names.
type Location map[string]any

// Defaults used when a world leaves a field empty.
const (
	DefaultMaxZoom     = 8
	DefaultShave       = "16x16"
	DefaultTilePattern = "tiles/{z}/{x}/{y}.png"
	DefaultAppID       = 221100
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			GameData:   "/cache/dayzmaps/gamedata",
			Workshop:   "/cache/dayzmaps/wsdata",
			Extraction: "extraction",
			Gdal2Tiles: "/usr/local/src/gdal2tiles-leaflet-master/gdal2tiles.py",
		},
		Steam: SteamConfig{
			AppID: DefaultAppID,
		},
		Export: ExportConfig{
			Parallelism: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Worlds: map[string]World{},
	}
}

// MaxZoomOrDefault returns the configured max zoom, or DefaultMaxZoom when unset.
func (w World) MaxZoomOrDefault() int {
	if w.MaxZoom > 0 {
		return w.MaxZoom
	}
	return DefaultMaxZoom
}

// ShaveOrDefault returns the border geometry removed from every layer tile.
func (w World) ShaveOrDefault() string {
	if w.Shave != "" {
		return w.Shave
	}
	return DefaultShave
}
