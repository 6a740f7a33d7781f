package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownWorld is returned for a world name missing from the catalog.
var ErrUnknownWorld = errors.New("unknown world")

// Environment variables read by Load.
const (
	EnvGameDataPath   = "GAME_DATA_PATH"
	EnvWorkshopPath   = "WS_DATA_PATH"
	EnvExtractionPath = "EXTRACTION_PATH"
	EnvSteamUser      = "STEAM_USER"
	EnvSteamPassword  = "STEAM_PASSWORD"
	EnvSteamGuard     = "STEAM_GUARD"
	EnvForceExport    = "FORCE_EXPORT"
	EnvExportHost     = "EXPORT_HOST"
)

// topLevelKeys are the sections of a full config file. A file with none of
// them is read as a bare world catalog (world name -> World).
var topLevelKeys = []string{"paths", "steam", "export", "logging", "metrics", "worlds"}

// Load loads configuration with priority: defaults < file < environment.
// CLI flags are applied by the caller with Flags.Apply.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

// load is Load with an injectable environment.
func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Explicit path takes priority
	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyEnv(cfg, lookup)

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./worlds.yaml",
		"./worlds.json",
		filepath.Join(ConfigDir(), "worlds.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "dzmaps")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "dzmaps")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "dzmaps")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "dzmaps")
	}
}

// loadFromFile loads config from a YAML or JSON file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return parse(cfg, data)
}

// parse merges a config document into cfg and records world order.
func parse(cfg *Config, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config root must be a mapping, got line %d", root.Line)
	}

	catalog := root
	if isFullConfig(root) {
		if err := root.Decode(cfg); err != nil {
			return err
		}
		catalog = mappingValue(root, "worlds")
	} else {
		worlds := map[string]World{}
		if err := root.Decode(&worlds); err != nil {
			return err
		}
		for name, w := range worlds {
			cfg.Worlds[name] = w
		}
	}

	if catalog != nil {
		for i := 0; i+1 < len(catalog.Content); i += 2 {
			name := catalog.Content[i].Value
			if !slices.Contains(cfg.order, name) {
				cfg.order = append(cfg.order, name)
			}
		}
	}

	return nil
}

// isFullConfig reports whether a mapping uses any top-level section key.
func isFullConfig(m *yaml.Node) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if slices.Contains(topLevelKeys, m.Content[i].Value) {
			return true
		}
	}
	return false
}

// mappingValue returns the value node of key in a mapping, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// applyEnv applies environment overrides.
// FORCE_EXPORT and EXPORT_HOST are switches: any non-empty value enables them.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = true
		}
	}

	str(EnvGameDataPath, &cfg.Paths.GameData)
	str(EnvWorkshopPath, &cfg.Paths.Workshop)
	str(EnvExtractionPath, &cfg.Paths.Extraction)
	str(EnvSteamUser, &cfg.Steam.User)
	str(EnvSteamPassword, &cfg.Steam.Password)
	str(EnvSteamGuard, &cfg.Steam.Guard)
	flag(EnvForceExport, &cfg.Export.Force)
	flag(EnvExportHost, &cfg.Export.ExportHost)
}

// World returns a catalog entry by name.
func (c *Config) World(name string) (World, error) {
	w, ok := c.Worlds[name]
	if !ok {
		return World{}, fmt.Errorf("%w %q", ErrUnknownWorld, name)
	}
	return w, nil
}

// WorldNames returns catalog names in file order; worlds added in code
// after loading follow in sorted order.
func (c *Config) WorldNames() []string {
	out := make([]string, 0, len(c.Worlds))
	for _, name := range c.order {
		if _, ok := c.Worlds[name]; ok {
			out = append(out, name)
		}
	}

	var rest []string
	for name := range c.Worlds {
		if !slices.Contains(out, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(out, rest...)
}

// Reexport reports whether an existing extraction must be replaced.
func (c *Config) Reexport() bool {
	return c.Export.Force || c.Export.ExportHost
}
