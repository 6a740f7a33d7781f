package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// redacted replaces secrets in dumped configs.
const redacted = "********"

// Marshal renders the effective config as YAML with secrets redacted.
func (c *Config) Marshal() ([]byte, error) {
	out := *c
	if out.Steam.Password != "" {
		out.Steam.Password = redacted
	}
	if out.Steam.Guard != "" {
		out.Steam.Guard = redacted
	}

	return yaml.Marshal(&out)
}

// SaveTo writes the config to a specific path with secrets redacted.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
