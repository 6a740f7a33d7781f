package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver resolves game paths such as `dz\worlds\enoch\data\layers`
// against a directory that holds extracted PBO content.
type PathResolver struct {
	Root string
}

// ResolvePath maps a raw game path to a path under Root.
// Backslashes become OS separators; a drive prefix (P:) and leading
// separators are dropped since game paths are always rooted in the data tree.
func (r PathResolver) ResolvePath(raw string) string {
	if raw == "" {
		return ""
	}

	norm := strings.TrimLeft(normalizeGamePath(raw), "/")
	if r.Root == "" {
		return filepath.Clean(filepath.FromSlash(norm))
	}

	return filepath.Clean(filepath.Join(r.Root, filepath.FromSlash(norm)))
}

// Lookup resolves a raw game path like ResolvePath and then matches every
// segment case-insensitively against the directory tree, since extracted
// PBO content keeps whatever case the packer used.
func (r PathResolver) Lookup(raw string) (string, error) {
	exact := r.ResolvePath(raw)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	cur := r.Root
	if cur == "" {
		cur = "."
	}
	for _, seg := range strings.Split(strings.TrimLeft(normalizeGamePath(raw), "/"), "/") {
		if seg == "" || seg == "." {
			continue
		}

		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", err
		}

		found := ""
		for _, e := range entries {
			if e.Name() == seg {
				found = e.Name()
				break
			}
			if found == "" && strings.EqualFold(e.Name(), seg) {
				found = e.Name()
			}
		}
		if found == "" {
			return "", fmt.Errorf("game path %q: %w", raw, os.ErrNotExist)
		}
		cur = filepath.Join(cur, found)
	}

	return cur, nil
}

// normalizeGamePath converts separators to slashes and drops a drive prefix.
func normalizeGamePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if hasVolume(p) {
		p = p[2:]
	}
	return p
}

// hasVolume checks if the path has a drive letter.
func hasVolume(p string) bool {
	return len(p) >= 2 && p[1] == ':'
}
