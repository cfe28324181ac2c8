package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for the base catalog and its optional local overlay.
type Paths struct {
	Base string // e.g., data/potential.json
}

func (p Paths) BasePath() string {
	return p.Base
}

// OverlayPath is the base path with ".local" before the extension,
// e.g., data/potential.local.json. It adds or replaces characters by id.
func (p Paths) OverlayPath() string {
	ext := filepath.Ext(p.Base)
	return strings.TrimSuffix(p.Base, ext) + ".local" + ext
}

// Loader reads catalog files (YAML or JSON) and merges base ← overlay.
type Loader struct {
	paths Paths

	mu     sync.RWMutex
	cached *Catalog
}

// NewLoader creates a catalog loader for the given base file.
func NewLoader(path string) *Loader {
	return &Loader{paths: Paths{Base: path}}
}

// Paths returns every file the loader reads, for watching.
func (l *Loader) Paths() []string {
	return []string{l.paths.BasePath(), l.paths.OverlayPath()}
}

// Load returns the merged, validated catalog. Results are cached until Invalidate.
func (l *Loader) Load() (Catalog, error) {
	l.mu.RLock()
	if l.cached != nil {
		cat := *l.cached
		l.mu.RUnlock()
		return cat, nil
	}
	l.mu.RUnlock()

	base, err := readFile(l.paths.BasePath())
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	overlay, err := readFile(l.paths.OverlayPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Catalog{}, fmt.Errorf("read catalog overlay: %w", err)
	}

	merged := merge(base, overlay)
	if err := Validate(merged); err != nil {
		return Catalog{}, err
	}

	l.mu.Lock()
	l.cached = &merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// readFile decodes a catalog file. YAML is a superset of JSON, so one decoder serves both.
func readFile(path string) (Catalog, error) {
	var cat Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return Catalog{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cat, nil
}

// merge lets 'b' replace characters of 'a' with the same id and appends new ones.
func merge(a, b Catalog) Catalog {
	out := Catalog{Version: a.Version}
	if b.Version != "" {
		out.Version = b.Version
	}

	pos := make(map[string]int, len(a.Characters))
	out.Characters = make([]Character, 0, len(a.Characters)+len(b.Characters))
	for _, ch := range a.Characters {
		pos[ch.ID] = len(out.Characters)
		out.Characters = append(out.Characters, ch)
	}
	for _, ch := range b.Characters {
		if i, ok := pos[ch.ID]; ok {
			out.Characters[i] = ch
			continue
		}
		pos[ch.ID] = len(out.Characters)
		out.Characters = append(out.Characters, ch)
	}
	return out
}
