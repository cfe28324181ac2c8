package catalog

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable is returned while no catalog has been loaded successfully.
var ErrUnavailable = errors.New("character catalog is not loaded")

// Holder owns the catalog currently in use. It stays empty (not ready) until a load
// succeeds; a failed reload keeps the previous catalog.
type Holder struct {
	loader *Loader
	log    *zap.Logger

	mu        sync.RWMutex
	current   *Catalog
	listeners []func(Catalog)
}

// NewHolder creates a holder over loader. A nil logger discards output.
func NewHolder(loader *Loader, log *zap.Logger) *Holder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Holder{loader: loader, log: log}
}

// NewStaticHolder wraps an already loaded catalog; Reload is a no-op.
func NewStaticHolder(cat Catalog) *Holder {
	return &Holder{current: &cat, log: zap.NewNop()}
}

// OnChange registers fn to run after every successful load.
func (h *Holder) OnChange(fn func(Catalog)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Reload re-reads the catalog files and swaps it in on success.
func (h *Holder) Reload() error {
	if h.loader == nil {
		return nil
	}
	h.loader.Invalidate()
	cat, err := h.loader.Load()
	if err != nil {
		h.log.Error("catalog load failed", zap.Error(err))
		return err
	}

	h.mu.Lock()
	h.current = &cat
	listeners := append([]func(Catalog){}, h.listeners...)
	h.mu.Unlock()

	h.log.Info("catalog loaded",
		zap.String("version", cat.Version),
		zap.Int("characters", len(cat.Characters)),
	)
	for _, fn := range listeners {
		fn(cat)
	}
	return nil
}

// Ready reports whether a catalog is available.
func (h *Holder) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil
}

// Catalog returns the current catalog or ErrUnavailable.
func (h *Holder) Catalog() (Catalog, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Catalog{}, ErrUnavailable
	}
	return *h.current, nil
}

// Character looks up a character in the current catalog.
func (h *Holder) Character(id string) (Character, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Character(id)
}
