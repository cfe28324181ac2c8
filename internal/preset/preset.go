// Package preset keeps up to ten sanitized snapshots of the live loadout.
package preset

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xtding233/potential-simulator/internal/kv"
	"github.com/xtding233/potential-simulator/internal/potential"
)

// MaxPresets is the number of preset slots, addressed 1..MaxPresets.
const MaxPresets = 10

var ErrInvalidIndex = fmt.Errorf("invalid preset index; must be 1..%d", MaxPresets)

// Prompts passed to Confirm before destructive steps.
const (
	PromptLoad = "current loadout will be discarded"
)

// PromptOverwrite is the confirmation text for replacing preset index.
func PromptOverwrite(index int) string {
	return fmt.Sprintf("preset %d will be overwritten", index)
}

// Confirm asks the user a yes/no question. A nil Confirm declines.
type Confirm func(prompt string) bool

// Approve and Decline are fixed answers for non-interactive callers.
func Approve(string) bool { return true }
func Decline(string) bool { return false }

// Result describes what Save or Load did.
type Result int

const (
	Applied  Result = iota // stored / loaded
	Declined               // user refused confirmation, nothing changed
	Missing                // no readable preset at the index
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Declined:
		return "declined"
	case Missing:
		return "missing"
	}
	return "unknown"
}

// Entry describes one preset slot for listing.
type Entry struct {
	Index           int    `json:"index"`
	Available       bool   `json:"available"`
	MainCharacterID string `json:"mainCharacterId,omitempty"`
	Thumbnail       string `json:"thumbnail,omitempty"` // main character icon
}

// Store reads and writes presets and applies them to the live store.
type Store struct {
	live       *potential.Store
	storage    kv.Store
	characters potential.CharacterSource
	log        *zap.Logger
}

// NewStore creates a preset store. characters aligns stored presets with the
// catalog and resolves thumbnails; it may be nil.
func NewStore(live *potential.Store, storage kv.Store, characters potential.CharacterSource, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{live: live, storage: storage, characters: characters, log: log}
}

// Key is the storage key of preset index.
func Key(index int) string {
	return fmt.Sprintf("preset_%d", index)
}

func checkIndex(index int) error {
	if index < 1 || index > MaxPresets {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return nil
}

// Save stores a sanitized copy of the live state at index. Replacing an
// existing preset with different content requires confirmation.
func (s *Store) Save(index int, confirm Confirm) (Result, error) {
	if err := checkIndex(index); err != nil {
		return 0, err
	}

	next := s.live.Snapshot().Sanitized()
	if existing, ok := s.read(index); ok && !existing.Equal(next) {
		if !ask(confirm, PromptOverwrite(index)) {
			return Declined, nil
		}
	}

	raw, err := next.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode preset %d: %w", index, err)
	}
	if err := s.storage.Set(Key(index), raw); err != nil {
		return 0, fmt.Errorf("store preset %d: %w", index, err)
	}
	s.log.Info("preset saved", zap.Int("index", index), zap.String("main", next.Main.CharacterID))
	return Applied, nil
}

// Load replaces the live state with preset index. A non-empty live state that
// differs from the preset requires confirmation. The loaded state is returned
// when Applied.
func (s *Store) Load(index int, confirm Confirm) (Result, potential.State, error) {
	if err := checkIndex(index); err != nil {
		return 0, potential.State{}, err
	}

	st, ok := s.read(index)
	if !ok {
		return Missing, potential.State{}, nil
	}

	live := s.live.Snapshot()
	if !live.IsEmpty() && !live.Equal(st) {
		if !ask(confirm, PromptLoad) {
			return Declined, potential.State{}, nil
		}
	}

	s.live.Replace(st)
	s.log.Info("preset loaded", zap.Int("index", index), zap.String("main", st.Main.CharacterID))
	return Applied, st.Clone(), nil
}

// Get returns the stored preset at index, if readable.
func (s *Store) Get(index int) (potential.State, bool, error) {
	if err := checkIndex(index); err != nil {
		return potential.State{}, false, err
	}
	st, ok := s.read(index)
	return st, ok, nil
}

// List reports every preset slot in index order.
func (s *Store) List() []Entry {
	out := make([]Entry, 0, MaxPresets)
	for i := 1; i <= MaxPresets; i++ {
		e := Entry{Index: i}
		if st, ok := s.read(i); ok {
			e.Available = true
			e.MainCharacterID = st.Main.CharacterID
			if e.MainCharacterID != "" && s.characters != nil {
				if ch, found := s.characters.Character(e.MainCharacterID); found {
					e.Thumbnail = ch.Icon
				}
			}
		}
		out = append(out, e)
	}
	return out
}

// read treats unreadable and corrupt presets as absent.
func (s *Store) read(index int) (potential.State, bool) {
	raw, ok, err := s.storage.Get(Key(index))
	if err != nil {
		s.log.Warn("read preset", zap.Int("index", index), zap.Error(err))
		return potential.State{}, false
	}
	if !ok {
		return potential.State{}, false
	}
	st, err := potential.Decode(raw)
	if err != nil {
		s.log.Warn("ignoring corrupt preset", zap.Int("index", index), zap.Error(err))
		return potential.State{}, false
	}
	// older payloads may carry progress; presets never do
	st = st.Sanitized()
	if st.Reconcile(s.characters) {
		s.log.Debug("preset potentials realigned with catalog", zap.Int("index", index))
	}
	return st, true
}

func ask(confirm Confirm, prompt string) bool {
	if confirm == nil {
		return false
	}
	return confirm(prompt)
}
