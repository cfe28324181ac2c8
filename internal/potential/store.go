package potential

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xtding233/potential-simulator/internal/catalog"
	"github.com/xtding233/potential-simulator/internal/kv"
)

// CurrentStateKey is the storage key of the live state.
const CurrentStateKey = "currentState"

// CapacityReason is shown when a third core potential is requested.
var CapacityReason = fmt.Sprintf("only %d core potentials can be obtained", MaxCorePotentials)

// CharacterSource resolves catalog characters by id.
type CharacterSource interface {
	Character(id string) (catalog.Character, bool)
}

// Outcome reports whether an intent was applied. A rejected intent leaves
// state unchanged and carries a human-facing reason.
type Outcome struct {
	Accepted bool
	Reason   string
}

// Store owns the live three-slot state. Every successful mutation is written
// to storage under CurrentStateKey. It is not safe for concurrent use; callers
// serialize intents.
type Store struct {
	characters CharacterSource
	storage    kv.Store
	log        *zap.Logger

	state State
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates an empty store. Call Hydrate to restore persisted state.
func NewStore(characters CharacterSource, storage kv.Store, opts ...Option) *Store {
	s := &Store{
		characters: characters,
		storage:    storage,
		log:        zap.NewNop(),
		state:      NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the live state with the persisted one. Missing data leaves
// the state empty; unreadable or corrupt data also leaves it empty and is
// returned so the caller can report it.
func (s *Store) Hydrate() error {
	raw, ok, err := s.storage.Get(CurrentStateKey)
	if err != nil {
		return fmt.Errorf("read live state: %w", err)
	}
	if !ok {
		return nil
	}
	st, err := Decode(raw)
	if err != nil {
		return err
	}
	s.state = st
	if s.state.Reconcile(s.characters) {
		s.log.Warn("live state potentials realigned with catalog")
		s.persist()
	}
	s.log.Info("live state restored",
		zap.String("main", st.Main.CharacterID),
		zap.String("support1", st.Support1.CharacterID),
		zap.String("support2", st.Support2.CharacterID),
	)
	return nil
}

// Snapshot returns a deep copy of the live state.
func (s *Store) Snapshot() State {
	return s.state.Clone()
}

// Slot returns a deep copy of one slot.
func (s *Store) Slot(slot Slot) (SlotState, error) {
	ss, err := s.state.Slot(slot)
	if err != nil {
		return SlotState{}, err
	}
	return ss.Clone(), nil
}

// Replace swaps in a deep copy of st wholesale, aligned with the catalog,
// and persists it.
func (s *Store) Replace(st State) {
	s.state = st.Clone()
	s.state.Reconcile(s.characters)
	s.persist()
}

// Reconcile realigns the live potential maps with the current catalog, e.g.
// after a reload changed a character's potentials. Changes are persisted.
func (s *Store) Reconcile() bool {
	if !s.state.Reconcile(s.characters) {
		return false
	}
	s.log.Warn("live state potentials realigned with catalog")
	s.persist()
	return true
}

// MissingCharacters lists slots whose character is absent from the catalog.
func (s *Store) MissingCharacters() []Slot {
	var out []Slot
	for _, slot := range Slots {
		ss, _ := s.state.Slot(slot)
		if ss.CharacterID == "" {
			continue
		}
		if _, ok := s.characters.Character(ss.CharacterID); !ok {
			out = append(out, slot)
		}
	}
	return out
}

// SelectCharacter assigns characterID to slot with freshly defaulted potentials,
// or clears the slot when characterID is empty.
func (s *Store) SelectCharacter(slot Slot, characterID string) error {
	ss, err := s.state.Slot(slot)
	if err != nil {
		return err
	}
	if characterID == "" {
		*ss = emptySlot()
		s.persist()
		return nil
	}

	ch, ok := s.characters.Character(characterID)
	if !ok {
		return &NotFoundError{CharacterID: characterID}
	}
	set, ok := ch.PotentialSet(slot.Role())
	if !ok {
		return fmt.Errorf("%w: %q has no %s potentials", ErrCharacterNotFound, characterID, slot.Role())
	}
	*ss = newSlot(characterID, set)
	s.persist()
	return nil
}

// ToggleCorePotential flips a core potential between planned and not planned.
// Planning a third one is rejected; unplanning also clears acquired.
func (s *Store) ToggleCorePotential(slot Slot, potentialID string) (Outcome, error) {
	ss, err := s.state.Slot(slot)
	if err != nil {
		return Outcome{}, err
	}
	c, ok := ss.CorePotentials[potentialID]
	if !ok {
		return Outcome{}, &UnknownPotentialError{Slot: slot, Kind: KindCore, PotentialID: potentialID}
	}

	if !c.Obtained {
		if ss.ObtainedCount() >= MaxCorePotentials {
			return Outcome{Reason: CapacityReason}, nil
		}
		c.Obtained = true
	} else {
		c.Obtained = false
		c.Acquired = false
	}
	ss.CorePotentials[potentialID] = c
	s.persist()
	return Outcome{Accepted: true}, nil
}

// SetSubPotentialLevel sets the planned level and resets the counter.
func (s *Store) SetSubPotentialLevel(slot Slot, potentialID string, level Level) error {
	if _, err := ParseLevel(string(level)); err != nil {
		return err
	}
	ss, err := s.state.Slot(slot)
	if err != nil {
		return err
	}
	sub, ok := ss.SubPotentials[potentialID]
	if !ok {
		return &UnknownPotentialError{Slot: slot, Kind: KindSub, PotentialID: potentialID}
	}
	sub.Status = level
	sub.Count = 0
	ss.SubPotentials[potentialID] = sub
	s.persist()
	return nil
}

// ClickPotentialImage records in-game progress: core toggles acquired, sub
// advances the counter, wrapping after MaxSubLevel. Unplanned potentials ignore clicks.
func (s *Store) ClickPotentialImage(slot Slot, potentialID string, kind Kind) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	ss, err := s.state.Slot(slot)
	if err != nil {
		return err
	}

	switch kind {
	case KindCore:
		c, ok := ss.CorePotentials[potentialID]
		if !ok {
			return &UnknownPotentialError{Slot: slot, Kind: kind, PotentialID: potentialID}
		}
		if !c.Obtained {
			return nil
		}
		c.Acquired = !c.Acquired
		ss.CorePotentials[potentialID] = c

	case KindSub:
		sub, ok := ss.SubPotentials[potentialID]
		if !ok {
			return &UnknownPotentialError{Slot: slot, Kind: kind, PotentialID: potentialID}
		}
		if sub.Status == LevelNone {
			return nil
		}
		sub.Count++
		if sub.Count > MaxSubLevel {
			sub.Count = 0
		}
		ss.SubPotentials[potentialID] = sub
	}

	s.persist()
	return nil
}

// ResetCounts clears every acquired flag and counter; plans are kept.
func (s *Store) ResetCounts() {
	for _, slot := range Slots {
		ss, _ := s.state.Slot(slot)
		ss.resetProgress()
	}
	s.persist()
}

// ResetAll empties every slot. Callers must obtain user confirmation first.
func (s *Store) ResetAll() {
	s.state = NewState()
	s.persist()
}

// persist is fire-and-forget: failures are logged, never returned.
func (s *Store) persist() {
	raw, err := s.state.Encode()
	if err != nil {
		s.log.Error("encode live state", zap.Error(err))
		return
	}
	if err := s.storage.Set(CurrentStateKey, raw); err != nil {
		s.log.Warn("persist live state", zap.Error(err))
	}
}
