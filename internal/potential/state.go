package potential

import (
	"encoding/json"
	"fmt"

	"github.com/xtding233/potential-simulator/internal/catalog"
)

const (
	MaxCorePotentials = 2 // obtained core potentials per slot
	MaxSubLevel       = 6 // sub potential click counter wraps to 0 past this
)

// Slot is one of the three fixed loadout positions.
type Slot string

const (
	SlotMain     Slot = "main"
	SlotSupport1 Slot = "support1"
	SlotSupport2 Slot = "support2"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotMain, SlotSupport1, SlotSupport2}

// ParseSlot validates a slot identifier.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotMain, SlotSupport1, SlotSupport2:
		return Slot(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

// Role maps the slot to the catalog potential set it uses.
func (s Slot) Role() catalog.Role {
	if s == SlotMain {
		return catalog.RoleMain
	}
	return catalog.RoleSupport
}

// Level is the planned acquisition level of a sub potential.
type Level string

const (
	LevelNone Level = "none"
	Level1    Level = "level1"
	Level2To5 Level = "level2-5"
	Level6    Level = "level6"
)

// ParseLevel validates a sub potential level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelNone, Level1, Level2To5, Level6:
		return Level(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Kind distinguishes core from sub potentials for image clicks.
type Kind string

const (
	KindCore Kind = "core"
	KindSub  Kind = "sub"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCore, KindSub:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

type CoreState struct {
	Obtained bool `json:"obtained"` // planned
	Acquired bool `json:"acquired"` // checked off in game
}

type SubState struct {
	Status Level `json:"status"`
	Count  int   `json:"count"` // 0..MaxSubLevel
}

// SlotState is one slot's character and potential plan. An empty CharacterID
// means no character and empty maps.
type SlotState struct {
	CharacterID    string               `json:"characterId"`
	CorePotentials map[string]CoreState `json:"corePotentials"`
	SubPotentials  map[string]SubState  `json:"subPotentials"`
}

// MarshalJSON writes an empty slot's characterId as null, the shape the
// browser build stores.
func (s SlotState) MarshalJSON() ([]byte, error) {
	type fields SlotState
	var id *string
	if s.CharacterID != "" {
		id = &s.CharacterID
	}
	return json.Marshal(struct {
		CharacterID *string `json:"characterId"`
		fields
	}{CharacterID: id, fields: fields(s)})
}

func emptySlot() SlotState {
	return SlotState{
		CorePotentials: map[string]CoreState{},
		SubPotentials:  map[string]SubState{},
	}
}

// newSlot builds default entries for every potential in set.
func newSlot(characterID string, set catalog.PotentialSet) SlotState {
	st := SlotState{
		CharacterID:    characterID,
		CorePotentials: make(map[string]CoreState, len(set.Core)),
		SubPotentials:  make(map[string]SubState, len(set.Sub)),
	}
	for _, id := range set.CoreIDs() {
		st.CorePotentials[id] = CoreState{}
	}
	for _, id := range set.SubIDs() {
		st.SubPotentials[id] = SubState{Status: LevelNone}
	}
	return st
}

// Clone returns a deep copy.
func (s SlotState) Clone() SlotState {
	out := SlotState{
		CharacterID:    s.CharacterID,
		CorePotentials: make(map[string]CoreState, len(s.CorePotentials)),
		SubPotentials:  make(map[string]SubState, len(s.SubPotentials)),
	}
	for id, c := range s.CorePotentials {
		out.CorePotentials[id] = c
	}
	for id, sub := range s.SubPotentials {
		out.SubPotentials[id] = sub
	}
	return out
}

// ObtainedCount counts core potentials planned for acquisition.
func (s SlotState) ObtainedCount() int {
	n := 0
	for _, c := range s.CorePotentials {
		if c.Obtained {
			n++
		}
	}
	return n
}

// Planned returns a copy without core potentials that are not obtained and
// sub potentials with status none.
func (s SlotState) Planned() SlotState {
	out := SlotState{
		CharacterID:    s.CharacterID,
		CorePotentials: map[string]CoreState{},
		SubPotentials:  map[string]SubState{},
	}
	for id, c := range s.CorePotentials {
		if c.Obtained {
			out.CorePotentials[id] = c
		}
	}
	for id, sub := range s.SubPotentials {
		if sub.Status != LevelNone {
			out.SubPotentials[id] = sub
		}
	}
	return out
}

func (s *SlotState) resetProgress() {
	for id, c := range s.CorePotentials {
		c.Acquired = false
		s.CorePotentials[id] = c
	}
	for id, sub := range s.SubPotentials {
		sub.Count = 0
		s.SubPotentials[id] = sub
	}
}

func (s SlotState) equal(o SlotState) bool {
	if s.CharacterID != o.CharacterID ||
		len(s.CorePotentials) != len(o.CorePotentials) ||
		len(s.SubPotentials) != len(o.SubPotentials) {
		return false
	}
	for id, c := range s.CorePotentials {
		if oc, ok := o.CorePotentials[id]; !ok || oc != c {
			return false
		}
	}
	for id, sub := range s.SubPotentials {
		if osub, ok := o.SubPotentials[id]; !ok || osub != sub {
			return false
		}
	}
	return true
}

// normalize repairs benign gaps in decoded data and rejects states that break
// an invariant.
func (s *SlotState) normalize() error {
	if s.CorePotentials == nil {
		s.CorePotentials = map[string]CoreState{}
	}
	if s.SubPotentials == nil {
		s.SubPotentials = map[string]SubState{}
	}
	if s.CharacterID == "" {
		// stale entries from a cleared slot
		*s = emptySlot()
		return nil
	}
	for id, c := range s.CorePotentials {
		if c.Acquired && !c.Obtained {
			return fmt.Errorf("core %q acquired but not obtained", id)
		}
	}
	if n := s.ObtainedCount(); n > MaxCorePotentials {
		return fmt.Errorf("%d core potentials obtained, max %d", n, MaxCorePotentials)
	}
	for id, sub := range s.SubPotentials {
		if sub.Status == "" {
			sub.Status = LevelNone
		}
		if _, err := ParseLevel(string(sub.Status)); err != nil {
			return fmt.Errorf("sub %q: %w", id, err)
		}
		if sub.Count < 0 || sub.Count > MaxSubLevel {
			return fmt.Errorf("sub %q count %d outside 0..%d", id, sub.Count, MaxSubLevel)
		}
		if sub.Status == LevelNone && sub.Count != 0 {
			return fmt.Errorf("sub %q has count %d with status none", id, sub.Count)
		}
		s.SubPotentials[id] = sub
	}
	return nil
}

// reconcile aligns the maps with set: known ids keep their state, missing ids
// get defaults and ids outside the set are dropped. It reports whether
// anything changed.
func (s *SlotState) reconcile(set catalog.PotentialSet) bool {
	want := newSlot(s.CharacterID, set)
	changed := len(s.CorePotentials) != len(want.CorePotentials) ||
		len(s.SubPotentials) != len(want.SubPotentials)
	for id := range want.CorePotentials {
		if c, ok := s.CorePotentials[id]; ok {
			want.CorePotentials[id] = c
		} else {
			changed = true
		}
	}
	for id := range want.SubPotentials {
		if sub, ok := s.SubPotentials[id]; ok {
			want.SubPotentials[id] = sub
		} else {
			changed = true
		}
	}
	*s = want
	return changed
}

// State is the full three-slot loadout.
type State struct {
	Main     SlotState `json:"main"`
	Support1 SlotState `json:"support1"`
	Support2 SlotState `json:"support2"`
}

// NewState returns a state with every slot empty.
func NewState() State {
	return State{Main: emptySlot(), Support1: emptySlot(), Support2: emptySlot()}
}

// Slot returns a pointer to the named slot inside s.
func (s *State) Slot(slot Slot) (*SlotState, error) {
	switch slot {
	case SlotMain:
		return &s.Main, nil
	case SlotSupport1:
		return &s.Support1, nil
	case SlotSupport2:
		return &s.Support2, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
}

// Clone returns a deep copy; no map is shared with s.
func (s State) Clone() State {
	return State{
		Main:     s.Main.Clone(),
		Support1: s.Support1.Clone(),
		Support2: s.Support2.Clone(),
	}
}

// Sanitized returns a deep copy with every acquired flag and count zeroed.
func (s State) Sanitized() State {
	out := s.Clone()
	out.Main.resetProgress()
	out.Support1.resetProgress()
	out.Support2.resetProgress()
	return out
}

// Equal reports structural equality.
func (s State) Equal(o State) bool {
	return s.Main.equal(o.Main) && s.Support1.equal(o.Support1) && s.Support2.equal(o.Support2)
}

// IsEmpty reports whether no slot has a character.
func (s State) IsEmpty() bool {
	return s.Main.CharacterID == "" && s.Support1.CharacterID == "" && s.Support2.CharacterID == ""
}

// Encode serializes the state for the key-value store.
func (s State) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Reconcile aligns every slot with its character's potential set for the
// slot's role. Slots whose character is not in the catalog are left as is.
// It reports whether anything changed.
func (s *State) Reconcile(characters CharacterSource) bool {
	if characters == nil {
		return false
	}
	changed := false
	for _, slot := range Slots {
		ss, _ := s.Slot(slot)
		if ss.CharacterID == "" {
			continue
		}
		ch, ok := characters.Character(ss.CharacterID)
		if !ok {
			continue
		}
		set, ok := ch.PotentialSet(slot.Role())
		if !ok {
			continue
		}
		if ss.reconcile(set) {
			changed = true
		}
	}
	return changed
}

// Decode parses and normalizes a stored state.
func Decode(raw string) (State, error) {
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	for _, slot := range Slots {
		ss, _ := st.Slot(slot)
		if err := ss.normalize(); err != nil {
			return State{}, fmt.Errorf("%w: slot %s: %v", ErrCorruptState, slot, err)
		}
	}
	return st, nil
}
