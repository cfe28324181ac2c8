package potential

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSlot       = errors.New("invalid slot; must be main, support1 or support2")
	ErrInvalidLevel      = errors.New("invalid sub potential level; must be none, level1, level2-5 or level6")
	ErrInvalidKind       = errors.New("invalid potential kind; must be core or sub")
	ErrCharacterNotFound = errors.New("character not found")
	ErrUnknownPotential  = errors.New("unknown potential")
	ErrCorruptState      = errors.New("corrupt stored state")
)

// NotFoundError reports a character id missing from the catalog.
type NotFoundError struct {
	CharacterID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("character %q not found", e.CharacterID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrCharacterNotFound }

// UnknownPotentialError reports a potential id that the slot does not hold.
type UnknownPotentialError struct {
	Slot        Slot
	Kind        Kind
	PotentialID string
}

func (e *UnknownPotentialError) Error() string {
	return fmt.Sprintf("slot %s has no %s potential %q", e.Slot, e.Kind, e.PotentialID)
}

func (e *UnknownPotentialError) Is(target error) bool { return target == ErrUnknownPotential }
