package entity

import (
	"errors"
	"fmt"
)

// Kind discriminates the entity types the store knows how to persist.
// Its value doubles as the store collection name.
type Kind string

const (
	// KindBoat selects the Boat entity type.
	KindBoat Kind = "Boat"

	// KindLoad selects the Load entity type.
	KindLoad Kind = "Load"
)

// ErrUnknownKind is returned when a kind discriminator names no known
// entity type.
var ErrUnknownKind = errors.New("slipway: unknown entity kind")

// New constructs and validates the entity selected by kind from the given
// field bundle. Unknown kinds return ErrUnknownKind; invalid bundles return
// a *ValidationError.
func New(kind Kind, fields Fields) (Definition, error) {
	switch kind {
	case KindBoat:
		return NewBoat(fields)
	case KindLoad:
		return NewLoad(fields)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
