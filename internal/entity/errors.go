package entity

import "errors"

// Domain errors for the entity package. Check with errors.Is().
var (
	// ErrDuplicateID is returned when registering an identifier whose object
	// key is already occupied.
	ErrDuplicateID = errors.New("entity: duplicate identifier")

	// ErrUnknownKind is returned when configuration names an unrecognised
	// entity kind.
	ErrUnknownKind = errors.New("entity: unknown kind")
)
