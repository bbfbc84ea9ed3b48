// Package storage provides the on-device persistence layer used by the
// allergy filter and the search history store. Each consumer owns a named
// slot holding one JSON payload, wrapped in a signed envelope for tamper
// evidence. Two backends exist: plain JSON files under a state directory
// and a single SQLite database.
package storage

import "errors"

// Slot names used by the application. Consumers must not share slots.
const (
	SlotAllergies = "allergies"
	SlotHistory   = "search-history"
)

// ErrNotFound is returned by Read when the slot has never been written.
var ErrNotFound = errors.New("storage: slot not found")

// Store is the key-value persistence port. Implementations must treat each
// slot independently and make Write atomic per slot.
type Store interface {
	Read(slot string) ([]byte, error)
	Write(slot string, payload []byte) error
}
