package store

import "errors"

var (
	// ErrNotFound is returned when a document doesn't exist or is a tombstone.
	ErrNotFound = errors.New("store: document not found")

	// ErrAlreadyExists is returned when creating a document whose ID is already taken.
	// Tombstones keep their ID reserved until Config.TombstoneTTL reaps them.
	ErrAlreadyExists = errors.New("store: document already exists")

	// ErrConflict is returned when the supplied revision doesn't match the stored one.
	ErrConflict = errors.New("store: document revision conflict")

	// ErrInvalidDocument is returned when a document is missing fields the store needs.
	ErrInvalidDocument = errors.New("store: invalid document")

	// ErrUnknownIndex is returned by CreateIndex for an index the store can't build.
	ErrUnknownIndex = errors.New("store: unknown index")
)
