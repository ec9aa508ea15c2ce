package shoppinglist

import (
	"errors"
	"strings"

	"github.com/jacentio/shoppinglist/store"
)

var (
	// ErrNotFound is returned when a record doesn't exist, was deleted, or
	// the id is malformed.
	ErrNotFound = errors.New("shoppinglist: record not found")

	// ErrConflict is returned when the supplied revision is no longer current.
	ErrConflict = errors.New("shoppinglist: revision conflict")

	// ErrPersistence is returned for store failures that are neither a
	// missing record nor a conflict, including malformed stored documents.
	ErrPersistence = errors.New("shoppinglist: persistence failure")

	// ErrValidation is returned when a record is rejected before any write.
	ErrValidation = errors.New("shoppinglist: invalid record")
)

// OpError describes a failed repository operation.
// errors.Is matches both its Kind and the underlying cause.
type OpError struct {
	// Op is the repository operation, e.g. "Update" or "CreateItemsBulk".
	Op string

	// ID is the record id, empty when the operation has none.
	ID string

	// Kind is one of ErrNotFound, ErrConflict, ErrPersistence or ErrValidation.
	Kind error

	// Err is the cause. It may be nil.
	Err error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// storeErrorKind classifies a store error.
func storeErrorKind(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return ErrPersistence
	}
}
