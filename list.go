package shoppinglist

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacentio/shoppinglist/store"
)

// SchemaVersion is the schema version of records written by this package.
const SchemaVersion = 1

// ShoppingList is an immutable shopping list record.
// All fields are unexported; use the getters to read them and the With
// methods to derive a changed copy.
type ShoppingList struct {
	id            string
	revision      string
	schemaVersion int
	title         string
	checked       bool
	place         string
	createdAt     time.Time
	updatedAt     time.Time
	deleted       bool
}

// ID returns the list id, empty for a candidate without one.
func (l ShoppingList) ID() string { return l.id }

// Revision returns the store-issued revision, empty before the first write.
func (l ShoppingList) Revision() string { return l.revision }

// Type returns the document type discriminator.
func (l ShoppingList) Type() string { return store.TypeList }

// SchemaVersion returns the schema version the record was written with.
func (l ShoppingList) SchemaVersion() int { return l.schemaVersion }

// Title returns the list title.
func (l ShoppingList) Title() string { return l.title }

// Checked reports whether the list is checked off.
func (l ShoppingList) Checked() bool { return l.checked }

// Place returns where the list is to be shopped, empty when unset.
func (l ShoppingList) Place() string { return l.place }

// CreatedAt returns the creation time, zero before the first write.
func (l ShoppingList) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the time of the last write.
func (l ShoppingList) UpdatedAt() time.Time { return l.updatedAt }

// Deleted reports whether the record is a tombstone.
func (l ShoppingList) Deleted() bool { return l.deleted }

// WithTitle returns a copy of l with the given title.
func (l ShoppingList) WithTitle(title string) ShoppingList {
	l.title = title
	return l
}

// WithChecked returns a copy of l with the given checked state.
func (l ShoppingList) WithChecked(checked bool) ShoppingList {
	l.checked = checked
	return l
}

// WithPlace returns a copy of l with the given place.
func (l ShoppingList) WithPlace(place string) ShoppingList {
	l.place = place
	return l
}

// Equal reports whether l and other hold the same field values.
func (l ShoppingList) Equal(other ShoppingList) bool {
	return l.id == other.id &&
		l.revision == other.revision &&
		l.schemaVersion == other.schemaVersion &&
		l.title == other.title &&
		l.checked == other.checked &&
		l.place == other.place &&
		l.createdAt.Equal(other.createdAt) &&
		l.updatedAt.Equal(other.updatedAt) &&
		l.deleted == other.deleted
}

// Document converts l to its stored form.
func (l ShoppingList) Document() store.Document {
	return store.Document{
		ID:            l.id,
		Rev:           l.revision,
		Type:          store.TypeList,
		SchemaVersion: l.schemaVersion,
		Title:         l.title,
		Checked:       l.checked,
		Place:         l.place,
		CreatedAt:     formatOptionalTime(l.createdAt),
		UpdatedAt:     formatOptionalTime(l.updatedAt),
		Deleted:       l.deleted,
	}
}

// ListFromDocument rebuilds a shopping list from its stored form.
// A document of another type, without a title, or with unparseable
// timestamps is a data-integrity error wrapped in ErrPersistence.
func ListFromDocument(doc store.Document) (ShoppingList, error) {
	if doc.Type != store.TypeList {
		return ShoppingList{}, fmt.Errorf("%w: document %s has type %q, want %q", ErrPersistence, doc.ID, doc.Type, store.TypeList)
	}
	if doc.Title == "" {
		return ShoppingList{}, fmt.Errorf("%w: document %s has no title", ErrPersistence, doc.ID)
	}
	createdAt, updatedAt, err := documentTimes(doc)
	if err != nil {
		return ShoppingList{}, err
	}
	return ShoppingList{
		id:            doc.ID,
		revision:      doc.Rev,
		schemaVersion: doc.SchemaVersion,
		title:         doc.Title,
		checked:       doc.Checked,
		place:         doc.Place,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		deleted:       doc.Deleted,
	}, nil
}

// validateList checks the fields a write requires.
func validateList(doc store.Document) error {
	if doc.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func documentTimes(doc store.Document) (time.Time, time.Time, error) {
	createdAt, err := ParseTime(doc.CreatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: document %s: %v", ErrPersistence, doc.ID, err)
	}
	updatedAt, err := ParseTime(doc.UpdatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: document %s: %v", ErrPersistence, doc.ID, err)
	}
	return createdAt, updatedAt, nil
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatTime(t)
}
