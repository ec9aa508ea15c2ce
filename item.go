package shoppinglist

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacentio/shoppinglist/store"
)

// Item is an immutable shopping list item record. It references its list by
// id only.
type Item struct {
	id            string
	revision      string
	schemaVersion int
	listID        string
	title         string
	checked       bool
	createdAt     time.Time
	updatedAt     time.Time
	deleted       bool
}

// ID returns the item id, empty for a candidate without one.
func (i Item) ID() string { return i.id }

// Revision returns the store-issued revision, empty before the first write.
func (i Item) Revision() string { return i.revision }

// Type returns the document type discriminator.
func (i Item) Type() string { return store.TypeItem }

// SchemaVersion returns the schema version the record was written with.
func (i Item) SchemaVersion() int { return i.schemaVersion }

// ListID returns the id of the list the item belongs to.
func (i Item) ListID() string { return i.listID }

// Title returns the item title.
func (i Item) Title() string { return i.title }

// Checked reports whether the item is checked off.
func (i Item) Checked() bool { return i.checked }

// CreatedAt returns the creation time, zero before the first write.
func (i Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the time of the last write.
func (i Item) UpdatedAt() time.Time { return i.updatedAt }

// Deleted reports whether the record is a tombstone.
func (i Item) Deleted() bool { return i.deleted }

// WithTitle returns a copy of i with the given title.
func (i Item) WithTitle(title string) Item {
	i.title = title
	return i
}

// WithChecked returns a copy of i with the given checked state.
func (i Item) WithChecked(checked bool) Item {
	i.checked = checked
	return i
}

// WithListID returns a copy of i moved to another list.
func (i Item) WithListID(listID string) Item {
	i.listID = listID
	return i
}

// Equal reports whether i and other hold the same field values.
func (i Item) Equal(other Item) bool {
	return i.id == other.id &&
		i.revision == other.revision &&
		i.schemaVersion == other.schemaVersion &&
		i.listID == other.listID &&
		i.title == other.title &&
		i.checked == other.checked &&
		i.createdAt.Equal(other.createdAt) &&
		i.updatedAt.Equal(other.updatedAt) &&
		i.deleted == other.deleted
}

// Document converts i to its stored form.
func (i Item) Document() store.Document {
	return store.Document{
		ID:            i.id,
		Rev:           i.revision,
		Type:          store.TypeItem,
		SchemaVersion: i.schemaVersion,
		ListID:        i.listID,
		Title:         i.title,
		Checked:       i.checked,
		CreatedAt:     formatOptionalTime(i.createdAt),
		UpdatedAt:     formatOptionalTime(i.updatedAt),
		Deleted:       i.deleted,
	}
}

// ItemFromDocument rebuilds an item from its stored form. Besides the checks
// of ListFromDocument it rejects a document without a list id.
func ItemFromDocument(doc store.Document) (Item, error) {
	if doc.Type != store.TypeItem {
		return Item{}, fmt.Errorf("%w: document %s has type %q, want %q", ErrPersistence, doc.ID, doc.Type, store.TypeItem)
	}
	if doc.Title == "" {
		return Item{}, fmt.Errorf("%w: document %s has no title", ErrPersistence, doc.ID)
	}
	if doc.ListID == "" {
		return Item{}, fmt.Errorf("%w: document %s has no list id", ErrPersistence, doc.ID)
	}
	createdAt, updatedAt, err := documentTimes(doc)
	if err != nil {
		return Item{}, err
	}
	return Item{
		id:            doc.ID,
		revision:      doc.Rev,
		schemaVersion: doc.SchemaVersion,
		listID:        doc.ListID,
		title:         doc.Title,
		checked:       doc.Checked,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		deleted:       doc.Deleted,
	}, nil
}

func validateItem(doc store.Document) error {
	if doc.Title == "" {
		return errors.New("title is required")
	}
	if doc.ListID == "" {
		return errors.New("list id is required")
	}
	return nil
}
