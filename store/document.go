package store

// Document types stored in the table.
const (
	TypeList = "list"
	TypeItem = "item"
)

// Attribute names of a stored document.
const (
	AttrID            = "id"
	AttrRev           = "rev"
	AttrType          = "type"
	AttrSchemaVersion = "schema_version"
	AttrTitle         = "title"
	AttrChecked       = "checked"
	AttrPlace         = "place"
	AttrListID        = "list_id"
	AttrCreatedAt     = "created_at"
	AttrUpdatedAt     = "updated_at"
	AttrDeleted       = "deleted"

	// AttrTypeShard is the sharded partition key of the type index.
	AttrTypeShard = "type_shard"

	// AttrTTL is the DynamoDB TTL attribute set on tombstones.
	AttrTTL = "ttl"
)

// Document is a shopping list or item as persisted in the store.
type Document struct {
	// ID is the primary key ("list:..." or "item:...").
	ID string `dynamodbav:"id" json:"id"`

	// Rev is the store-issued revision. Empty on first write.
	Rev string `dynamodbav:"rev,omitempty" json:"rev,omitempty"`

	// Type is TypeList or TypeItem.
	Type string `dynamodbav:"type" json:"type"`

	SchemaVersion int    `dynamodbav:"schema_version" json:"schemaVersion"`
	Title         string `dynamodbav:"title" json:"title"`
	Checked       bool   `dynamodbav:"checked" json:"checked"`
	Place         string `dynamodbav:"place,omitempty" json:"place,omitempty"`

	// ListID references the owning list (items only).
	ListID string `dynamodbav:"list_id,omitempty" json:"listId,omitempty"`

	// CreatedAt and UpdatedAt are ISO 8601 UTC timestamps with millisecond precision.
	CreatedAt string `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt string `dynamodbav:"updated_at" json:"updatedAt"`

	// Deleted marks a tombstone.
	Deleted bool `dynamodbav:"deleted,omitempty" json:"deleted,omitempty"`
}

// BulkResult is the outcome of one position of a BulkPut.
type BulkResult struct {
	// Doc is the persisted document, nil on failure.
	Doc *Document

	// Err is the failure for this position.
	Err error
}

// Selector selects live documents by attribute equality.
// Zero-valued fields are unconstrained.
type Selector struct {
	Type    string
	ListID  string
	Checked *bool

	// Fields optionally projects the result to the named attributes.
	// The id is always included.
	Fields []string
}

// Matches reports whether doc is live and satisfies every constraint of s.
func (s Selector) Matches(doc Document) bool {
	if doc.Deleted {
		return false
	}
	if s.Type != "" && doc.Type != s.Type {
		return false
	}
	if s.ListID != "" && doc.ListID != s.ListID {
		return false
	}
	if s.Checked != nil && doc.Checked != *s.Checked {
		return false
	}
	return true
}

// Project returns a copy of doc reduced to the selector's fields.
// Without fields, the full document is returned.
func (s Selector) Project(doc Document) Document {
	if len(s.Fields) == 0 {
		return doc
	}
	out := Document{ID: doc.ID}
	for _, f := range s.Fields {
		switch f {
		case AttrRev:
			out.Rev = doc.Rev
		case AttrType:
			out.Type = doc.Type
		case AttrSchemaVersion:
			out.SchemaVersion = doc.SchemaVersion
		case AttrTitle:
			out.Title = doc.Title
		case AttrChecked:
			out.Checked = doc.Checked
		case AttrPlace:
			out.Place = doc.Place
		case AttrListID:
			out.ListID = doc.ListID
		case AttrCreatedAt:
			out.CreatedAt = doc.CreatedAt
		case AttrUpdatedAt:
			out.UpdatedAt = doc.UpdatedAt
		case AttrDeleted:
			out.Deleted = doc.Deleted
		}
	}
	return out
}

// Index names a secondary index by the selector attribute it serves.
type Index struct {
	// Name is the logical index name ("type" or "list").
	Name string

	// Fields are the selector attributes the index is keyed on.
	Fields []string
}

// TypeIndex serves selectors constrained on type.
func TypeIndex() Index {
	return Index{Name: "type", Fields: []string{AttrType}}
}

// ListIndex serves selectors constrained on list_id.
func ListIndex() Index {
	return Index{Name: "list", Fields: []string{AttrListID}}
}
