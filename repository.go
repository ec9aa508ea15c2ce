package shoppinglist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacentio/shoppinglist/store"
)

// DocumentStore is the document store the repository persists to.
// *store.Store and *memstore.Store satisfy it.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*store.Document, error)
	Put(ctx context.Context, doc store.Document) (*store.Document, error)
	Remove(ctx context.Context, doc store.Document) (*store.Document, error)
	BulkPut(ctx context.Context, docs []store.Document) []store.BulkResult
	QuerySelector(ctx context.Context, sel store.Selector) ([]*store.Document, error)
	CreateIndex(ctx context.Context, idx store.Index) error
}

// Repository persists shopping lists and their items.
// It holds no state between calls besides its store handle and clock, and is
// safe for concurrent use.
type Repository struct {
	store  DocumentStore
	clock  Clock
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer. The default is the global tracer provider's.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Repository) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// NewRepository creates a repository over s. A nil clock reads system time.
func NewRepository(s DocumentStore, clock Clock, opts ...Option) *Repository {
	if clock == nil {
		clock = SystemClock
	}
	r := &Repository{
		store:  s,
		clock:  clock,
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/jacentio/shoppinglist"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create persists a new shopping list. An id is assigned if the list has
// none; createdAt and updatedAt are both set to now.
func (r *Repository) Create(ctx context.Context, list ShoppingList) (ShoppingList, error) {
	return create(ctx, r, listKind, "Create", list)
}

// Read returns the shopping list with the given id.
func (r *Repository) Read(ctx context.Context, id string) (ShoppingList, error) {
	return read(ctx, r, listKind, "Read", id)
}

// Update persists changes to a shopping list. The list must carry the
// revision the store last issued for it.
func (r *Repository) Update(ctx context.Context, list ShoppingList) (ShoppingList, error) {
	return update(ctx, r, listKind, "Update", list)
}

// Delete replaces a shopping list with a tombstone and returns it.
// The list must carry its current revision. Its items are left untouched.
// The tombstone reserves the id for as long as the store keeps it.
func (r *Repository) Delete(ctx context.Context, list ShoppingList) (ShoppingList, error) {
	return remove(ctx, r, listKind, "Delete", list)
}

// CreateItem persists a new shopping list item. The item must reference a list.
func (r *Repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	return create(ctx, r, itemKind, "CreateItem", item)
}

// ReadItem returns the item with the given id.
func (r *Repository) ReadItem(ctx context.Context, id string) (Item, error) {
	return read(ctx, r, itemKind, "ReadItem", id)
}

// UpdateItem persists changes to an item, checked against its revision.
func (r *Repository) UpdateItem(ctx context.Context, item Item) (Item, error) {
	return update(ctx, r, itemKind, "UpdateItem", item)
}

// DeleteItem replaces an item with a tombstone and returns it.
func (r *Repository) DeleteItem(ctx context.Context, item Item) (Item, error) {
	return remove(ctx, r, itemKind, "DeleteItem", item)
}

// EnsureIndexes asks the store for the indexes selector queries use.
// It is safe to call repeatedly and safe to omit.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "shoppinglist.EnsureIndexes")
	defer span.End()

	for _, idx := range []store.Index{store.TypeIndex(), store.ListIndex()} {
		if err := r.store.CreateIndex(ctx, idx); err != nil {
			return r.fail(span, &OpError{Op: "EnsureIndexes", ID: idx.Name, Kind: ErrPersistence, Err: err})
		}
	}
	r.logger.Debug("indexes ready")
	return nil
}

// kind describes how one record type maps to store documents.
type kind[R any] struct {
	name     string
	validID  func(string) bool
	newID    func() string
	validate func(store.Document) error
	decode   func(store.Document) (R, error)
	encode   func(R) store.Document
}

var listKind = kind[ShoppingList]{
	name:     store.TypeList,
	validID:  ValidListID,
	newID:    NewListID,
	validate: validateList,
	decode:   ListFromDocument,
	encode:   ShoppingList.Document,
}

var itemKind = kind[Item]{
	name:     store.TypeItem,
	validID:  ValidItemID,
	newID:    NewItemID,
	validate: validateItem,
	decode:   ItemFromDocument,
	encode:   Item.Document,
}

// prepareCreate stamps a candidate for its first write.
func (k kind[R]) prepareCreate(rec R, now time.Time) (store.Document, error) {
	doc := k.encode(rec)
	if doc.ID == "" {
		doc.ID = k.newID()
	} else if !k.validID(doc.ID) {
		return doc, errors.New("malformed id")
	}
	if err := k.validate(doc); err != nil {
		return doc, err
	}
	stamp := FormatTime(now)
	doc.Rev = ""
	doc.SchemaVersion = SchemaVersion
	doc.CreatedAt = stamp
	doc.UpdatedAt = stamp
	doc.Deleted = false
	return doc, nil
}

// prepareWrite stamps a persisted record for an update or delete.
func (k kind[R]) prepareWrite(rec R, now time.Time) (store.Document, error) {
	doc := k.encode(rec)
	if !k.validID(doc.ID) {
		return doc, errors.New("malformed id")
	}
	if doc.Rev == "" {
		return doc, errors.New("revision is required")
	}
	if doc.CreatedAt == "" {
		return doc, errors.New("record was never created")
	}
	if err := k.validate(doc); err != nil {
		return doc, err
	}

	// updatedAt never precedes createdAt, even if the clock does
	if createdAt, err := ParseTime(doc.CreatedAt); err == nil && now.Before(createdAt) {
		now = createdAt
	}
	doc.UpdatedAt = FormatTime(now)
	return doc, nil
}

func create[R any](ctx context.Context, r *Repository, k kind[R], op string, rec R) (R, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist."+op)
	defer span.End()

	var zero R
	doc, err := k.prepareCreate(rec, r.now())
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: ErrValidation, Err: err})
	}
	span.SetAttributes(attribute.String("record.id", doc.ID))

	persisted, err := r.store.Put(ctx, doc)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: ErrPersistence, Err: err})
	}
	out, err := k.decode(*persisted)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: ErrPersistence, Err: err})
	}

	r.logger.Debug("created record", "type", k.name, "id", doc.ID, "rev", persisted.Rev)
	return out, nil
}

func read[R any](ctx context.Context, r *Repository, k kind[R], op, id string) (R, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist."+op, trace.WithAttributes(attribute.String("record.id", id)))
	defer span.End()

	var zero R
	if !k.validID(id) {
		return zero, r.fail(span, &OpError{Op: op, ID: id, Kind: ErrNotFound})
	}

	doc, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: id, Kind: storeErrorKind(err), Err: err})
	}
	if doc.Deleted {
		return zero, r.fail(span, &OpError{Op: op, ID: id, Kind: ErrNotFound})
	}
	out, err := k.decode(*doc)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: id, Kind: ErrPersistence, Err: err})
	}
	return out, nil
}

func update[R any](ctx context.Context, r *Repository, k kind[R], op string, rec R) (R, error) {
	return write(ctx, r, k, op, rec, r.store.Put)
}

func remove[R any](ctx context.Context, r *Repository, k kind[R], op string, rec R) (R, error) {
	return write(ctx, r, k, op, rec, r.store.Remove)
}

// write performs a revision-checked update or tombstone write.
func write[R any](
	ctx context.Context,
	r *Repository,
	k kind[R],
	op string,
	rec R,
	put func(context.Context, store.Document) (*store.Document, error),
) (R, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist."+op)
	defer span.End()

	var zero R
	doc, err := k.prepareWrite(rec, r.now())
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: ErrValidation, Err: err})
	}
	span.SetAttributes(attribute.String("record.id", doc.ID))

	persisted, err := put(ctx, doc)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: storeErrorKind(err), Err: err})
	}
	out, err := k.decode(*persisted)
	if err != nil {
		return zero, r.fail(span, &OpError{Op: op, ID: doc.ID, Kind: ErrPersistence, Err: err})
	}

	r.logger.Debug("wrote record",
		"op", op,
		"id", doc.ID,
		"rev", persisted.Rev,
		"deleted", persisted.Deleted,
	)
	return out, nil
}

func (r *Repository) now() time.Time {
	return normalizeTime(r.clock.Now())
}

// fail records err on span and returns it.
func (r *Repository) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
