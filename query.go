package shoppinglist

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacentio/shoppinglist/store"
)

// ItemQuery selects items by equality. Zero-valued fields are unconstrained.
type ItemQuery struct {
	ListID  string
	Checked *bool

	// Fields is a projection hint for the store. The attributes an Item is
	// rebuilt from are always fetched.
	Fields []string
}

// itemFields are the attributes ItemFromDocument needs.
var itemFields = []string{
	store.AttrID,
	store.AttrRev,
	store.AttrType,
	store.AttrSchemaVersion,
	store.AttrTitle,
	store.AttrChecked,
	store.AttrListID,
	store.AttrCreatedAt,
	store.AttrUpdatedAt,
}

func (q ItemQuery) selector() store.Selector {
	sel := store.Selector{
		Type:    store.TypeItem,
		ListID:  q.ListID,
		Checked: q.Checked,
	}
	if len(q.Fields) > 0 {
		sel.Fields = append(append([]string(nil), q.Fields...), itemFields...)
	}
	return sel
}

// Find returns every shopping list that isn't deleted, ordered by id, which
// follows creation time for generated ids. The in-memory store keeps
// insertion order. An empty store yields an empty slice.
func (r *Repository) Find(ctx context.Context) ([]ShoppingList, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist.Find")
	defer span.End()

	docs, err := r.store.QuerySelector(ctx, store.Selector{Type: store.TypeList})
	if err != nil {
		return nil, r.fail(span, &OpError{Op: "Find", Kind: ErrPersistence, Err: err})
	}
	out := make([]ShoppingList, 0, len(docs))
	for _, doc := range docs {
		list, err := ListFromDocument(*doc)
		if err != nil {
			return nil, r.fail(span, &OpError{Op: "Find", ID: doc.ID, Kind: ErrPersistence, Err: err})
		}
		out = append(out, list)
	}
	span.SetAttributes(attribute.Int("record.count", len(out)))
	return out, nil
}

// FindItems returns the items matching q that aren't deleted.
func (r *Repository) FindItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist.FindItems", trace.WithAttributes(attribute.String("query.list_id", q.ListID)))
	defer span.End()

	docs, err := r.store.QuerySelector(ctx, q.selector())
	if err != nil {
		return nil, r.fail(span, &OpError{Op: "FindItems", ID: q.ListID, Kind: ErrPersistence, Err: err})
	}
	out := make([]Item, 0, len(docs))
	for _, doc := range docs {
		item, err := ItemFromDocument(*doc)
		if err != nil {
			return nil, r.fail(span, &OpError{Op: "FindItems", ID: doc.ID, Kind: ErrPersistence, Err: err})
		}
		out = append(out, item)
	}
	span.SetAttributes(attribute.Int("record.count", len(out)))
	return out, nil
}

// CountItemsByList counts the items matching q per list id. Lists without a
// matching item have no entry.
func (r *Repository) CountItemsByList(ctx context.Context, q ItemQuery) (map[string]int, error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist.CountItemsByList", trace.WithAttributes(attribute.String("query.list_id", q.ListID)))
	defer span.End()

	sel := q.selector()
	sel.Fields = []string{store.AttrListID}

	docs, err := r.store.QuerySelector(ctx, sel)
	if err != nil {
		return nil, r.fail(span, &OpError{Op: "CountItemsByList", ID: q.ListID, Kind: ErrPersistence, Err: err})
	}
	counts := CountByList(docs, func(doc *store.Document) string { return doc.ListID })
	span.SetAttributes(attribute.Int("record.count", len(docs)))
	return counts, nil
}

// CountByList folds values into a count per list id. Values with an empty
// list id are skipped.
func CountByList[T any](values []T, listID func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		if id := listID(v); id != "" {
			counts[id]++
		}
	}
	return counts
}

func traceCount(n int) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int("record.count", n))
}
