package shoppinglist

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jacentio/shoppinglist/store"
)

// Record is a shopping list or an item.
type Record interface {
	ShoppingList | Item
}

// BulkResult is the outcome of one position of a bulk create: the persisted
// record, or the error that kept it from being persisted.
type BulkResult[R Record] struct {
	Record R
	Err    error
}

// CreateBulk creates lists with one batched store write. Every list gets the
// same createdAt and updatedAt. Results match the input by position; a
// failed position doesn't affect the others.
func (r *Repository) CreateBulk(ctx context.Context, lists []ShoppingList) ([]BulkResult[ShoppingList], error) {
	return createBulk(ctx, r, listKind, "CreateBulk", lists)
}

// CreateItemsBulk creates items the way CreateBulk creates lists.
func (r *Repository) CreateItemsBulk(ctx context.Context, items []Item) ([]BulkResult[Item], error) {
	return createBulk(ctx, r, itemKind, "CreateItemsBulk", items)
}

// createBulk returns an error only when the batch as a whole could not be
// attempted. Per-position failures are reported in the results.
func createBulk[R Record](ctx context.Context, r *Repository, k kind[R], op string, recs []R) ([]BulkResult[R], error) {
	ctx, span := r.tracer.Start(ctx, "shoppinglist."+op, traceCount(len(recs)))
	defer span.End()

	results := make([]BulkResult[R], len(recs))
	if len(recs) == 0 {
		return results, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail(span, &OpError{Op: op, Kind: ErrPersistence, Err: err})
	}

	// One timestamp for the whole batch
	now := r.now()

	docs := make([]store.Document, 0, len(recs))
	positions := make([]int, 0, len(recs))
	for i, rec := range recs {
		doc, err := k.prepareCreate(rec, now)
		if err != nil {
			results[i].Err = &OpError{Op: op, ID: doc.ID, Kind: ErrValidation, Err: err}
			continue
		}
		docs = append(docs, doc)
		positions = append(positions, i)
	}

	if len(docs) > 0 {
		stored := r.store.BulkPut(ctx, docs)
		if len(stored) != len(docs) {
			return nil, r.fail(span, &OpError{
				Op:   op,
				Kind: ErrPersistence,
				Err:  fmt.Errorf("store returned %d results for %d documents", len(stored), len(docs)),
			})
		}
		for j, res := range stored {
			i := positions[j]
			if res.Err == nil && res.Doc == nil {
				res.Err = errors.New("store returned no document")
			}
			if res.Err != nil {
				results[i].Err = &OpError{Op: op, ID: docs[j].ID, Kind: ErrPersistence, Err: res.Err}
				continue
			}
			rec, err := k.decode(*res.Doc)
			if err != nil {
				results[i].Err = &OpError{Op: op, ID: docs[j].ID, Kind: ErrPersistence, Err: err}
				continue
			}
			results[i].Record = rec
		}
	}

	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			r.logger.Warn("bulk create failed for record",
				"op", op,
				"position", i,
				"error", res.Err,
			)
		}
	}
	span.SetAttributes(attribute.Int("record.failed", failed))
	r.logger.Debug("bulk create completed",
		"op", op,
		"count", len(recs),
		"failed", failed,
	)
	return results, nil
}
