// Package shoppinglist persists shopping lists and their items in a document
// store.
//
// Records are immutable values. A [Factory] builds candidates, the
// [Repository] stamps identifiers and timestamps on create and returns the
// store-confirmed copy with its revision:
//
//	repo := shoppinglist.NewRepository(memstore.New(), shoppinglist.SystemClock)
//	groceries, err := repo.Create(ctx, shoppinglist.Factory{}.NewShoppingList(shoppinglist.ListFields{
//		Title: "Groceries",
//	}))
//
// Every later write must carry the revision the store last issued; a stale
// revision fails with [ErrConflict]. Deletes write tombstones, after which the
// id reads as [ErrNotFound].
//
// # Identifiers
//
// Ids are "list:" or "item:" followed by 25 base62 characters, 30 in total.
// Tokens are derived from UUIDv7 values, so ids sort by creation time.
//
// # Errors
//
// Failures are [*OpError] values whose kind is one of [ErrNotFound],
// [ErrConflict], [ErrPersistence] or [ErrValidation]; match them with
// errors.Is. Bulk creates report failures per position.
package shoppinglist
