// Package store provides the document store behind the shopping list repository.
//
// Documents are shopping lists and shopping list items, persisted in a single
// DynamoDB table keyed by id. Every write is revision-checked: a document is
// created without a revision, and every later write must carry the revision
// the store last issued for it.
//
// # Key Features
//
//   - Optimistic concurrency with opaque revision tokens
//   - Tombstone deletes, reaped by DynamoDB TTL after a retention period
//   - Per-position results for bulk writes
//   - Equality selectors served by GSIs, with a scan fallback
//   - Configurable write sharding of the type index
//
// # Documents
//
// A [Document] carries the fields of both record types; items additionally
// reference their list through ListID. The store adds two attributes of its
// own: type_shard (partition key of the type index, absent on tombstones) and
// ttl (tombstone expiry).
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards when a single document type takes many writes:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
//
// # Indexes
//
// [Store.CreateIndex] builds the GSIs for [TypeIndex] and [ListIndex]. Until
// they are ACTIVE, [Store.QuerySelector] scans the table instead.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - document doesn't exist or is a tombstone
//   - [ErrAlreadyExists] - document with ID already exists
//   - [ErrConflict] - revision doesn't match the stored one
//   - [ErrInvalidDocument] - document is missing required fields
//   - [ErrUnknownIndex] - index can't be built by this store
package store
