// Package memstore provides an in-memory document store with the same
// revision, tombstone and selector semantics as the DynamoDB store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jacentio/shoppinglist/store"
)

// Store is a thread-safe in-memory document store.
type Store struct {
	mux     sync.RWMutex
	docs    map[string]store.Document
	order   []string
	indexes map[string]store.Index
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		docs:    make(map[string]store.Document),
		indexes: make(map[string]store.Index),
	}
}

// Get returns the document with the given id. Tombstones are not returned.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	doc, ok := s.docs[id]
	if !ok || doc.Deleted {
		return nil, store.ErrNotFound
	}
	return &doc, nil
}

// Put creates doc when it has no revision and updates it otherwise.
func (s *Store) Put(ctx context.Context, doc store.Document) (*store.Document, error) {
	if doc.ID == "" || doc.Type == "" {
		return nil, fmt.Errorf("%w: id and type are required", store.ErrInvalidDocument)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.write(doc)
}

// Remove replaces doc with a tombstone, checked against its revision.
func (s *Store) Remove(ctx context.Context, doc store.Document) (*store.Document, error) {
	if doc.ID == "" || doc.Type == "" {
		return nil, fmt.Errorf("%w: id and type are required", store.ErrInvalidDocument)
	}
	if doc.Rev == "" {
		return nil, fmt.Errorf("%w: revision is required to remove %s", store.ErrInvalidDocument, doc.ID)
	}
	doc.Deleted = true
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.write(doc)
}

// BulkPut puts every document in order and reports each outcome at its position.
func (s *Store) BulkPut(ctx context.Context, docs []store.Document) []store.BulkResult {
	results := make([]store.BulkResult, len(docs))
	for i, doc := range docs {
		persisted, err := s.Put(ctx, doc)
		results[i] = store.BulkResult{Doc: persisted, Err: err}
	}
	return results
}

// write must be called with the write lock held.
func (s *Store) write(doc store.Document) (*store.Document, error) {
	current, exists := s.docs[doc.ID]
	switch {
	case doc.Rev == "" && exists:
		return nil, store.ErrAlreadyExists
	case doc.Rev != "" && (!exists || current.Deleted):
		return nil, store.ErrNotFound
	case doc.Rev != "" && current.Rev != doc.Rev:
		return nil, store.ErrConflict
	}

	doc.Rev = store.NextRevision(doc.Rev)
	if !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	return &doc, nil
}

// QuerySelector returns the live documents matching sel in insertion order.
func (s *Store) QuerySelector(ctx context.Context, sel store.Selector) ([]*store.Document, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	docs := make([]*store.Document, 0)
	for _, id := range s.order {
		doc := s.docs[id]
		if !sel.Matches(doc) {
			continue
		}
		projected := sel.Project(doc)
		docs = append(docs, &projected)
	}
	return docs, nil
}

// CreateIndex records idx. Selectors never need an index here, so this only
// lets callers observe which indexes were requested.
func (s *Store) CreateIndex(ctx context.Context, idx store.Index) error {
	if idx.Name == "" {
		return fmt.Errorf("%w: empty index name", store.ErrUnknownIndex)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.indexes[idx.Name] = idx
	return nil
}

// Indexes returns the names of the indexes created so far.
func (s *Store) Indexes() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	return names
}

// Len returns the number of stored documents, tombstones included.
func (s *Store) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.docs)
}
