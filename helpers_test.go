package shoppinglist_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jacentio/shoppinglist"
	"github.com/jacentio/shoppinglist/store"
	"github.com/jacentio/shoppinglist/store/memstore"
)

const (
	// 2017-08-30T02:40:08.000Z
	firstInstant = 1504060808000
	// 2017-08-30T02:40:09.314Z
	secondInstant = 1504060809314
)

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(ms int64) *testClock {
	return &testClock{now: time.UnixMilli(ms)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(ms)
}

// setupTestRepo returns a repository over an empty in-memory store.
func setupTestRepo(t *testing.T) (*shoppinglist.Repository, *memstore.Store, *testClock) {
	t.Helper()
	s := memstore.New()
	clock := newTestClock(firstInstant)
	return shoppinglist.NewRepository(s, clock), s, clock
}

// faultyStore overrides selected store operations.
type faultyStore struct {
	shoppinglist.DocumentStore

	get   func(id string) (*store.Document, error)
	put   func(doc store.Document) (*store.Document, error)
	bulk  func(docs []store.Document) []store.BulkResult
	query func(sel store.Selector) ([]*store.Document, error)
	index func(idx store.Index) error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{DocumentStore: memstore.New()}
}

func (f *faultyStore) Get(ctx context.Context, id string) (*store.Document, error) {
	if f.get != nil {
		return f.get(id)
	}
	return f.DocumentStore.Get(ctx, id)
}

func (f *faultyStore) Put(ctx context.Context, doc store.Document) (*store.Document, error) {
	if f.put != nil {
		return f.put(doc)
	}
	return f.DocumentStore.Put(ctx, doc)
}

func (f *faultyStore) BulkPut(ctx context.Context, docs []store.Document) []store.BulkResult {
	if f.bulk != nil {
		return f.bulk(docs)
	}
	return f.DocumentStore.BulkPut(ctx, docs)
}

func (f *faultyStore) QuerySelector(ctx context.Context, sel store.Selector) ([]*store.Document, error) {
	if f.query != nil {
		return f.query(sel)
	}
	return f.DocumentStore.QuerySelector(ctx, sel)
}

func (f *faultyStore) CreateIndex(ctx context.Context, idx store.Index) error {
	if f.index != nil {
		return f.index(idx)
	}
	return f.DocumentStore.CreateIndex(ctx, idx)
}

func boolPtr(b bool) *bool {
	return &b
}
