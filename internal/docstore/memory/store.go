// Package memory provides an in-process docstore backend. It is the default
// backend and the one the test suites run against.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/timesheet-manager/tm-core/internal/docstore"
)

type txKey struct{}

// Store keeps every collection as a map of raw JSON documents keyed by id.
// A transaction snapshots the whole state and restores it when the
// transaction function fails.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// New constructs an empty store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]json.RawMessage)}
}

// RunTransaction executes fn while holding the store lock. Writes performed
// through the context passed to fn are rolled back when fn returns an error.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.cloneLocked()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.collections = snapshot
		return err
	}
	return nil
}

func (s *Store) cloneLocked() map[string]map[string]json.RawMessage {
	cloned := make(map[string]map[string]json.RawMessage, len(s.collections))
	for name, docs := range s.collections {
		inner := make(map[string]json.RawMessage, len(docs))
		for id, raw := range docs {
			inner[id] = raw
		}
		cloned[name] = inner
	}
	return cloned
}

func (s *Store) inTransaction(ctx context.Context) bool {
	st, _ := ctx.Value(txKey{}).(*Store)
	return st == s
}

// lock acquires the store lock unless ctx already runs inside a transaction
// on this store, which holds the lock for its whole duration.
func (s *Store) lock(ctx context.Context, read bool) func() {
	if s.inTransaction(ctx) {
		return func() {}
	}
	if read {
		s.mu.RLock()
		return s.mu.RUnlock
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) docsLocked(name string) map[string]json.RawMessage {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.collections[name] = docs
	}
	return docs
}

// Collection binds a document type to a named collection of the store.
type Collection[T docstore.Entity] struct {
	store  *Store
	name   string
	newDoc func() T
}

// NewCollection declares a collection. newDoc must return a fresh zero
// document; it is used to materialize query results.
func NewCollection[T docstore.Entity](store *Store, name string, newDoc func() T) *Collection[T] {
	return &Collection[T]{store: store, name: name, newDoc: newDoc}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Get fetches a document by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	unlock := c.store.lock(ctx, true)
	defer unlock()
	raw, ok := c.store.docsLocked(c.name)[id]
	if !ok {
		return zero, docstore.ErrNotFound
	}
	return c.decode(id, raw)
}

// Exists reports whether the document is present.
func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	unlock := c.store.lock(ctx, true)
	defer unlock()
	_, ok := c.store.docsLocked(c.name)[id]
	return ok, nil
}

// Add persists a new document under a generated id.
func (c *Collection[T]) Add(ctx context.Context, doc T) (string, error) {
	raw, err := c.encode(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	unlock := c.store.lock(ctx, false)
	defer unlock()
	c.store.docsLocked(c.name)[id] = raw
	return id, nil
}

// Set overwrites the document under id.
func (c *Collection[T]) Set(ctx context.Context, id string, doc T) error {
	raw, err := c.encode(doc)
	if err != nil {
		return err
	}
	unlock := c.store.lock(ctx, false)
	defer unlock()
	c.store.docsLocked(c.name)[id] = raw
	return nil
}

// Delete removes the document under id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	unlock := c.store.lock(ctx, false)
	defer unlock()
	delete(c.store.docsLocked(c.name), id)
	return nil
}

// Query starts a query over the collection.
func (c *Collection[T]) Query() docstore.Query[T] {
	return &query[T]{coll: c}
}

// encode strips the id from the stored payload; ids live in the map key.
func (c *Collection[T]) encode(doc T) (json.RawMessage, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory: encode %s: %w", c.name, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("memory: encode %s: %w", c.name, err)
	}
	delete(fields, "_id")
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("memory: encode %s: %w", c.name, err)
	}
	return raw, nil
}

func (c *Collection[T]) decode(id string, raw json.RawMessage) (T, error) {
	doc := c.newDoc()
	if err := json.Unmarshal(raw, doc); err != nil {
		var zero T
		return zero, fmt.Errorf("memory: decode %s/%s: %w", c.name, id, err)
	}
	doc.SetDocumentID(id)
	return doc, nil
}
