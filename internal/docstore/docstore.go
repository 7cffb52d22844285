// Package docstore defines the document-store contract the persistence
// framework is built on: typed collections of documents addressable by id,
// equality/range filters, multi-key ordering, pagination and a store-level
// transaction primitive. Concrete backends live in the memory and postgres
// subpackages.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the addressed document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Entity is implemented by every persisted document type. The id lives
// outside the stored payload and is assigned by the store on Add.
type Entity interface {
	DocumentID() string
	SetDocumentID(id string)
}

// Op is a field comparison operator.
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Direction orders query results on a field.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Collection is a named set of documents of one type.
type Collection[T Entity] interface {
	// Name returns the collection name, used in error messages and as the
	// constraint tag for foreign-key validation.
	Name() string
	// Get fetches a document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (T, error)
	// Exists reports whether a document with the given id is present.
	Exists(ctx context.Context, id string) (bool, error)
	// Add persists a new document and returns its assigned id.
	Add(ctx context.Context, doc T) (string, error)
	// Set overwrites the full document under the given id, creating it if
	// necessary.
	Set(ctx context.Context, id string, doc T) error
	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, id string) error
	// Query starts a query over the whole collection.
	Query() Query[T]
}

// Query is an immutable query description; each builder call returns a
// derived query. Fields are addressed by their JSON name.
type Query[T Entity] interface {
	Where(field string, op Op, value any) Query[T]
	OrderBy(field string, dir Direction) Query[T]
	Offset(n int) Query[T]
	Limit(n int) Query[T]
	// Documents materializes the query.
	Documents(ctx context.Context) ([]T, error)
	// Count returns the result cardinality without materializing documents.
	Count(ctx context.Context) (int, error)
}

// Store groups collections under one backend and exposes the transaction
// primitive. Operations performed with the context passed to fn are applied
// atomically: either all writes commit or none do.
type Store interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
