// Package postgres backs the docstore contract with PostgreSQL, one table
// per collection holding a JSONB document per row.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timesheet-manager/tm-core/internal/docstore"
)

type txKey struct{}

// Store wraps a pgx pool and implements the transaction primitive.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("docstore/postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { s.pool.Close() }

// Migrate creates the backing table for each named collection.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id uuid PRIMARY KEY, doc jsonb NOT NULL)`,
			tableName(name),
		)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("docstore/postgres: migrate %s: %w", name, err)
		}
	}
	return nil
}

// RunTransaction executes fn inside a repeatable-read SQL transaction.
// Collection operations using the context passed to fn join the transaction.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("docstore/postgres: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("docstore/postgres: commit tx: %w", err)
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func tableName(collection string) string {
	return pgx.Identifier{"doc_" + collection}.Sanitize()
}

// Collection binds a document type to one backing table.
type Collection[T docstore.Entity] struct {
	store  *Store
	name   string
	table  string
	newDoc func() T
}

// NewCollection declares a collection. newDoc must return a fresh zero
// document; it is used to materialize query results.
func NewCollection[T docstore.Entity](store *Store, name string, newDoc func() T) *Collection[T] {
	return &Collection[T]{store: store, name: name, table: tableName(name), newDoc: newDoc}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Get fetches a document by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var raw []byte
	err := c.store.querier(ctx).
		QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, c.table), id).
		Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, docstore.ErrNotFound
		}
		return zero, fmt.Errorf("docstore/postgres: get %s/%s: %w", c.name, id, err)
	}
	return c.decode(id, raw)
}

// Exists reports whether a document with the given id is present.
func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.store.querier(ctx).
		QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, c.table), id).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("docstore/postgres: exists %s/%s: %w", c.name, id, err)
	}
	return exists, nil
}

// Add persists a new document under a generated id.
func (c *Collection[T]) Add(ctx context.Context, doc T) (string, error) {
	raw, err := encode(doc)
	if err != nil {
		return "", fmt.Errorf("docstore/postgres: add %s: %w", c.name, err)
	}
	id := uuid.NewString()
	_, err = c.store.querier(ctx).
		Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, c.table), id, raw)
	if err != nil {
		return "", fmt.Errorf("docstore/postgres: add %s: %w", c.name, err)
	}
	return id, nil
}

// Set overwrites the full document under id, inserting it when absent.
func (c *Collection[T]) Set(ctx context.Context, id string, doc T) error {
	raw, err := encode(doc)
	if err != nil {
		return fmt.Errorf("docstore/postgres: set %s/%s: %w", c.name, id, err)
	}
	_, err = c.store.querier(ctx).Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		c.table,
	), id, raw)
	if err != nil {
		return fmt.Errorf("docstore/postgres: set %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Delete removes the document under id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.store.querier(ctx).
		Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table), id)
	if err != nil {
		return fmt.Errorf("docstore/postgres: delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Query starts a query over the collection.
func (c *Collection[T]) Query() docstore.Query[T] {
	return &query[T]{coll: c}
}

// encode strips the id from the stored payload; ids live in the id column.
func encode(doc docstore.Entity) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	return json.Marshal(fields)
}

func (c *Collection[T]) decode(id string, raw []byte) (T, error) {
	doc := c.newDoc()
	if err := json.Unmarshal(raw, doc); err != nil {
		var zero T
		return zero, fmt.Errorf("docstore/postgres: decode %s/%s: %w", c.name, id, err)
	}
	doc.SetDocumentID(id)
	return doc, nil
}
