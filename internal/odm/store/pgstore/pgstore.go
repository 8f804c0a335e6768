// Package pgstore implements the store capability over Postgres: one
// table per collection holding the wrapper-form JSON document in a JSONB
// column keyed by the identity's text form. Predicate evaluation beyond
// identity equality happens client-side with the shared matcher, which
// keeps SQL generation trivial at the cost of scanning the collection.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/store"
)

const uniqueViolation = "23505"

// Store is a Postgres-backed document store.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open connects to the given Postgres URL and verifies the connection.
func Open(ctx context.Context, url string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewWithDB(db, log), nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Collection opens the named collection, creating its table on first use.
func (s *Store) Collection(ctx context.Context, name string) (*Collection, error) {
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`, name)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return nil, err
	}
	return &Collection{db: s.db, name: name, log: s.log}, nil
}

// Collection is one Postgres-backed collection.
type Collection struct {
	db   *sql.DB
	name string
	log  *zap.Logger
}

var _ store.Collection = (*Collection)(nil)

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// FindOne implements store.Collection.
func (c *Collection) FindOne(ctx context.Context, predicate, projection document.Doc) (document.Doc, error) {
	if id, ok := store.IdentityOnly(predicate); ok {
		if key, ok := store.IdentityText(id); ok {
			query := fmt.Sprintf(`SELECT doc FROM %q WHERE id = $1`, c.name)
			doc, err := c.scanOne(c.db.QueryRowContext(ctx, query, key))
			if err != nil {
				return nil, err
			}
			return store.ApplyProjection(doc, projection), nil
		}
	}
	docs, err := c.scanMatching(ctx, predicate)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNoDocument
	}
	return store.ApplyProjection(docs[0], projection), nil
}

// Find implements store.Collection.
func (c *Collection) Find(ctx context.Context, q store.Query) (store.Cursor, error) {
	docs, err := c.scanMatching(ctx, q.Predicate)
	if err != nil {
		return nil, err
	}
	store.SortDocs(docs, q.Sort)
	docs = store.ApplyWindow(docs, q.Skip, q.Limit)
	for i, doc := range docs {
		docs[i] = store.ApplyProjection(doc, q.Projection)
	}
	return store.NewSliceCursor(docs), nil
}

// Insert implements store.Collection.
func (c *Collection) Insert(ctx context.Context, wc store.WriteConcern, docs ...document.Doc) error {
	query := fmt.Sprintf(`INSERT INTO %q (id, doc) VALUES ($1, $2)`, c.name)
	for _, doc := range docs {
		key, data, err := keyAndJSON(doc)
		if err != nil {
			return err
		}
		if _, err := c.db.ExecContext(ctx, query, key, data); err != nil {
			return convertError(err)
		}
	}
	return nil
}

// Save implements store.Collection.
func (c *Collection) Save(ctx context.Context, wc store.WriteConcern, doc document.Doc) error {
	key, data, err := keyAndJSON(doc)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`INSERT INTO %q (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		c.name)
	if _, err := c.db.ExecContext(ctx, query, key, data); err != nil {
		return convertError(err)
	}
	return nil
}

// Update implements store.Collection.
func (c *Collection) Update(ctx context.Context, wc store.WriteConcern, predicate, update document.Doc, opts store.UpdateOptions) error {
	matches, err := c.scanMatching(ctx, predicate)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		if opts.Upsert {
			return c.Save(ctx, wc, store.UpsertSeed(predicate, update))
		}
		return nil
	}
	if !opts.Multi {
		matches = matches[:1]
	}
	for _, doc := range matches {
		if err := c.Save(ctx, wc, store.ApplyUpdate(doc, update)); err != nil {
			return err
		}
	}
	return nil
}

// Remove implements store.Collection.
func (c *Collection) Remove(ctx context.Context, wc store.WriteConcern, predicate document.Doc) error {
	if id, ok := store.IdentityOnly(predicate); ok {
		if key, ok := store.IdentityText(id); ok {
			query := fmt.Sprintf(`DELETE FROM %q WHERE id = $1`, c.name)
			_, err := c.db.ExecContext(ctx, query, key)
			return err
		}
	}
	matches, err := c.scanMatching(ctx, predicate)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %q WHERE id = $1`, c.name)
	for _, doc := range matches {
		id, _ := doc.Get("_id")
		key, ok := store.IdentityText(id)
		if !ok {
			continue
		}
		if _, err := c.db.ExecContext(ctx, query, key); err != nil {
			return err
		}
	}
	return nil
}

// scanMatching loads the collection in id order and filters client-side.
func (c *Collection) scanMatching(ctx context.Context, predicate document.Doc) ([]document.Doc, error) {
	query := fmt.Sprintf(`SELECT doc FROM %q ORDER BY id`, c.name)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []document.Doc
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc document.Doc
		if err := doc.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		if store.Matches(doc, predicate) {
			matches = append(matches, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *Collection) scanOne(row *sql.Row) (document.Doc, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoDocument
		}
		return nil, err
	}
	var doc document.Doc
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}

func keyAndJSON(doc document.Doc) (string, []byte, error) {
	id, ok := doc.Get("_id")
	if !ok {
		return "", nil, store.ErrNoDocument
	}
	key, ok := store.IdentityText(id)
	if !ok {
		return "", nil, fmt.Errorf("pgstore: unsupported identity type %T", id)
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}

// convertError maps Postgres unique violations onto the store sentinel.
// Everything else passes through unchanged.
func convertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, pgErr.Detail)
	}
	return err
}
