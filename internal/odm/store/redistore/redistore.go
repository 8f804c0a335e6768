// Package redistore implements the store capability over Redis: one
// string key per document holding its wrapper-form JSON, plus a set per
// collection indexing the stored identities. Matching, sorting, and
// windowing happen client-side with the shared helpers.
package redistore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix namespaces every key written by the store.
	Prefix string
}

// DefaultConfig returns a local development configuration.
func DefaultConfig() Config {
	return Config{
		Addr:   "localhost:6379",
		Prefix: "odm:",
	}
}

// Store is a Redis-backed document store.
type Store struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// Open connects with the given configuration and verifies the connection.
func Open(cfg Config, log *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg.Prefix, log), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, prefix string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, log: log}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Collection returns the named collection.
func (s *Store) Collection(name string) *Collection {
	return &Collection{
		client: s.client,
		name:   name,
		docKey: s.prefix + name + ":",
		idxKey: s.prefix + name + ":ids",
		log:    s.log,
	}
}

// Collection is one Redis-backed collection.
type Collection struct {
	client *redis.Client
	name   string
	docKey string
	idxKey string
	log    *zap.Logger
}

var _ store.Collection = (*Collection)(nil)

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// FindOne implements store.Collection.
func (c *Collection) FindOne(ctx context.Context, predicate, projection document.Doc) (document.Doc, error) {
	if id, ok := store.IdentityOnly(predicate); ok {
		if key, ok := store.IdentityText(id); ok {
			doc, err := c.load(ctx, key)
			if err != nil {
				return nil, err
			}
			return store.ApplyProjection(doc, projection), nil
		}
	}
	docs, err := c.loadMatching(ctx, predicate)
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
	docs, err := c.loadMatching(ctx, q.Predicate)
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
	for _, doc := range docs {
		key, data, err := c.keyAndJSON(doc)
		if err != nil {
			return err
		}
		ok, err := c.client.SetNX(ctx, c.docKey+key, data, 0).Result()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrDuplicateKey, key)
		}
		if err := c.client.SAdd(ctx, c.idxKey, key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Save implements store.Collection.
func (c *Collection) Save(ctx context.Context, wc store.WriteConcern, doc document.Doc) error {
	key, data, err := c.keyAndJSON(doc)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.docKey+key, data, 0).Err(); err != nil {
		return err
	}
	return c.client.SAdd(ctx, c.idxKey, key).Err()
}

// Update implements store.Collection.
func (c *Collection) Update(ctx context.Context, wc store.WriteConcern, predicate, update document.Doc, opts store.UpdateOptions) error {
	matches, err := c.loadMatching(ctx, predicate)
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
	matches, err := c.loadMatching(ctx, predicate)
	if err != nil {
		return err
	}
	for _, doc := range matches {
		id, _ := doc.Get("_id")
		key, ok := store.IdentityText(id)
		if !ok {
			continue
		}
		if err := c.client.Del(ctx, c.docKey+key).Err(); err != nil {
			return err
		}
		if err := c.client.SRem(ctx, c.idxKey, key).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) load(ctx context.Context, key string) (document.Doc, error) {
	data, err := c.client.Get(ctx, c.docKey+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

func (c *Collection) loadMatching(ctx context.Context, predicate document.Doc) ([]document.Doc, error) {
	keys, err := c.client.SMembers(ctx, c.idxKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys) // set members have no order; keep results deterministic
	var matches []document.Doc
	for _, key := range keys {
		doc, err := c.load(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNoDocument) {
				continue // index raced a removal
			}
			return nil, err
		}
		if store.Matches(doc, predicate) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func (c *Collection) keyAndJSON(doc document.Doc) (string, []byte, error) {
	id, ok := doc.Get("_id")
	if !ok {
		return "", nil, store.ErrNoDocument
	}
	key, ok := store.IdentityText(id)
	if !ok {
		return "", nil, fmt.Errorf("redistore: unsupported identity type %T", id)
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}
