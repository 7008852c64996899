// Package couchstore implements store.Store on CouchDB with one database per entity.
package couchstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

const (
	backendName = "couchdb"

	// page size for Mango queries; CouchDB returns 25 documents when no limit is given
	pageSize = 200

	// attempts for read-modify-write cycles that lose a revision race
	maxConflictRetries = 8
)

// Store is a CouchDB backed store. It cannot roll back multi-document writes.
type Store struct {
	client   *kivik.Client
	prefix   string
	users    *kivik.DB
	clients  *kivik.DB
	products *kivik.DB
	orders   *kivik.DB
}

var _ store.Store = (*Store)(nil)

// Connect opens a client for the configured server
func Connect(ctx context.Context, cfg *config.CouchConfig) (*Store, error) {
	client, err := kivik.New("couch", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create couchdb client: %w", err)
	}
	s := New(client, cfg.DBPrefix)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.GetLogger().Info("CouchDB connected successfully",
		zap.String("couchdb_url", cfg.URL),
		zap.String("db_prefix", cfg.DBPrefix))
	return s, nil
}

// New wraps a client. Databases are named <prefix>users, <prefix>clients, ...
func New(client *kivik.Client, prefix string) *Store {
	return &Store{
		client:   client,
		prefix:   prefix,
		users:    client.DB(prefix + "users"),
		clients:  client.DB(prefix + "clients"),
		products: client.DB(prefix + "products"),
		orders:   client.DB(prefix + "orders"),
	}
}

func (s *Store) Name() string { return backendName }

func (s *Store) Atomic() bool { return false }

func (s *Store) Users() store.UserRepository { return &userRepository{db: s.users} }

func (s *Store) Clients() store.ClientRepository { return &clientRepository{db: s.clients} }

func (s *Store) Products() store.ProductRepository { return &productRepository{db: s.products} }

func (s *Store) Orders() store.OrderRepository { return &orderRepository{db: s.orders} }

// RunInTx calls fn directly; callers compensate on failure when Atomic is false
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	return fn(ctx, s)
}

func (s *Store) databaseNames() []string {
	return []string{s.prefix + "users", s.prefix + "clients", s.prefix + "products", s.prefix + "orders"}
}

// Migrate creates the databases and the Mango indexes used by lookups
func (s *Store) Migrate(ctx context.Context) error {
	for _, name := range s.databaseNames() {
		exists, err := s.client.DBExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check database %s: %w", name, err)
		}
		if exists {
			continue
		}
		if err := s.client.CreateDB(ctx, name); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
			return fmt.Errorf("failed to create database %s: %w", name, err)
		}
	}

	indexes := []struct {
		db     *kivik.DB
		name   string
		fields []string
	}{
		{s.users, "by-email", []string{"type", "email"}},
		{s.users, "by-reset-token", []string{"type", "password_reset_token"}},
		{s.clients, "by-user", []string{"type", "user_id"}},
		{s.clients, "by-email", []string{"type", "email"}},
		{s.orders, "by-client", []string{"type", "client_id"}},
	}
	for _, idx := range indexes {
		err := idx.db.CreateIndex(ctx, "", idx.name, map[string]interface{}{"fields": idx.fields})
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping couchdb: %w", err)
	}
	if !ok {
		return errors.New("couchdb is not reachable")
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Drop removes every database of the store. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	for _, name := range s.databaseNames() {
		if err := s.client.DestroyDB(ctx, name); err != nil && kivik.HTTPStatus(err) != http.StatusNotFound {
			return err
		}
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch kivik.HTTPStatus(err) {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

func isConflict(err error) bool {
	return kivik.HTTPStatus(err) == http.StatusConflict
}

// get loads one document of the expected type
func get(ctx context.Context, db *kivik.DB, id string, docType string, dest interface{ docType() string }) error {
	if err := db.Get(ctx, id).ScanDoc(dest); err != nil {
		return mapError(err)
	}
	if dest.docType() != docType {
		return store.ErrNotFound
	}
	return nil
}

func (d *userDoc) docType() string    { return d.Type }
func (d *clientDoc) docType() string  { return d.Type }
func (d *productDoc) docType() string { return d.Type }
func (d *orderDoc) docType() string   { return d.Type }
func (d *lockDoc) docType() string    { return d.Type }

// find runs a Mango selector and follows bookmarks until every match is read
func find[T any](ctx context.Context, db *kivik.DB, selector map[string]interface{}) ([]T, error) {
	var out []T
	bookmark := ""
	for {
		query := map[string]interface{}{"selector": selector, "limit": pageSize}
		if bookmark != "" {
			query["bookmark"] = bookmark
		}
		page, next, err := findPage[T](ctx, db, query)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, page...)
		if len(page) < pageSize || next == "" || next == bookmark {
			return out, nil
		}
		bookmark = next
	}
}

func findPage[T any](ctx context.Context, db *kivik.DB, query map[string]interface{}) ([]T, string, error) {
	rs := db.Find(ctx, query)
	defer rs.Close()

	var page []T
	for rs.Next() {
		var doc T
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, "", err
		}
		page = append(page, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, "", err
	}
	meta, err := rs.Metadata()
	if err != nil {
		return page, "", nil
	}
	return page, meta.Bookmark, nil
}

// findOne returns the first match of a selector
func findOne[T any](ctx context.Context, db *kivik.DB, selector map[string]interface{}) (*T, error) {
	docs, err := find[T](ctx, db, selector)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return &docs[0], nil
}

// searchSelector requires every term in the name or description, case-insensitively
func searchSelector(search string) map[string]interface{} {
	selector := map[string]interface{}{"type": typeProduct}
	terms := store.SearchTerms(search)
	if len(terms) == 0 {
		return selector
	}
	and := make([]interface{}, 0, len(terms))
	for _, t := range terms {
		re := map[string]interface{}{"$regex": "(?i)" + regexp.QuoteMeta(t)}
		and = append(and, map[string]interface{}{"$or": []interface{}{
			map[string]interface{}{"name": re},
			map[string]interface{}{"description": re},
		}})
	}
	selector["$and"] = and
	return selector
}

// acquireLock reserves key in db for owner. Re-acquiring an owned key succeeds.
func acquireLock(ctx context.Context, db *kivik.DB, key, owner string) error {
	_, err := db.Put(ctx, key, &lockDoc{ID: key, Type: typeLock, Owner: owner})
	if err == nil {
		return nil
	}
	if !isConflict(err) {
		return err
	}
	var existing lockDoc
	if getErr := get(ctx, db, key, typeLock, &existing); getErr == nil && existing.Owner == owner {
		return nil
	}
	return fmt.Errorf("%w: %s", store.ErrConflict, key)
}

// releaseLock drops key when owner still holds it
func releaseLock(ctx context.Context, db *kivik.DB, key, owner string) error {
	var existing lockDoc
	if err := get(ctx, db, key, typeLock, &existing); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.Owner != owner {
		return nil
	}
	_, err := db.Delete(ctx, key, existing.Rev)
	return mapError(err)
}
