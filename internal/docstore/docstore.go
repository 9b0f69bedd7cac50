// Package docstore is the field-value document store keyed by document
// key, per §6.4: one SQLite database per index, storing each document's
// full field payload as JSON alongside its key.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store owns one SQLite database per index under root/docstore/<index>.db.
type Store struct {
	root string

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewStore opens (lazily, per index) the document stores rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root, dbs: make(map[string]*sql.DB)}
}

func (s *Store) dbFor(index string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[index]; ok {
		return db, nil
	}

	dir := filepath.Join(s.root, "docstore")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, index+".db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("docstore: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer avoids WAL lock contention

	// DSN query params are unreliable with modernc.org/sqlite; set pragmas
	// via explicit statements instead.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("docstore: setting pragma for %s: %w", index, err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		fields TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("docstore: initializing schema for %s: %w", index, err)
	}

	s.dbs[index] = db
	return db, nil
}

// Close closes every open per-index database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Get returns the stored field payload for key, or ok=false if absent.
func (s *Store) Get(ctx context.Context, index, key string) (map[string]any, bool, error) {
	db, err := s.dbFor(index)
	if err != nil {
		return nil, false, err
	}
	var raw string
	err = db.QueryRowContext(ctx, `SELECT fields FROM documents WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, false, fmt.Errorf("docstore: decoding %s/%s: %w", index, key, err)
	}
	return fields, true, nil
}

// Exists reports whether key is present in index.
func (s *Store) Exists(ctx context.Context, index, key string) (bool, error) {
	db, err := s.dbFor(index)
	if err != nil {
		return false, err
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Upload fully replaces (or creates) a document's field payload, per
// §6.2's upload action. wasNew reports whether the key did not
// previously exist (status 201 vs 200 at the HTTP layer).
func (s *Store) Upload(ctx context.Context, index, key string, fields map[string]any) (wasNew bool, err error) {
	db, err := s.dbFor(index)
	if err != nil {
		return false, err
	}
	existed, err := s.Exists(ctx, index, key)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return false, err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO documents(key, fields) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET fields = excluded.fields`, key, raw)
	return !existed, err
}

// ErrNotFound is returned by Merge when key does not already exist.
var ErrNotFound = fmt.Errorf("docstore: document not found")

// Merge overlays fields onto the existing document's payload — each
// top-level field in fields fully replaces the existing value for that
// field name (including collection fields: no element-wise array merge,
// per the whole-field-replace resolution for merge semantics). Returns
// ErrNotFound if key does not already exist, per §6.2's merge-missing =
// 404 status.
func (s *Store) Merge(ctx context.Context, index, key string, fields map[string]any) error {
	existing, ok, err := s.Get(ctx, index, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		existing[k] = v
	}
	_, err = s.Upload(ctx, index, key, existing)
	return err
}

// MergeOrUpload merges into an existing document, or uploads fields as a
// new document when key does not exist, per §6.2's mergeOrUpload action.
// wasNew mirrors Upload's convention.
func (s *Store) MergeOrUpload(ctx context.Context, index, key string, fields map[string]any) (wasNew bool, err error) {
	existing, ok, err := s.Get(ctx, index, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return s.Upload(ctx, index, key, fields)
	}
	for k, v := range fields {
		existing[k] = v
	}
	_, err = s.Upload(ctx, index, key, existing)
	return false, err
}

// Delete removes key from index. Deleting a nonexistent key succeeds
// silently, per the §6.2 delete action's status 200 regardless of
// whether the key previously existed.
func (s *Store) Delete(ctx context.Context, index, key string) error {
	db, err := s.dbFor(index)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	return err
}

// List returns every document in index, keyed by document key. Used by
// full-index scans (match-all queries, facet computation over the
// unpaged result set).
func (s *Store) List(ctx context.Context, index string) (map[string]map[string]any, error) {
	db, err := s.dbFor(index)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT key, fields FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("docstore: decoding %s/%s: %w", index, key, err)
		}
		out[key] = fields
	}
	return out, rows.Err()
}

// Count returns the number of documents stored in index.
func (s *Store) Count(ctx context.Context, index string) (int64, error) {
	db, err := s.dbFor(index)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// DropIndex deletes an index's entire document store file, per index
// deletion semantics.
func (s *Store) DropIndex(index string) error {
	s.mu.Lock()
	db, ok := s.dbs[index]
	if ok {
		delete(s.dbs, index)
	}
	s.mu.Unlock()
	if ok {
		_ = db.Close()
	}

	path := filepath.Join(s.root, "docstore", index+".db")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
