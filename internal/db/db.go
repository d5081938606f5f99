// Package db implements a Store backend on a private in-memory SQLite database.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/go-ports/minidb/internal/models"
)

// ErrKindMismatch is returned when a stored row's kind column disagrees with
// the items stored in its value column.
var ErrKindMismatch = errors.New("stored kind does not match value")

// DB wraps a *sql.DB holding one session's entries.
type DB struct {
	db *sql.DB
}

// Open creates an empty in-memory database and initialises the schema.
// Every DB is independent; nothing is written to disk.
func Open() (*DB, error) {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	// Each connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)
	sqldb.SetConnMaxIdleTime(0)

	d := &DB{db: sqldb}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open createSchema: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection, discarding all entries.
func (d *DB) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			key   TEXT UNIQUE NOT NULL,
			kind  TEXT NOT NULL,
			value TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// Get returns the value stored under key and whether it exists.
func (d *DB) Get(key string) (models.Value, bool, error) {
	var kind, raw string
	err := d.db.QueryRow(`SELECT kind, value FROM entries WHERE key = ?`, key).Scan(&kind, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Value{}, false, nil
	}
	if err != nil {
		return models.Value{}, false, fmt.Errorf("db.Get: %w", err)
	}
	v, err := decodeValue(kind, raw)
	if err != nil {
		return models.Value{}, false, fmt.Errorf("db.Get %q: %w", key, err)
	}
	return v, true, nil
}

// Put creates or replaces the value under key. A replaced key keeps its
// original position in Entries.
func (d *DB) Put(key string, v models.Value) error {
	if v.IsZero() {
		return fmt.Errorf("db.Put %q: %w", key, models.ErrInvalidValue)
	}
	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("db.Put %q: %w", key, err)
	}
	_, err = d.db.Exec(
		`INSERT INTO entries (key, kind, value) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		key, kindName(v.Kind()), raw,
	)
	if err != nil {
		return fmt.Errorf("db.Put: %w", err)
	}
	return nil
}

// Entries returns every entry ordered by first insertion.
func (d *DB) Entries() ([]models.Entry, error) {
	rows, err := d.db.Query(`SELECT key, kind, value FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("db.Entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.Entry, 0)
	for rows.Next() {
		var key, kind, raw string
		if err := rows.Scan(&key, &kind, &raw); err != nil {
			return nil, fmt.Errorf("db.Entries scan: %w", err)
		}
		v, err := decodeValue(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("db.Entries %q: %w", key, err)
		}
		out = append(out, models.Entry{Key: key, Value: v})
	}
	return out, rows.Err()
}

// Len returns the number of stored keys.
func (d *DB) Len() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db.Len: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func kindName(k models.Kind) string {
	if k == models.KindList {
		return "list"
	}
	return "scalar"
}

// item is the stored form of one Scalar. Text is a []byte so that
// encoding/json base64-encodes it and invalid UTF-8 survives the round trip.
type item struct {
	Num  *float64 `json:"n,omitempty"`
	Text []byte   `json:"s,omitempty"`
}

// encodeValue stores a Scalar as a one-item array and a List as one item per
// element.
func encodeValue(v models.Value) (string, error) {
	scalars := v.List()
	if s, ok := v.Scalar(); ok {
		scalars = []models.Scalar{s}
	}
	items := make([]item, 0, len(scalars))
	for _, s := range scalars {
		if f, ok := s.Number(); ok {
			items = append(items, item{Num: &f})
			continue
		}
		t, ok := s.Text()
		if !ok {
			return "", models.ErrInvalidValue
		}
		items = append(items, item{Text: []byte(t)})
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeValue(kind, raw string) (models.Value, error) {
	var items []item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return models.Value{}, err
	}
	scalars := make([]models.Scalar, 0, len(items))
	for _, it := range items {
		if it.Num != nil {
			scalars = append(scalars, models.NumberScalar(*it.Num))
			continue
		}
		scalars = append(scalars, models.StringScalar(string(it.Text)))
	}

	switch kind {
	case "scalar":
		if len(scalars) == 1 {
			return models.ScalarValue(scalars[0]), nil
		}
	case "list":
		return models.ListValue(scalars...), nil
	}
	return models.Value{}, fmt.Errorf("%w: %s with %d items", ErrKindMismatch, kind, len(scalars))
}
