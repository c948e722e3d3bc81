// Package library is the SQLite-backed songbook: compiled documents stored
// as JSON rows, deduplicated by the BLAKE3 hash of their songcode source.
package library

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/prompter"
	"github.com/chordcue/chordcue/core/song"
	"github.com/chordcue/chordcue/core/songcode"
	"github.com/chordcue/chordcue/core/sqlite"
	"github.com/chordcue/chordcue/internal/cache"
	"github.com/chordcue/chordcue/internal/logging"
)

const schema = `CREATE TABLE IF NOT EXISTS songs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	artist     TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	document   TEXT NOT NULL,
	hash       TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS songs_title_index ON songs (title);`

// Store is a songbook library backed by a SQLite database. A document
// cache fronts Get so repeated prompter requests skip the decode.
type Store struct {
	db    *sql.DB
	cache *cache.DocumentCache
}

// Entry is one library listing row.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (creating if necessary) the library database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create schema", path, err)
	}
	return &Store{
		db:    db,
		cache: cache.NewDefaultDocumentCache(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// sourceHash is the deduplication key for a songcode document.
func sourceHash(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Add compiles source and stores the resulting document. If a document
// with the same source hash already exists, the stored one is returned
// and no new row is created.
func (s *Store) Add(ctx context.Context, source string) (*song.Document, error) {
	hash := sourceHash(source)

	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM songs WHERE hash = ?", hash).Scan(&existing)
	switch {
	case err == nil:
		logging.LibraryEvent("dedup", existing, "hash", hash)
		return s.Get(ctx, existing)
	case err != sql.ErrNoRows:
		return nil, errors.NewIO("query", "songs", err)
	}

	doc, err := songcode.Parse(source)
	if err != nil {
		return nil, err
	}
	if err := prompter.Build(doc); err != nil {
		return nil, err
	}
	doc.ID = uuid.NewString()

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO songs (id, title, artist, source, document, hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Metadata.Title, doc.Metadata.Artist, source, string(data), hash,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, errors.NewIO("insert", "songs", err)
	}

	s.cache.Put(doc.ID, doc)
	logging.LibraryEvent("add", doc.ID, "title", doc.Metadata.Title)
	return doc, nil
}

// Get returns the stored document with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*song.Document, error) {
	if doc, ok := s.cache.Get(id); ok {
		return doc, nil
	}

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM songs WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("song", id)
	}
	if err != nil {
		return nil, errors.NewIO("query", "songs", err)
	}

	var doc song.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, errors.Wrapf(err, "decode document %s", id)
	}

	s.cache.Put(id, &doc)
	return &doc, nil
}

// Source returns the original songcode text of the stored song.
func (s *Store) Source(ctx context.Context, id string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, "SELECT source FROM songs WHERE id = ?", id).Scan(&source)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound("song", id)
	}
	if err != nil {
		return "", errors.NewIO("query", "songs", err)
	}
	return source, nil
}

// List returns all library entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, artist, hash, created_at FROM songs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, errors.NewIO("query", "songs", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Title, &e.Artist, &e.Hash, &createdAt); err != nil {
			return nil, errors.NewIO("scan", "songs", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("iterate", "songs", err)
	}
	return entries, nil
}

// Delete removes a song from the library.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return errors.NewIO("delete", "songs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewIO("delete", "songs", err)
	}
	if n == 0 {
		return errors.NewNotFound("song", id)
	}

	s.cache.Remove(id)
	logging.LibraryEvent("delete", id)
	return nil
}
