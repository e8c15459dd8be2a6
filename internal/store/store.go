// Package store persists generated puzzles in SQLite and serves them back as a
// cache keyed by seed word, center letter, word threshold and generator version.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"crosswarped.com/bee"
	"crosswarped.com/bee/internal/store/migrations"
)

var (
	ErrNotFound      = errors.New("puzzle not found")
	ErrAlreadyExists = errors.New("puzzle already exists")
)

// CacheKey identifies the inputs a puzzle was generated from. MinWords is 0 for
// puzzles built from a chosen seed and center.
type CacheKey struct {
	Seed     string
	Center   string
	MinWords int
	Version  string
}

// KeyFor returns the cache key of p generated with the given word threshold.
func KeyFor(p bee.Puzzle, minWords int) CacheKey {
	return CacheKey{
		Seed:     p.SeedWord,
		Center:   p.CenterLetter,
		MinWords: minWords,
		Version:  p.Version,
	}
}

func (k CacheKey) normalized() CacheKey {
	k.Seed = strings.ToLower(strings.TrimSpace(k.Seed))
	k.Center = strings.ToLower(strings.TrimSpace(k.Center))
	return k
}

// Summary is a listing row.
type Summary struct {
	ID         string
	Key        CacheKey
	TotalWords int
	CreatedAt  time.Time
}

// Store is a SQLite-backed puzzle store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and applies the embedded schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save stores p under key and returns it with its new ID. Puzzles are never
// updated; saving a second puzzle under the same key returns ErrAlreadyExists.
func (s *Store) Save(ctx context.Context, key CacheKey, p bee.Puzzle) (bee.Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return bee.Puzzle{}, err
	}
	key = key.normalized()
	if key.Seed == "" || key.Center == "" {
		return bee.Puzzle{}, fmt.Errorf("seed and center are required")
	}

	p.ID = uuid.NewString()
	body, err := json.Marshal(p)
	if err != nil {
		return bee.Puzzle{}, fmt.Errorf("encode puzzle: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO puzzles (
		   id,
		   seed_word,
		   center_letter,
		   min_words,
		   version,
		   total_words,
		   body,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		key.Seed,
		key.Center,
		key.MinWords,
		key.Version,
		p.TotalWords,
		string(body),
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return bee.Puzzle{}, ErrAlreadyExists
		}
		return bee.Puzzle{}, fmt.Errorf("save puzzle: %w", err)
	}
	return p, nil
}

// SaveOrGet saves p under key. If the key is already taken, p is returned with
// the stored puzzle's ID instead: the stored words are the same for the same key,
// but p may carry a newer seed clue. The stored row is not updated.
func (s *Store) SaveOrGet(ctx context.Context, key CacheKey, p bee.Puzzle) (bee.Puzzle, error) {
	saved, err := s.Save(ctx, key, p)
	if !errors.Is(err, ErrAlreadyExists) {
		return saved, err
	}
	cached, err := s.Lookup(ctx, key)
	if err != nil {
		return bee.Puzzle{}, err
	}
	p.ID = cached.ID
	return p, nil
}

// Load returns the puzzle with the given ID.
func (s *Store) Load(ctx context.Context, id string) (bee.Puzzle, error) {
	if strings.TrimSpace(id) == "" {
		return bee.Puzzle{}, fmt.Errorf("puzzle id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT body FROM puzzles WHERE id = ?`, id)
	return scanPuzzle(row)
}

// Lookup returns the puzzle previously saved under key.
func (s *Store) Lookup(ctx context.Context, key CacheKey) (bee.Puzzle, error) {
	key = key.normalized()
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM puzzles
		 WHERE seed_word = ? AND center_letter = ? AND min_words = ? AND version = ?`,
		key.Seed, key.Center, key.MinWords, key.Version,
	)
	return scanPuzzle(row)
}

// List returns up to limit puzzles, newest first. A limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, seed_word, center_letter, min_words, version, total_words, created_at
		 FROM puzzles
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created int64
		if err := rows.Scan(
			&sum.ID,
			&sum.Key.Seed,
			&sum.Key.Center,
			&sum.Key.MinWords,
			&sum.Key.Version,
			&sum.TotalWords,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan puzzle: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	return out, nil
}

func scanPuzzle(row *sql.Row) (bee.Puzzle, error) {
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bee.Puzzle{}, ErrNotFound
		}
		return bee.Puzzle{}, fmt.Errorf("load puzzle: %w", err)
	}
	var p bee.Puzzle
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return bee.Puzzle{}, fmt.Errorf("decode puzzle: %w", err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
