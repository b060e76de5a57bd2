// Package category persists the user's organizing vocabulary: known
// categories (destination folders), per-extension routing preferences,
// and free-form notes attached to files.
package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Category is one known destination folder under the session root.
type Category struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteMaxLen caps stored notes so they stay usable as prompt context.
const NoteMaxLen = 120

var (
	ErrNotFound = errors.New("category: not found")
	ErrExists   = errors.New("category: already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	name       TEXT PRIMARY KEY COLLATE NOCASE,
	path       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS extension_prefs (
	ext      TEXT PRIMARY KEY,
	category TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	note       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a sqlite-backed category database. A single connection with
// WAL journaling keeps writes serialized without a mutex of our own.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at the given path and bootstraps
// the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("category: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("category: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// List returns all categories sorted by name.
func (s *Store) List(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, path, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("category: list: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		var created int64
		if err := rows.Scan(&c.Name, &c.Path, &created); err != nil {
			return nil, fmt.Errorf("category: scan row: %w", err)
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get looks up a category by name, case-insensitively.
func (s *Store) Get(ctx context.Context, name string) (Category, error) {
	var c Category
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT name, path, created_at FROM categories WHERE name = ?`, name).
		Scan(&c.Name, &c.Path, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("category: get %q: %w", name, err)
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	return c, nil
}

// Add registers a new category. The name doubles as its folder name
// under the session root when no explicit path is given.
func (s *Store) Add(ctx context.Context, name, path string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errors.New("category: empty name")
	}
	if path == "" {
		path = name
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, path, created_at) VALUES (?, ?, ?)`,
		name, filepath.ToSlash(path), now.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Category{}, ErrExists
		}
		return Category{}, fmt.Errorf("category: add %q: %w", name, err)
	}
	return Category{Name: name, Path: filepath.ToSlash(path), CreatedAt: now}, nil
}

// Remove deletes a category and any extension preferences routing to it.
func (s *Store) Remove(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("category: remove %q: %w", name, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("category: remove %q: %w", name, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM extension_prefs WHERE category = ? COLLATE NOCASE`, name); err != nil {
		return fmt.Errorf("category: remove prefs for %q: %w", name, err)
	}
	return tx.Commit()
}

// ExtensionPrefs returns the extension→category routing table. Keys are
// normalized lowercase extensions including the leading dot.
func (s *Store) ExtensionPrefs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ext, category FROM extension_prefs`)
	if err != nil {
		return nil, fmt.Errorf("category: extension prefs: %w", err)
	}
	defer rows.Close()

	prefs := map[string]string{}
	for rows.Next() {
		var ext, cat string
		if err := rows.Scan(&ext, &cat); err != nil {
			return nil, fmt.Errorf("category: scan pref: %w", err)
		}
		prefs[ext] = cat
	}
	return prefs, rows.Err()
}

// SetExtensionPref routes an extension to a category. The category must
// already exist.
func (s *Store) SetExtensionPref(ctx context.Context, ext, category string) error {
	ext = normalizeExt(ext)
	if ext == "." {
		return errors.New("category: empty extension")
	}
	if _, err := s.Get(ctx, category); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extension_prefs (ext, category) VALUES (?, ?)
		 ON CONFLICT(ext) DO UPDATE SET category = excluded.category`,
		ext, category)
	if err != nil {
		return fmt.Errorf("category: set pref %s: %w", ext, err)
	}
	return nil
}

// Note returns the stored note for a file path, or "" when none exists.
func (s *Store) Note(ctx context.Context, path string) (string, error) {
	var note string
	err := s.db.QueryRowContext(ctx, `SELECT note FROM notes WHERE path = ?`, path).Scan(&note)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("category: note for %q: %w", path, err)
	}
	return note, nil
}

// SetNote stores a note for a file path, truncated to NoteMaxLen runes.
// An empty note deletes the row.
func (s *Store) SetNote(ctx context.Context, path, note string) error {
	note = strings.TrimSpace(note)
	if r := []rune(note); len(r) > NoteMaxLen {
		note = string(r[:NoteMaxLen])
	}
	if note == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE path = ?`, path)
		if err != nil {
			return fmt.Errorf("category: clear note for %q: %w", path, err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (path, note, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET note = excluded.note, updated_at = excluded.updated_at`,
		path, note, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("category: set note for %q: %w", path, err)
	}
	return nil
}

// Notes returns all stored notes keyed by path.
func (s *Store) Notes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, note FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("category: notes: %w", err)
	}
	defer rows.Close()

	notes := map[string]string{}
	for rows.Next() {
		var path, note string
		if err := rows.Scan(&path, &note); err != nil {
			return nil, fmt.Errorf("category: scan note: %w", err)
		}
		notes[path] = note
	}
	return notes, rows.Err()
}

// SyncFromRoot registers every immediate subdirectory of the session
// root as a category if not already known. Returns the names it added.
func (s *Store) SyncFromRoot(ctx context.Context, dirNames []string) ([]string, error) {
	var added []string
	for _, name := range dirNames {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		_, err := s.Add(ctx, name, name)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added = append(added, name)
	}
	sort.Strings(added)
	return added, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
