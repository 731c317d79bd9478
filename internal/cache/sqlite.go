package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tbckr/netgeo/internal/apperr"
	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/record"
)

// currentSchemaVersion is the schema version Save migrates the database to.
const currentSchemaVersion = 1

// schemaMigrations[i] moves the database from version i to i+1.
var schemaMigrations = []string{
	`CREATE TABLE netgeo_cache (
		position INTEGER PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		method TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		record TEXT NOT NULL
	);`,
}

// SQLiteBackend stores entries in an SQLite database at Dir/Name, one row per
// entry with the record encoded as JSON. Dir must already exist.
type SQLiteBackend struct {
	Dir  string
	Name string
}

// Path returns the full path of the database file.
func (b SQLiteBackend) Path() string { return filepath.Join(b.Dir, b.Name) }

// Location implements Backend.
func (b SQLiteBackend) Location() string { return "sqlite:" + b.Path() }

// Load implements Backend.
func (b SQLiteBackend) Load() ([]Entry, error) {
	if err := checkDir(b.Dir); err != nil {
		return nil, err
	}
	if _, err := os.Stat(b.Path()); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	db, err := b.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer db.Close() //nolint:errcheck // read-only use

	rows, err := db.Query(`SELECT key, method, fetched_at, record FROM netgeo_cache ORDER BY position;`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %w", ErrUnreadable, b.Path(), err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			method    string
			fetchedAt int64
			raw       string
		)
		if err := rows.Scan(&e.Key, &method, &fetchedAt, &raw); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %w", ErrUnreadable, b.Path(), err)
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: decoding record %q: %w", ErrUnreadable, e.Key, err)
		}
		e.Method = netgeo.Method(method)
		e.FetchedAt = time.Unix(0, fetchedAt).UTC()
		e.Record = rec
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnreadable, b.Path(), err)
	}
	return entries, nil
}

// Save implements Backend. All rows are replaced in a single transaction.
func (b SQLiteBackend) Save(entries []Entry) error {
	if err := checkDir(b.Dir); err != nil {
		return err
	}
	db, err := b.openForWrite()
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStorage, err)
	}
	defer db.Close() //nolint:errcheck // commit result is what matters

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %w", apperr.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM netgeo_cache;`); err != nil {
		return fmt.Errorf("%w: clearing cache table: %w", apperr.ErrStorage, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO netgeo_cache (position, key, method, fetched_at, record) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("%w: preparing insert: %w", apperr.ErrStorage, err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for i, e := range entries {
		raw, err := json.Marshal(e.Record)
		if err != nil {
			return fmt.Errorf("%w: encoding record %q: %w", apperr.ErrStorage, e.Key, err)
		}
		if _, err := stmt.Exec(i, e.Key, string(e.Method), e.FetchedAt.UnixNano(), string(raw)); err != nil {
			return fmt.Errorf("%w: storing %q: %w", apperr.ErrStorage, e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing cache: %w", apperr.ErrStorage, err)
	}
	return nil
}

// openForWrite opens the database for Save. A file that cannot be opened as
// a cache database (for example a JSON cache written by FileBackend) is
// replaced by a fresh database, as Load already reported it as empty.
func (b SQLiteBackend) openForWrite() (*sql.DB, error) {
	db, err := b.open()
	if err == nil {
		return db, nil
	}
	if rmErr := os.Remove(b.Path()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("replacing unreadable %s: %w", b.Path(), errors.Join(err, rmErr))
	}
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		_ = os.Remove(b.Path() + suffix)
	}
	return b.open()
}

// open opens the database and migrates it to currentSchemaVersion.
func (b SQLiteBackend) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", b.Path())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", b.Path(), err)
	}
	if err := migrate(db); err != nil {
		db.Close() //nolint:errcheck,gosec // migration error takes precedence
		return nil, fmt.Errorf("migrating %s: %w", b.Path(), err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS netgeo_schema (version INTEGER NOT NULL, time INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("creating schema table: %w", err)
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM netgeo_schema;`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	for v := int(version.Int64); v < currentSchemaVersion; v++ {
		if _, err := db.Exec(schemaMigrations[v]); err != nil {
			return fmt.Errorf("migrating from schema version %d: %w", v, err)
		}
		if _, err := db.Exec(`INSERT INTO netgeo_schema (version, time) VALUES (?, ?);`, v+1, time.Now().Unix()); err != nil {
			return fmt.Errorf("recording schema version %d: %w", v+1, err)
		}
	}
	return nil
}
