package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tbckr/netgeo/internal/apperr"
)

// fileFormatVersion is written into every cache file.
const fileFormatVersion = 1

// fileDocument is the on-disk layout of a FileBackend.
type fileDocument struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// FileBackend stores all entries as a single JSON document at Dir/Name.
// Dir must already exist; the file is created on first Save.
type FileBackend struct {
	Dir  string
	Name string
}

// Path returns the full path of the cache file.
func (b FileBackend) Path() string { return filepath.Join(b.Dir, b.Name) }

// Location implements Backend.
func (b FileBackend) Location() string { return b.Path() }

// Load implements Backend.
func (b FileBackend) Load() ([]Entry, error) {
	if err := checkDir(b.Dir); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnreadable, b.Path(), err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrUnreadable, b.Path(), err)
	}
	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("%w: %s has unsupported version %d", ErrUnreadable, b.Path(), doc.Version)
	}
	return doc.Entries, nil
}

// Save implements Backend. The document is written to a temporary file in Dir
// and renamed over the cache file, so readers never observe a partial write.
func (b FileBackend) Save(entries []Entry) error {
	if err := checkDir(b.Dir); err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(fileDocument{Version: fileFormatVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("%w: encoding cache: %w", apperr.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(b.Dir, "."+b.Name+".*")
	if err != nil {
		return fmt.Errorf("%w: unable to write to cache: %w", apperr.ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("%w: writing cache: %w", apperr.ErrStorage, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck,gosec // chmod error takes precedence
		return fmt.Errorf("%w: writing cache: %w", apperr.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: writing cache: %w", apperr.ErrStorage, err)
	}
	if err := os.Rename(tmpName, b.Path()); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", apperr.ErrStorage, b.Path(), err)
	}
	return nil
}

// checkDir returns an error wrapping apperr.ErrStorage unless dir is an existing directory.
func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: no such cache directory %s", apperr.ErrStorage, dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: cache path %s is not a directory", apperr.ErrStorage, dir)
	}
	return nil
}
