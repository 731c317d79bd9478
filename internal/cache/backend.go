package cache

import (
	"fmt"

	"github.com/tbckr/netgeo/internal/apperr"
)

// Backend kinds accepted by NewBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// BackendKinds lists the accepted backend kinds.
func BackendKinds() []string { return []string{BackendFile, BackendSQLite} }

// NewBackend returns the backend of the given kind storing into dir/name.
func NewBackend(kind, dir, name string) (Backend, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty cache file name", apperr.ErrInvalidInput)
	}
	switch kind {
	case BackendFile, "":
		return FileBackend{Dir: dir, Name: name}, nil
	case BackendSQLite:
		return SQLiteBackend{Dir: dir, Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q: must be one of file, sqlite", apperr.ErrInvalidInput, kind)
	}
}
