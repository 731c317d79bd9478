package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const name = "netgeo"

// ConfigDir returns the OS-specific config directory for netgeo.
// Linux: $XDG_CONFIG_HOME/netgeo  macOS: ~/Library/Application Support/netgeo
// Windows: %AppData%/netgeo
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(base, name), nil
}

// CacheDir returns the OS-specific cache directory for netgeo.
// Linux: $XDG_CACHE_HOME/netgeo  macOS: ~/Library/Caches/netgeo
// Windows: %LocalAppData%/netgeo
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("getting user cache dir: %w", err)
	}
	return filepath.Join(base, name), nil
}

// EnsureDir creates dir and its parents with 0700 permissions if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// EnsureFile creates path and its parent directories if they do not exist.
// The file is created with 0600 permissions (owner read/write only).
// A no-op if the file already exists.
func EnsureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}
