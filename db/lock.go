package db

import (
	"fmt"
	"path/filepath"

	"github.com/nightlyone/lockfile"
)

// Lock claims the database at path for this process by creating the lockfile
// path + ".lock". The returned func releases it.
//
// Readers opened with OpenPool do not need the lock.
func Lock(path string) (unlock func() error, err error) {
	if path == Memory {
		return func() error { return nil }, nil
	}
	lockFilePath, err := filepath.Abs(path + ".lock")
	if err != nil {
		return nil, err
	}
	lockFile, err := lockfile.New(lockFilePath)
	if err != nil {
		return nil, fmt.Errorf("lockfile.New(%q): %w", lockFilePath, err)
	}
	if err := lockFile.TryLock(); err != nil {
		return nil, fmt.Errorf("lockFile.TryLock(): %w", err)
	}
	return func() error {
		if err := lockFile.Unlock(); err != nil {
			return fmt.Errorf("lockFile.Unlock(): %w", err)
		}
		return nil
	}, nil
}
