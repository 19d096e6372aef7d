//go:build !unix

package mkdocs

import "errors"

// LockSuffix names the sidecar lock file on platforms with advisory locks.
const LockSuffix = ".lock"

// ErrLocked reports that another run holds the configuration lock.
var ErrLocked = errors.New("configuration is locked by another run")

// Lock is a no-op where flock(2) is unavailable.
func (s *Store) Lock() (func() error, error) {
	return func() error { return nil }, nil
}
