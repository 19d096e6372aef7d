//go:build unix

package mkdocs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
)

// LockSuffix names the sidecar file holding the advisory lock. The document
// itself cannot carry the lock because a rename replaces its inode.
const LockSuffix = ".lock"

// lockAttempts bounds how often Lock reopens a sidecar that was unlinked by
// the previous holder between our open and flock.
const lockAttempts = 5

// ErrLocked reports that another run holds the configuration lock.
var ErrLocked = errors.New("configuration is locked by another run")

// Lock takes an exclusive, non-blocking advisory lock for the document.
// The returned function releases it and removes the lock file.
func (s *Store) Lock() (func() error, error) {
	lockPath := s.path + LockSuffix
	for range lockAttempts {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, serrors.IOFailed("open lock file", lockPath, err)
		}
		current, err := acquire(f, lockPath)
		if err != nil {
			_ = f.Close()
			return nil, serrors.IOFailed("lock configuration", s.path, err)
		}
		if !current {
			_ = f.Close()
			continue
		}
		return release(f, lockPath), nil
	}
	return nil, serrors.IOFailed("lock configuration", s.path, ErrLocked)
}

// acquire flocks f and reports whether f is still the file at path. A false
// result means the holder we waited for unlinked it, so the lock guards nothing.
func acquire(f *os.File, path string) (bool, error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return false, ErrLocked
		}
		return false, err
	}
	held, err := f.Stat()
	if err != nil {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return false, err
	}
	onDisk, err := os.Stat(path)
	if err == nil && os.SameFile(held, onDisk) {
		return true, nil
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	return false, nil
}

func release(f *os.File, path string) func() error {
	return func() error {
		// unlink before unlocking; waiters on the old inode see the mismatch in acquire
		rmErr := os.Remove(path)
		unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
		closeErr := f.Close()
		if err := errors.Join(rmErr, unlockErr, closeErr); err != nil {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}
}
