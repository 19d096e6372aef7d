package mkdocs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
)

// DefaultPath is the configuration path used when none is given.
const DefaultPath = "mkdocs.yml"

// BackupSuffix is appended to the configuration path to name the backup copy.
const BackupSuffix = ".bak"

// Store reads and writes one configuration document on disk.
type Store struct {
	path string
}

// NewStore creates a Store for the document at path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the configuration path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the path of the backup copy.
func (s *Store) BackupPath() string { return s.path + BackupSuffix }

// Snapshot is the raw on-disk state of the document at load time.
type Snapshot struct {
	Data []byte
	Mode fs.FileMode
}

// Read returns the raw document bytes and permissions.
func (s *Store) Read() (Snapshot, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return Snapshot{}, serrors.IOFailed("read configuration", s.path, err)
	}
	if info.IsDir() {
		return Snapshot{}, serrors.IOFailed("read configuration", s.path, fmt.Errorf("%s is a directory", s.path))
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, serrors.IOFailed("read configuration", s.path, err)
	}
	return Snapshot{Data: data, Mode: info.Mode().Perm()}, nil
}

// Load reads and parses the document.
func (s *Store) Load() (*Document, Snapshot, error) {
	snap, err := s.Read()
	if err != nil {
		return nil, Snapshot{}, err
	}
	doc, err := Parse(snap.Data)
	if err != nil {
		if se, ok := serrors.As(err); ok {
			se.WithContext(serrors.ContextPath, s.path)
		}
		return nil, snap, err
	}
	return doc, snap, nil
}

// Backup durably writes snap to the backup path before any mutation.
func (s *Store) Backup(snap Snapshot) error {
	if err := WriteFileAtomic(s.BackupPath(), snap.Data, snap.Mode); err != nil {
		return serrors.IOFailed("write backup copy", s.BackupPath(), err)
	}
	slog.Info("Backup copy written", logfields.Path(s.BackupPath()))
	return nil
}

// Save atomically replaces the document with data, keeping mode.
func (s *Store) Save(data []byte, mode fs.FileMode) error {
	if err := WriteFileAtomic(s.path, data, mode); err != nil {
		return serrors.IOFailed("write configuration", s.path, err)
	}
	slog.Info("Configuration written", logfields.Path(s.path))
	return nil
}

// Restore copies the backup over the document atomically. The backup is kept.
func (s *Store) Restore() error {
	info, err := os.Stat(s.BackupPath())
	if err != nil {
		return serrors.IOFailed("read backup copy", s.BackupPath(), err)
	}
	data, err := os.ReadFile(s.BackupPath())
	if err != nil {
		return serrors.IOFailed("read backup copy", s.BackupPath(), err)
	}
	if err := WriteFileAtomic(s.path, data, info.Mode().Perm()); err != nil {
		return serrors.IOFailed("restore configuration", s.path, err)
	}
	slog.Info("Configuration restored from backup", logfields.Path(s.path))
	return nil
}

// WriteFileAtomic writes data to a temporary file in the target directory,
// syncs it, and renames it over path. Readers observe either the old or the
// new content, never a partial write. The temporary file is removed on failure.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	if perm == 0 {
		perm = 0o644
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				slog.Warn("Failed to remove temporary file", logfields.Path(tmpPath), logfields.Error(rmErr))
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename; not every platform supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
