package mkdocs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mkdocs.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStore_LoadAndSnapshot(t *testing.T) {
	path := writeConfig(t, fullConfig)
	s := NewStore(path)

	doc, snap, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, fullConfig, string(snap.Data))
	assert.Equal(t, os.FileMode(0o640), snap.Mode)
	assert.True(t, doc.Has(KeyTheme))
	assert.Equal(t, path+BackupSuffix, s.BackupPath())
}

func TestStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewStore("").Path())
}

func TestStore_LoadMissingIsIOError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.yml"))
	_, _, err := s.Load()
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryIO))
}

func TestStore_LoadDirectoryIsIOError(t *testing.T) {
	s := NewStore(t.TempDir())
	_, _, err := s.Load()
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryIO))
}

func TestStore_ParseFailureCreatesNoFiles(t *testing.T) {
	const broken = "site_name: Docs\ntheme: [unclosed\n"
	path := writeConfig(t, broken)
	s := NewStore(path)

	_, _, err := s.Load()
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryParse))
	se, ok := serrors.As(err)
	require.True(t, ok)
	assert.Equal(t, path, se.ContextString(serrors.ContextPath))

	assert.Equal(t, []string{"mkdocs.yml"}, dirEntries(t, filepath.Dir(path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))
}

func TestStore_BackupThenSave(t *testing.T) {
	path := writeConfig(t, fullConfig)
	s := NewStore(path)

	doc, snap, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Backup(snap))

	data, err := Render(doc, DefaultReplacement())
	require.NoError(t, err)
	require.NoError(t, s.Save(data, snap.Mode))

	backup, err := os.ReadFile(s.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, fullConfig, string(backup))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(written))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	assert.ElementsMatch(t, []string{"mkdocs.yml", "mkdocs.yml.bak"}, dirEntries(t, filepath.Dir(path)))
}

func TestStore_SaveToMissingDirectoryIsIOError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing", "mkdocs.yml"))
	err := s.Save([]byte("site_name: x\n"), 0o644)
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryIO))
}

func TestStore_Restore(t *testing.T) {
	path := writeConfig(t, fullConfig)
	s := NewStore(path)
	_, snap, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Backup(snap))
	require.NoError(t, s.Save([]byte("site_name: changed\n"), snap.Mode))

	require.NoError(t, s.Restore())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fullConfig, string(data))
	_, err = os.Stat(s.BackupPath())
	assert.NoError(t, err, "backup is kept after restore")
}

func TestStore_RestoreWithoutBackup(t *testing.T) {
	s := NewStore(writeConfig(t, fullConfig))
	err := s.Restore()
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryIO))
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.yml")
	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.Equal(t, []string{"file.yml"}, dirEntries(t, filepath.Dir(path)))
}

func TestWriteFileAtomic_RenameFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	// a non-empty directory cannot be replaced by a file
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o750))

	err := WriteFileAtomic(target, []byte("data"), 0o644)
	require.Error(t, err)
	assert.Equal(t, []string{"target"}, dirEntries(t, dir))
}
