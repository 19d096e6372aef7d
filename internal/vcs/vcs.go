// Package vcs reports whether the configuration document is under git
// version control, so failure messages can offer `git checkout` as a second
// recovery path next to the backup copy.
package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Status describes the configuration file's standing in its repository.
type Status struct {
	InRepository bool
	RepoRoot     string
	RelPath      string // slash-separated path inside the repository
	Tracked      bool
	Clean        bool // content equals the staged index entry
}

// RestoreHint returns the git command that restores the committed file, or
// "" when git cannot help.
func (s Status) RestoreHint() string {
	if !s.Tracked {
		return ""
	}
	return fmt.Sprintf("git -C %s checkout -- %s", s.RepoRoot, s.RelPath)
}

// Inspect opens the repository containing path, if any. A file outside any
// repository is not an error.
func Inspect(path string) (Status, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Status{}, err
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree to restore from
		return Status{InRepository: true}, nil
	}
	root := wt.Filesystem.Root()
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return Status{}, err
	}
	st := Status{InRepository: true, RepoRoot: root, RelPath: filepath.ToSlash(rel)}

	idx, err := repo.Storer.Index()
	if err != nil {
		return st, fmt.Errorf("read index: %w", err)
	}
	entry, err := idx.Entry(st.RelPath)
	if err != nil {
		return st, nil
	}
	st.Tracked = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return st, err
	}
	st.Clean = plumbing.ComputeHash(plumbing.BlobObject, data) == entry.Hash
	return st, nil
}
