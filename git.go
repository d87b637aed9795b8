package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitignore "github.com/monochromegane/go-gitignore"
)

// loadTrackedFiles returns the absolute paths of every file recorded in the
// index of the git repository containing dir. Only the local index is read.
func loadTrackedFiles(dir string) (map[string]struct{}, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository at %s has no worktree: %w", dir, err)
	}
	top, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read git index for %s: %w", top, err)
	}

	tracked := make(map[string]struct{}, len(idx.Entries))
	for _, e := range idx.Entries {
		tracked[filepath.Join(top, filepath.FromSlash(e.Name))] = struct{}{}
	}
	logger.Debugw("loaded git index", "repository", top, "files", len(tracked))
	return tracked, nil
}

// loadGitIgnore parses root/.gitignore. A missing file yields a nil matcher
// and no error.
func loadGitIgnore(root string) (gitignore.IgnoreMatcher, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	matcher, err := gitignore.NewGitIgnore(path)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return matcher, nil
}
