package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanEntry is one filesystem entry found below a scan root.
type ScanEntry struct {
	AbsPath string
	RelPath string // '/'-separated, relative to the scan root
	IsDir   bool
}

// scanDirectory walks root recursively and returns every entry below it,
// directories included. Unreadable subtrees are reported and skipped; only a
// missing or non-directory root is an error. The order of the result is not
// significant.
func scanDirectory(root string) ([]ScanEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("error accessing path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var entries []ScanEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warnw("error scanning directory, continuing", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			logger.Warnw("could not compute relative path", "path", path, "error", err)
			return nil
		}
		entries = append(entries, ScanEntry{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			IsDir:   d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	return entries, nil
}

// collectOptions configures candidate collection across all inputs.
type collectOptions struct {
	Filter     FilterConfig
	GitIgnore  bool // honour each scanned root's .gitignore
	GitTracked bool // keep only files present in the git index
	WorkDir    string
	Outputs    []string // absolute paths this run writes to; never packed
}

// collector accumulates accepted candidates across inputs. The first input
// that yields a given file or relative path wins.
type collector struct {
	opts       collectOptions
	seenAbs    map[string]struct{}
	seenRel    map[string]struct{}
	candidates []FileCandidate
	skipped    map[SkipReason]int
}

// collectCandidates scans and filters every input path and returns the
// accepted candidates sorted by relative path.
func collectCandidates(inputs []string, opts collectOptions) ([]FileCandidate, error) {
	c := &collector{
		opts:    opts,
		seenAbs: make(map[string]struct{}),
		seenRel: make(map[string]struct{}),
		skipped: make(map[SkipReason]int),
	}
	// Marking the outputs as seen keeps a run from packing its own result.
	for _, out := range opts.Outputs {
		c.seenAbs[out] = struct{}{}
	}

	for _, input := range inputs {
		if err := c.addInput(input); err != nil {
			return nil, err
		}
	}

	sort.Slice(c.candidates, func(i, j int) bool {
		return c.candidates[i].RelPath < c.candidates[j].RelPath
	})

	for reason, n := range c.skipped {
		logger.Debugw("skipped files", "reason", string(reason), "count", n)
	}
	return c.candidates, nil
}

func (c *collector) addInput(input string) error {
	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", input, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, input)
		}
		return fmt.Errorf("error accessing path %s: %w", input, err)
	}

	cfg := c.opts.Filter
	switch {
	case info.IsDir():
		if err := c.prepareRoot(&cfg, abs, abs); err != nil {
			return err
		}
		logger.Infow("scanning directory", "path", abs)
		entries, err := scanDirectory(abs)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir {
				c.skipped[SkipNotRegular]++
				continue
			}
			c.consider(FileCandidate{AbsPath: e.AbsPath, RelPath: e.RelPath}, &cfg)
		}
	case info.Mode().IsRegular():
		if err := c.prepareRoot(&cfg, filepath.Dir(abs), ""); err != nil {
			return err
		}
		cand := FileCandidate{AbsPath: abs, RelPath: c.explicitRelPath(abs), Explicit: true}
		if !c.consider(cand, &cfg) {
			logger.Infow("ignoring explicitly provided file", "path", input)
		}
	default:
		return fmt.Errorf("%w: %s is neither a regular file nor a directory", ErrNotADirectory, input)
	}
	return nil
}

// prepareRoot attaches the per-root selectors to cfg. gitRoot is empty for
// explicit files, whose directory's .gitignore is not consulted.
func (c *collector) prepareRoot(cfg *FilterConfig, dir, gitRoot string) error {
	if c.opts.GitIgnore && gitRoot != "" {
		matcher, err := loadGitIgnore(gitRoot)
		if err != nil {
			logger.Warnw("ignoring unreadable .gitignore", "root", gitRoot, "error", err)
		}
		if matcher != nil {
			cfg.Ignore = matcher
			cfg.IgnoreDir = gitRoot
		}
	}
	if c.opts.GitTracked {
		tracked, err := loadTrackedFiles(dir)
		if err != nil {
			return err
		}
		cfg.Tracked = tracked
	}
	return nil
}

// consider filters one candidate and records it if accepted.
func (c *collector) consider(cand FileCandidate, cfg *FilterConfig) bool {
	if _, dup := c.seenAbs[cand.AbsPath]; dup {
		return false
	}
	if skip, reason := shouldSkip(cand, cfg); skip {
		c.skipped[reason]++
		logger.Debugw("skipping file", "path", cand.RelPath, "reason", string(reason))
		return false
	}
	if _, dup := c.seenRel[cand.RelPath]; dup {
		logger.Warnw("duplicate relative path, keeping the first input's file", "path", cand.RelPath, "file", cand.AbsPath)
		return false
	}
	c.seenAbs[cand.AbsPath] = struct{}{}
	c.seenRel[cand.RelPath] = struct{}{}
	c.candidates = append(c.candidates, cand)
	return true
}

// explicitRelPath names an explicitly provided file relative to the working
// directory, falling back to its base name when it lives outside it.
func (c *collector) explicitRelPath(abs string) string {
	if c.opts.WorkDir != "" {
		if rel, err := filepath.Rel(c.opts.WorkDir, abs); err == nil && rel != ".." &&
			!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(abs)
}
