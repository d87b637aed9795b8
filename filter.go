package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/monochromegane/go-gitignore"
)

// matchAllPattern is the include pattern that disables include filtering.
const matchAllPattern = "*"

// FilterConfig is supplied once at the start of a run and read-only afterwards.
type FilterConfig struct {
	Include     string
	Exclude     string
	MaxFileSize int64
	SkipHidden  bool
	SkipBinary  bool
	// ProbeContent enables the null-byte probe. Without it only the
	// extension table is consulted and file contents are never opened.
	ProbeContent bool

	// Optional selectors; zero values disable them.
	Languages map[string]struct{}
	LangData  *LoadedLanguageData
	Ignore    gitignore.IgnoreMatcher
	IgnoreDir string // directory holding the .gitignore behind Ignore
	Tracked   map[string]struct{}
}

func defaultFilterConfig() FilterConfig {
	return FilterConfig{
		Include:      matchAllPattern,
		MaxFileSize:  defaultMaxFileSize,
		SkipHidden:   true,
		SkipBinary:   true,
		ProbeContent: true,
	}
}

// validate rejects malformed glob patterns before any scanning starts.
func (c *FilterConfig) validate() error {
	for _, p := range []string{c.Include, c.Exclude} {
		if p != "" && !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("%w: max file size must not be negative", ErrInvalidSize)
	}
	return nil
}

func (c *FilterConfig) includesEverything() bool {
	return c.Include == "" || c.Include == matchAllPattern
}

// SkipReason names the rule that rejected a candidate.
type SkipReason string

const (
	NotSkipped      SkipReason = ""
	SkipNotRegular  SkipReason = "not a regular file"
	SkipTooLarge    SkipReason = "file too large"
	SkipExcluded    SkipReason = "matches exclude pattern"
	SkipNotIncluded SkipReason = "does not match include pattern"
	SkipLanguage    SkipReason = "language not selected"
	SkipGitIgnored  SkipReason = "ignored by .gitignore"
	SkipUntracked   SkipReason = "not tracked by git"
	SkipHidden      SkipReason = "hidden file or directory"
	SkipBinary      SkipReason = "likely non-text"
)

// shouldSkip applies the filter rules in a fixed order and stops at the first
// one that rejects the candidate. Cheap metadata checks run first; the
// content probe runs last.
func shouldSkip(c FileCandidate, cfg *FilterConfig) (bool, SkipReason) {
	info, err := os.Stat(c.AbsPath)
	if err != nil || !info.Mode().IsRegular() {
		return true, SkipNotRegular
	}

	if info.Size() > cfg.MaxFileSize {
		return true, SkipTooLarge
	}

	base := path.Base(c.RelPath)

	if cfg.Exclude != "" && (matchGlob(cfg.Exclude, c.RelPath) || matchGlob(cfg.Exclude, base)) {
		return true, SkipExcluded
	}

	if !cfg.includesEverything() && !matchGlob(cfg.Include, c.RelPath) && !matchGlob(cfg.Include, base) {
		return true, SkipNotIncluded
	}

	if len(cfg.Languages) > 0 {
		lang, ok := cfg.LangData.GetLanguageForFile(base)
		if _, selected := cfg.Languages[lang]; !ok || !selected {
			return true, SkipLanguage
		}
	}

	if cfg.gitIgnored(c.AbsPath) {
		return true, SkipGitIgnored
	}

	if cfg.Tracked != nil {
		if _, ok := cfg.Tracked[c.AbsPath]; !ok {
			return true, SkipUntracked
		}
	}

	if cfg.SkipHidden && !c.Explicit && isHiddenPath(c.RelPath) {
		return true, SkipHidden
	}

	if cfg.SkipBinary {
		if cfg.ProbeContent {
			if isBinary(c.AbsPath) {
				return true, SkipBinary
			}
		} else if hasBinaryExtension(c.AbsPath) {
			return true, SkipBinary
		}
	}

	return false, NotSkipped
}

// matchGlob matches name against a validated doublestar pattern.
func matchGlob(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// isHiddenPath reports whether the file or any ancestor below the scan root
// starts with a dot. relPath never contains the root's own name.
func isHiddenPath(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if isHidden(seg) {
			return true
		}
	}
	return false
}

// isHidden checks if a single path segment is hidden (starts with '.').
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}

// gitIgnored reports whether abs, or any directory between it and IgnoreDir,
// matches the .gitignore. Directory-only rules such as "build/" only match
// when the directory itself is tested.
func (cfg *FilterConfig) gitIgnored(abs string) bool {
	if cfg.Ignore == nil {
		return false
	}
	if cfg.Ignore.Match(abs, false) {
		return true
	}
	if cfg.IgnoreDir == "" {
		return false
	}
	root := filepath.Clean(cfg.IgnoreDir)
	for dir := filepath.Dir(abs); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
		if cfg.Ignore.Match(dir, true) {
			return true
		}
	}
	return false
}
