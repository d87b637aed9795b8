package main

import "errors"

// FileCandidate is a filesystem entry considered for inclusion.
// RelPath always uses '/' separators and is the identity used for ordering,
// deduplication and display.
type FileCandidate struct {
	AbsPath  string
	RelPath  string
	Explicit bool // named directly on the command line rather than found by a scan
}

// ReadResult is produced by exactly one worker per accepted candidate.
type ReadResult struct {
	RelPath  string
	Content  string // empty in paths-only and tree modes
	Bytes    int64  // marker line plus content, as rendered
	Tokens   int
	TokensOK bool // false when no tokenizer was available
	Err      error
}

// RenderMode selects how the aggregated results are written.
type RenderMode int

const (
	ModeContent RenderMode = iota
	ModePathsOnly
	ModeMetrics
	ModeTree
)

func (m RenderMode) String() string {
	switch m {
	case ModeContent:
		return "content"
	case ModePathsOnly:
		return "paths-only"
	case ModeMetrics:
		return "metrics"
	case ModeTree:
		return "tree"
	default:
		return "unknown"
	}
}

// readsContent reports whether the mode needs file contents at all.
func (m RenderMode) readsContent() bool {
	return m == ModeContent || m == ModeMetrics
}

// Summary holds aggregated information about the processed items.
type Summary struct {
	TotalFiles      int
	TotalSize       int64
	TotalTokens     int
	TokensAvailable bool
	Failed          int
}

// Setup errors. Anything wrapping one of these is fatal for the run.
var (
	ErrNotFound       = errors.New("path not found")
	ErrNotADirectory  = errors.New("not a directory")
	ErrInvalidSize    = errors.New("invalid size")
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrOutputLocked   = errors.New("output file is locked by another process")
)
