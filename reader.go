package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
)

// ReadOptions configures the reader pool.
type ReadOptions struct {
	Workers        int // defaults to runtime.NumCPU() when < 1
	Mode           RenderMode
	Tokenizer      Tokenizer // nil means token counting is unavailable
	CountTokens    bool
	HTMLToMarkdown bool
	Progress       *progressBar

	// read loads one file's decoded content. Tests replace it to control
	// completion order; nil means readFileContent.
	read func(FileCandidate) (string, error)
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

// readFiles produces one ReadResult per candidate. Results come back in
// completion order, not submission order. Modes that don't need content
// return immediately without touching the files.
func readFiles(ctx context.Context, candidates []FileCandidate, opts ReadOptions) []ReadResult {
	results := make([]ReadResult, 0, len(candidates))
	if !opts.Mode.readsContent() {
		for _, c := range candidates {
			results = append(results, ReadResult{RelPath: c.RelPath})
		}
		return results
	}
	if len(candidates) == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers()
	}
	read := opts.read
	if read == nil {
		read = func(c FileCandidate) (string, error) { return readFileContent(c.AbsPath) }
	}
	logger.Debugw("starting reader pool", "workers", workers, "files", len(candidates))

	jobs := make(chan FileCandidate)
	out := make(chan ReadResult)

	// Each worker pulls the next job as soon as it is free, so faster
	// workers absorb more of the queue.
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for c := range jobs {
				out <- processCandidate(c, read, &opts)
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, c := range candidates {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = g.Wait()
		close(out)
	}()

	for r := range out {
		results = append(results, r)
		opts.Progress.Increment()
	}
	opts.Progress.Finish()
	return results
}

// processCandidate reads and measures a single file. Failures are logged and
// carried in the result; they never stop the pool.
func processCandidate(c FileCandidate, read func(FileCandidate) (string, error), opts *ReadOptions) ReadResult {
	content, err := read(c)
	if err != nil {
		logger.Warnw("could not read file", "path", c.RelPath, "error", err)
		return ReadResult{RelPath: c.RelPath, Err: err}
	}

	if opts.HTMLToMarkdown && isHTMLFile(c.RelPath) {
		md, err := htmlToMarkdown(content)
		if err != nil {
			logger.Warnw("HTML to Markdown conversion failed, keeping raw HTML", "path", c.RelPath, "error", err)
		} else {
			content = md
		}
	}

	marker := markerLine(c.RelPath)
	r := ReadResult{
		RelPath: c.RelPath,
		Content: content,
		Bytes:   int64(len(marker) + len(content)),
	}
	if opts.CountTokens && opts.Tokenizer != nil {
		n, err := opts.Tokenizer.CountTokens(marker + content)
		if err != nil {
			logger.Warnw("token counting failed", "path", c.RelPath, "error", err)
		} else {
			r.Tokens = n
			r.TokensOK = true
		}
	}
	return r
}

// readFileContent reads a whole file as text. Invalid UTF-8 sequences are
// replaced with U+FFFD instead of failing the read.
func readFileContent(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return string(decoded), nil
}
