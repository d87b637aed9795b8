package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// run executes one aggregation: collect, read, aggregate, render. stdout is
// the primary output stream and stderr carries the progress bar.
func run(ctx context.Context, opts *options, stdout *os.File, stderr io.Writer) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine working directory: %w", err)
	}

	langData, err := loadLanguageData(userConfigDirs())
	if err != nil {
		return err
	}
	opts.Filter.LangData = langData
	if opts.Languages != "" {
		langs, err := langData.resolveLanguages(opts.Languages)
		if err != nil {
			return err
		}
		opts.Filter.Languages = langs
	}

	inputs := opts.Inputs
	if opts.Interactive {
		inputs, err = runInteractiveFinder(".", !opts.Filter.SkipHidden)
		if err != nil {
			return fmt.Errorf("interactive mode error: %w", err)
		}
		if inputs == nil {
			logger.Info("selection aborted, nothing to do")
			return nil
		}
		logger.Infow("processing interactively selected paths", "paths", inputs)
	}

	// The destination is locked and opened before any scanning so that an
	// unusable output fails the run without partial work. An existing file
	// is only truncated once collection has succeeded.
	var sink *Sink
	var outputs []string
	if opts.PDF != "" {
		abs, err := filepath.Abs(opts.PDF)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", opts.PDF, err)
		}
		outputs = append(outputs, abs)
	} else {
		sinkOpts := opts.Sink
		sinkOpts.Stdout = stdout
		sinkOpts.WorkDir = workDir
		sink, err = openSink(sinkOpts)
		if err != nil {
			return err
		}
		defer sink.Close()
		if sink.file != nil {
			outputs = append(outputs, sink.file.Name(), sink.lock.Path())
		}
	}
	for i, out := range outputs {
		if abs, err := filepath.Abs(out); err == nil {
			outputs[i] = abs
		}
	}

	candidates, err := collectCandidates(inputs, collectOptions{
		Filter:     opts.Filter,
		GitIgnore:  opts.GitIgnore,
		GitTracked: opts.GitTracked,
		WorkDir:    workDir,
		Outputs:    outputs,
	})
	if err != nil {
		return err
	}
	logger.Infow("collected files", "count", len(candidates), "mode", opts.Mode.String())
	if sink != nil {
		if err := sink.Begin(); err != nil {
			return err
		}
	}

	countTokens := opts.Mode == ModeMetrics || (opts.CountTokens && opts.Mode == ModeContent)
	var tokenizer Tokenizer
	if countTokens {
		tokenizer, err = newTokenizer(opts.Tokenizer)
		if err != nil {
			logger.Warnw("token counting unavailable", "error", err)
			tokenizer = nil
		} else {
			defer tokenizer.Close()
		}
	}

	results := readFiles(ctx, candidates, ReadOptions{
		Workers:        opts.Workers,
		Mode:           opts.Mode,
		Tokenizer:      tokenizer,
		CountTokens:    countTokens,
		HTMLToMarkdown: opts.HTMLToMarkdown,
		Progress:       progressFor(stderr, opts, len(candidates)),
	})
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	agg := aggregate(results)
	if agg.Summary.Failed > 0 {
		logger.Warnw("some files could not be read and were left out", "count", agg.Summary.Failed)
	}

	if opts.PDF != "" {
		if err := generatePDF(agg, langData, opts.PDF); err != nil {
			return err
		}
		printSummary(stderr, opts, agg.Summary, opts.PDF, "")
		return nil
	}

	if err := agg.Render(sink, opts.Mode); err != nil {
		if isBrokenPipe(err) {
			logger.Debugw("output closed early by reader", "error", err)
			return nil
		}
		return fmt.Errorf("error writing output: %w", err)
	}
	if err := sink.Close(); err != nil {
		if isBrokenPipe(err) {
			return nil
		}
		return err
	}
	printSummary(stderr, opts, agg.Summary, sink.Name, sink.Digest())
	return nil
}

func progressFor(w io.Writer, opts *options, total int) *progressBar {
	if opts.Quiet || !opts.Mode.readsContent() {
		return nil
	}
	return newProgressBar(w, total)
}

// printSummary writes the one-line run summary to w unless quiet.
func printSummary(w io.Writer, opts *options, s Summary, dest, digest string) {
	if opts.Quiet {
		return
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	line := fmt.Sprintf("%s %d files (%s) to %s", green("Packed"), s.TotalFiles, formatSize(s.TotalSize), dest)
	if opts.Mode == ModeMetrics || opts.CountTokens {
		line += fmt.Sprintf(", %s tokens", tokenCount(s.TotalTokens, s.TokensAvailable))
	}
	if s.Failed > 0 {
		line += color.YellowString(", %d unreadable", s.Failed)
	}
	fmt.Fprintln(w, line)
	if digest != "" {
		logger.Debugw("output digest", "xxhash", digest)
	}
}
