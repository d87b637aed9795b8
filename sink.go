package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
)

// defaultOutputFilename is used when stdout is an interactive terminal.
const defaultOutputFilename = "output.txt"

// SinkOptions selects the output destination.
type SinkOptions struct {
	File      string   // explicit output file; wins over everything else
	Clipboard bool     // copy the output to the clipboard on Close
	Stdout    *os.File // usually os.Stdout
	WorkDir   string   // where the default output file is created
}

// Sink is the primary output destination. Everything written to it is also
// hashed so identical runs can be compared from the logs.
type Sink struct {
	Name   string
	w      io.Writer
	file   *os.File
	lock   *flock.Flock
	clip   *bytes.Buffer
	digest *xxhash.Digest

	created bool // the output file did not exist before this run
	begun   bool
	closed  bool
}

// openSink picks the destination: an explicit file, the clipboard, the
// default file when stdout is a terminal, or stdout itself.
func openSink(opts SinkOptions) (*Sink, error) {
	s := &Sink{digest: xxhash.New()}

	switch {
	case opts.File != "":
		return s, s.openFile(opts.File)
	case opts.Clipboard:
		s.Name = "clipboard"
		s.clip = &bytes.Buffer{}
		s.w = s.clip
		return s, nil
	case isTerminal(opts.Stdout):
		return s, s.openFile(filepath.Join(opts.WorkDir, defaultOutputFilename))
	default:
		s.Name = "stdout"
		s.w = opts.Stdout
		return s, nil
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openFile locks path.lock and opens path for writing without touching its
// contents, so a run that fails before Begin leaves an existing file intact.
func (s *Sink) openFile(path string) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock output file %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}

	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
		return fmt.Errorf("could not open output file %s: %w", path, err)
	}
	s.Name = path
	s.file = f
	s.lock = lock
	s.created = errors.Is(statErr, fs.ErrNotExist)
	s.w = f
	return nil
}

// Begin truncates a file destination before the first write. Writes call it
// implicitly; calling it explicitly also empties the file when nothing is
// written.
func (s *Sink) Begin() error {
	if s.file == nil || s.begun {
		return nil
	}
	s.begun = true
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("could not truncate output file %s: %w", s.Name, err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("could not rewind output file %s: %w", s.Name, err)
	}
	return nil
}

func (s *Sink) Write(p []byte) (int, error) {
	if err := s.Begin(); err != nil {
		return 0, err
	}
	n, err := s.w.Write(p)
	s.digest.Write(p[:n])
	return n, err
}

// Digest is the xxhash of everything written so far.
func (s *Sink) Digest() string {
	return fmt.Sprintf("%016x", s.digest.Sum64())
}

// Close flushes the clipboard or closes the file and releases its lock. A
// file this run created but never began writing is removed again.
// Calls after the first do nothing.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.clip != nil {
		if err := clipboard.WriteAll(s.clip.String()); err != nil {
			return fmt.Errorf("error writing to clipboard: %w", err)
		}
		return nil
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	if !s.begun && s.created {
		_ = os.Remove(s.Name)
	}
	if uerr := s.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	_ = os.Remove(s.lock.Path())
	return err
}

// isBrokenPipe reports whether err came from writing to a closed pipe, which
// ends the run quietly rather than as a failure.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
