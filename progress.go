package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v2"
)

// progressBar reports reader pool progress on the diagnostic stream.
// A nil *progressBar is valid and does nothing.
type progressBar struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// newProgressBar returns a bar writing to w, or nil when w is not a terminal
// or there is nothing to count.
func newProgressBar(w io.Writer, total int) *progressBar {
	f, ok := w.(*os.File)
	if !ok || total == 0 || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return &progressBar{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(40),
		),
		writer: w,
	}
}

func (p *progressBar) Increment() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.writer)
}
