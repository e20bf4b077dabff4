package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"audioscribe/internal/batch"
)

// progressReporter renders per-file completion. On a terminal it drives a
// progress bar; otherwise it prints one line per finished file.
type progressReporter struct {
	out     io.Writer
	enabled bool

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
	done  int
}

func newProgressReporter(out io.Writer, enabled bool) *progressReporter {
	return &progressReporter{out: out, enabled: enabled}
}

func (p *progressReporter) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	if !p.enabled || total == 0 || !isTerminal(p.out) {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("transcribing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressReporter) Done(result batch.FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.bar != nil {
		p.bar.Describe(filepath.Base(result.Job.Source))
		_ = p.bar.Add(1)
		return
	}
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "[%d/%d] %-9s %s\n", p.done, p.total, result.Status, filepath.Base(result.Job.Source))
}

func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
