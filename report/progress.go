package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"

	"github.com/greynewell/intentbench/eval"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress draws a progress bar as rows complete. It implements
// eval.Observer. A nil *Progress is a valid no-op.
type Progress struct {
	w        io.Writer
	total    int
	bar      progress.Model
	interval time.Duration

	mu       sync.Mutex
	done     int
	failed   int
	last     time.Time
	finished bool
}

var _ eval.Observer = (*Progress)(nil)

// NewProgress creates a bar for total rows drawn to w.
func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{
		w:        w,
		total:    total,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		interval: 100 * time.Millisecond,
	}
}

// ObserveResult advances the bar.
func (p *Progress) ObserveResult(eval.Result) { p.tick(false) }

// ObserveFailure advances the bar and counts the failure.
func (p *Progress) ObserveFailure(eval.Failure) { p.tick(true) }

func (p *Progress) tick(failed bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if failed {
		p.failed++
	}
	if p.done == p.total || time.Since(p.last) >= p.interval {
		p.draw()
	}
}

// Finish draws the final state and ends the line.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.draw()
	fmt.Fprintln(p.w)
}

func (p *Progress) draw() {
	p.last = time.Now()
	pct := 1.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total)
	}
	fmt.Fprintf(p.w, "\r%s %d/%d", p.bar.ViewAs(pct), p.done, p.total)
	if p.failed > 0 {
		fmt.Fprintf(p.w, " (%d failed)", p.failed)
	}
}
