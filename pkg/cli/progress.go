package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const progressBarWidth = 30

// Progress renders a single-line counter for batch operations such as
// seeding. It is not safe for concurrent use; drive it from the
// command goroutine.
type Progress struct {
	w       io.Writer
	total   int
	done    int
	started time.Time
}

// NewProgress creates a progress line for total items, written to w.
// A nil w defaults to os.Stdout.
func NewProgress(w io.Writer, total int) *Progress {
	if w == nil {
		w = os.Stdout
	}
	p := &Progress{w: w, total: total, started: time.Now()}
	p.render()
	return p
}

// Advance records n more completed items and redraws the line.
func (p *Progress) Advance(n int) {
	p.done += n
	if p.done > p.total {
		p.done = p.total
	}
	p.render()
}

// Done completes the line and prints the elapsed time.
func (p *Progress) Done() {
	p.done = p.total
	p.render()
	fmt.Fprintf(p.w, " in %s\n", time.Since(p.started).Round(time.Millisecond))
}

// Fail breaks the line and reports the error.
func (p *Progress) Fail(err error) {
	fmt.Fprintf(p.w, "\n✗ %v\n", err)
}

func (p *Progress) render() {
	if p.total <= 0 {
		return
	}
	filled := p.done * progressBarWidth / p.total
	var bar strings.Builder
	bar.WriteString(strings.Repeat("=", filled))
	if filled < progressBarWidth {
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", progressBarWidth-filled-1))
	}
	rate := float64(p.done) / time.Since(p.started).Seconds()
	fmt.Fprintf(p.w, "\r[%s] %d/%d deals (%.0f deals/s)", bar.String(), p.done, p.total, rate)
}
