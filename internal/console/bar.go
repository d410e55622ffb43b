package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/azmtag/nextcloud-share-downloader/internal/progress"
)

const redrawEvery = 100 * time.Millisecond

// Bar draws a single-line progress display for the running transfer,
// redrawn in place with a carriage return. It satisfies the transfer
// engine's Progress interface.
type Bar struct {
	out       io.Writer
	pathWidth int

	stats    *progress.Stats
	label    string
	total    int64
	lastDraw time.Time
}

// NewBar creates a progress bar writing to stdout.
func NewBar(pathWidth int) *Bar {
	return &Bar{out: os.Stdout, pathWidth: pathWidth, stats: progress.NewStats()}
}

func (b *Bar) Start(label string, total int64) {
	b.stats.Reset()
	b.label = label
	b.total = total
	b.lastDraw = time.Time{}
	b.draw(false)
}

func (b *Bar) Advance(n int64) {
	b.stats.Update(n)
	if time.Since(b.lastDraw) >= redrawEvery {
		b.draw(false)
	}
}

func (b *Bar) Finish() {
	b.draw(true)
	fmt.Fprintln(b.out)
}

func (b *Bar) draw(final bool) {
	now := time.Now()
	b.lastDraw = now
	r := b.stats.Snapshot(now, final)

	line := fmt.Sprintf("\r%s %12s", FormatPath(b.label, b.pathWidth), progress.FormatBytes(r.TotalBytes))
	if b.total > 0 {
		pct := float64(r.TotalBytes) / float64(b.total) * 100
		line += fmt.Sprintf(" / %-12s %5.1f%%", progress.FormatBytes(b.total), pct)
	}
	line += fmt.Sprintf(" %12s/s", progress.FormatBytes(int64(r.SpeedBps)))
	fmt.Fprint(b.out, line)
}
