package explore

import (
	"os"
	"time"

	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"
)

// Progress receives Run's step notifications.
type Progress interface {
	// Start announces the number of steps.
	Start(total int)
	// Step marks one step as finished.
	Step(name string)
	// Done releases the sink; it is called once, even after a failure.
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(int)   {}
func (nopProgress) Step(string) {}
func (nopProgress) Done()       {}

// BarProgress draws a progress bar on the terminal.
type BarProgress struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	start time.Time
	total int
	seen  int
}

// NewBarProgress returns a terminal progress bar, or a silent Progress when
// stdout is not a terminal.
func NewBarProgress() Progress {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return nopProgress{}
	}
	return &BarProgress{p: mpb.New(mpb.WithWidth(width))}
}

// Start implements Progress.
func (b *BarProgress) Start(total int) {
	b.total = total
	b.start = time.Now()
	b.bar = b.p.AddBar(int64(total),
		mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
		mpb.PrependDecorators(decor.Name("liverscope")),
		mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
		mpb.BarRemoveOnComplete())
}

// Step implements Progress.
func (b *BarProgress) Step(string) {
	if b.bar == nil {
		return
	}
	b.seen++
	b.bar.IncrBy(1, time.Since(b.start))
}

// Done implements Progress.
func (b *BarProgress) Done() {
	if b.bar != nil && b.seen < b.total {
		// complete the bar so Wait returns after a failed step
		b.bar.IncrBy(b.total-b.seen, time.Since(b.start))
	}
	b.p.Wait()
}
