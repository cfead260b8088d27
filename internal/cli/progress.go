package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/fileindex/internal/index"
)

// eventSource is the subscription half of the indexer.
type eventSource interface {
	Subscribe(buffer int) *index.Subscription
	Unsubscribe(sub *index.Subscription)
}

// CLIProgressReporter renders scan progress from index events as a spinner
// with a running entry count.
type CLIProgressReporter struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	src  eventSource
	sub  *index.Subscription
	done chan struct{}
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{out: out}
}

// Attach subscribes to src and renders events until Detach.
func (c *CLIProgressReporter) Attach(src eventSource) {
	c.src = src
	c.sub = src.Subscribe(64)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		for ev := range c.sub.C {
			c.handle(ev)
		}
	}()
}

// Detach unsubscribes and finishes any bar still on screen.
func (c *CLIProgressReporter) Detach() {
	if c.sub == nil {
		return
	}
	c.src.Unsubscribe(c.sub)
	<-c.done
	c.sub = nil
	c.finish()
}

func (c *CLIProgressReporter) handle(ev index.Event) {
	switch ev.Progress.Status {
	case index.StatusScanning:
		if c.bar == nil {
			c.bar = c.newBar()
		}
		if ev.Kind == index.EventProgress {
			_ = c.bar.Set(ev.Progress.IndexedCount)
		}
	default:
		c.finish()
	}
}

func (c *CLIProgressReporter) finish() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Finish()
	c.bar = nil
}

func (c *CLIProgressReporter) newBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("entries/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}
