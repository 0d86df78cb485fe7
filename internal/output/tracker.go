package output

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/tanq16/leccap/internal/scheduler"
	"github.com/tanq16/leccap/internal/utils"
)

// BarProgress draws one progress bar per job, for sequential batches.
type BarProgress struct {
	out io.Writer
}

func NewBarProgress(out io.Writer) *BarProgress {
	return &BarProgress{out: out}
}

func (b *BarProgress) Track(job utils.DownloadJob) scheduler.JobTracker {
	fmt.Fprintf(b.out, "downloading %s from %s\n", job.OutputPath, job.URL)
	return &barTracker{out: b.out, name: job.Name}
}

type barTracker struct {
	out  io.Writer
	name string
	bar  *progressbar.ProgressBar
}

// Start with total -1 yields a spinner with a running byte count.
func (t *barTracker) Start(total int64) {
	t.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(t.name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionUseIECUnits(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (t *barTracker) Add(n int) {
	if t.bar != nil {
		t.bar.Add(n)
	}
}

func (t *barTracker) Finish(result utils.JobResult) {
	if t.bar != nil {
		if result.Status == utils.JobCompleted {
			t.bar.Finish()
		} else {
			t.bar.Exit()
		}
		fmt.Fprintln(t.out)
	}
	if result.Status == utils.JobFailed {
		fmt.Fprintln(t.out, FError(fmt.Sprintf("  %s %s: %v", StyleSymbols["fail"], t.name, result.Err)))
	}
}
