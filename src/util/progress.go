package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
	"github.com/schollz/progressbar/v3"
)

const (
	progressPrefixWidth = 56
	progressBarWidth    = 32
)

// ProgressLogger tracks and renders progress for row, chunk and byte counts.
// A nil *ProgressLogger is valid and only drops the updates.
type ProgressLogger struct {
	totalRows int64
	action    string
	interval  time.Duration
	out       io.Writer

	rows   atomic.Int64
	chunks atomic.Int64
	bytes  atomic.Int64

	bar      *progressbar.ProgressBar
	done     chan struct{}
	finished sync.WaitGroup
	stopOnce sync.Once
}

// NewProgressLogger creates a progress logger that renders to stderr once
// started.
func NewProgressLogger(totalRows int64, action string, interval time.Duration) *ProgressLogger {
	return &ProgressLogger{
		totalRows: totalRows,
		action:    action,
		interval:  interval,
		out:       os.Stderr,
		done:      make(chan struct{}),
	}
}

// UpdateRows increments the row counter.
func (p *ProgressLogger) UpdateRows(delta int64) {
	if p == nil || delta == 0 {
		return
	}
	p.rows.Add(delta)
}

// UpdateChunks increments the finished chunk counter.
func (p *ProgressLogger) UpdateChunks(delta int64) {
	if p == nil || delta == 0 {
		return
	}
	p.chunks.Add(delta)
}

// UpdateBytes increments the byte counter.
func (p *ProgressLogger) UpdateBytes(delta int64) {
	if p == nil || delta == 0 {
		return
	}
	p.bytes.Add(delta)
}

// Snapshot returns the current row, chunk and byte counts.
func (p *ProgressLogger) Snapshot() (rows, chunks, bytes int64) {
	if p == nil {
		return 0, 0, 0
	}
	return p.rows.Load(), p.chunks.Load(), p.bytes.Load()
}

// Start renders the bar until Stop is called or every row is counted.
func (p *ProgressLogger) Start() {
	if p == nil || p.totalRows <= 0 {
		return
	}

	p.bar = newRowProgressBar(p.out, p.totalRows, p.action)
	p.finished.Add(1)

	go func() {
		defer p.finished.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		prevRows := p.rows.Load()
		prevBytes := p.bytes.Load()
		prevTime := time.Now()
		lastDesc := ""

		for {
			stopping := false
			select {
			case <-ticker.C:
			case <-p.done:
				stopping = true
			}

			curRows := p.rows.Load()
			curBytes := p.bytes.Load()
			now := time.Now()
			elapsed := now.Sub(prevTime).Seconds()

			rowsDelta := max(curRows-prevRows, 0)
			bytesPerSec := progressRate(curBytes-prevBytes, elapsed)
			desc := progressDescription(p.action, p.chunks.Load(), curBytes, bytesPerSec)
			if desc != lastDesc {
				p.bar.Describe(desc)
				lastDesc = desc
			}
			if rowsDelta > 0 {
				_ = p.bar.Add64(rowsDelta)
			}

			prevRows = curRows
			prevBytes = curBytes
			prevTime = now

			if curRows >= p.totalRows || stopping {
				_ = p.bar.Finish()
				return
			}
		}
	}()
}

// Stop finishes the bar and waits for the render loop to exit.
func (p *ProgressLogger) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() { close(p.done) })
	p.finished.Wait()
}

func progressRate(delta int64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(delta) / elapsedSeconds
}

func newRowProgressBar(out io.Writer, totalRows int64, action string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalRows,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(progressDescription(action, 0, 0, 0)),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[light_magenta]━",
			SaucerHead:    "[light_magenta]╸",
			SaucerPadding: "[dark_gray]━",
			BarStart:      "",
			BarEnd:        "[reset]",
		}),
	)
}

func progressDescription(action string, chunks, bytes int64, bytesPerSec float64) string {
	prefix := fmt.Sprintf(
		"%s %d chunks %s (%s/s)",
		action,
		chunks,
		units.BytesSize(float64(bytes)),
		units.BytesSize(bytesPerSec),
	)
	return padOrTrim(prefix, progressPrefixWidth) + " "
}

func padOrTrim(s string, width int) string {
	if width <= 0 {
		return s
	}
	if len(s) > width {
		if width <= 3 {
			return s[:width]
		}
		return s[:width-3] + "..."
	}
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s
}
