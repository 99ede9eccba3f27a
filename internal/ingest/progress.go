package ingest

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Phases reported through ProgressFunc.
const (
	PhaseDownload  = "download"
	PhasePartition = "partition"
	PhaseDone      = "done"
	PhaseError     = "error"
)

// Progress tracks ingest progress.
type Progress struct {
	Phase           string
	BytesDownloaded int64
	BytesTotal      int64
	BytesRead       int64
	RowsRead        int64
	RowsWritten     int64
	Chunks          int
	ShardsCreated   int
	StartTime       time.Time
	Error           error
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// progressReader wraps an io.Reader to track bytes read.
type progressReader struct {
	r    io.Reader
	read *atomic.Int64
}

func newProgressReader(r io.Reader, counter *atomic.Int64) *progressReader {
	return &progressReader{r: r, read: counter}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read.Add(int64(n))
	return n, err
}

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// NewPrinter returns a ProgressFunc that renders progress lines to w,
// rewriting the current line until a phase completes.
func NewPrinter(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case PhaseDownload:
			pct := float64(0)
			if p.BytesTotal > 0 {
				pct = float64(p.BytesDownloaded) / float64(p.BytesTotal) * 100
			}
			fmt.Fprintf(w, "\r[Download] %s / %s (%.1f%%)",
				FormatBytes(p.BytesDownloaded), FormatBytes(p.BytesTotal), pct)
		case PhasePartition:
			fmt.Fprintf(w, "\r[Partition] %d rows in %d chunks, %s read",
				p.RowsWritten, p.Chunks, FormatBytes(p.BytesRead))
		case PhaseDone:
			fmt.Fprintf(w, "\n[Done] %d rows, %d shards created (%s)\n",
				p.RowsWritten, p.ShardsCreated, FormatDuration(time.Since(p.StartTime)))
		case PhaseError:
			fmt.Fprintf(w, "\n[Error] %v\n", p.Error)
		}
	}
}
