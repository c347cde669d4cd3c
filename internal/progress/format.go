package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count with binary units, e.g. "1.5 MiB"
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatSpeed renders a transfer rate, e.g. "1.0 MiB/s"
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a bar such as "[=====>    ]  50.0%"
func FormatProgress(current, total int64, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))

	var bar strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			bar.WriteByte('=')
		case i == filled:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", bar.String(), percent*100)
}

// NewTerminalReporter draws a single-line progress bar on w, redrawn with
// a carriage return on every update. Completed transfers end the line.
func NewTerminalReporter(w io.Writer, width int) *CallbackReporter {
	var mu sync.Mutex
	return NewCallbackReporter(func(u Update) {
		mu.Lock()
		defer mu.Unlock()

		switch u.Type {
		case UpdateProgress:
			fmt.Fprintf(w, "\r%s %s/%s %s %s",
				FormatProgress(u.CurrentBytes, u.CurrentTotal, width),
				FormatBytes(u.CurrentBytes), FormatBytes(u.CurrentTotal),
				FormatSpeed(u.BytesPerSecond), u.CurrentFile)
		case UpdateComplete:
			fmt.Fprintf(w, "\r%s %s %s\n",
				FormatProgress(u.CurrentTotal, u.CurrentTotal, width),
				FormatBytes(u.CurrentTotal), u.CurrentFile)
		case UpdateError:
			fmt.Fprintf(w, "\nfailed %s: %v\n", u.CurrentFile, u.Error)
		}
	})
}
