package indicator

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/speedwagon-io/levelmon/internal/model"
)

const (
	DefaultWidth = 16
	placeholder  = "------"
)

// Lines is one frame of the two-line display.
type Lines [2]string

// Display shows a rendered frame.
type Display interface {
	Show(lines Lines) error
}

// Render lays out the live percentage and calibrated depth, padded or cut
// to width columns.
func Render(snap model.Snapshot, width int) Lines {
	if width <= 0 {
		width = DefaultWidth
	}

	levelText := placeholder
	if snap.Active {
		levelText = fmt.Sprintf("%.2f%%", snap.Percentage)
	}

	depthText := placeholder
	if snap.DepthStatus() == model.DepthChecked {
		depthText = fmt.Sprintf("%d CM", snap.Baseline.CM)
	}

	return Lines{
		fit("Level: "+levelText, width),
		fit("Depth: "+depthText, width),
	}
}

func fit(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// LogDisplay writes frames to the log when they change.
type LogDisplay struct {
	log *slog.Logger

	mu   sync.Mutex
	last Lines
}

func NewLogDisplay(log *slog.Logger) *LogDisplay {
	return &LogDisplay{log: log}
}

func (d *LogDisplay) Show(lines Lines) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if lines == d.last {
		return nil
	}
	d.last = lines

	d.log.Debug("display",
		slog.String("line1", strings.TrimRight(lines[0], " ")),
		slog.String("line2", strings.TrimRight(lines[1], " ")),
	)
	return nil
}
