// Package indicator drives the three status outputs and the two-line
// character display.
package indicator

import (
	"log/slog"
	"sync"

	"github.com/speedwagon-io/levelmon/internal/level"
)

// Outputs drives the ok/warn/danger signals.
type Outputs interface {
	Drive(sig level.Signals) error
	Close() error
}

// LogOutputs logs signal changes. Used when no GPIO is wired.
type LogOutputs struct {
	log *slog.Logger

	mu   sync.Mutex
	last *level.Signals
}

func NewLogOutputs(log *slog.Logger) *LogOutputs {
	return &LogOutputs{log: log}
}

func (o *LogOutputs) Drive(sig level.Signals) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.last != nil && *o.last == sig {
		return nil
	}
	o.last = &sig

	o.log.Info("indicators changed",
		slog.Bool("ok", sig.OK),
		slog.Bool("warn", sig.Warn),
		slog.Bool("danger", sig.Danger),
	)
	return nil
}

func (o *LogOutputs) Close() error {
	return o.Drive(level.Signals{})
}
