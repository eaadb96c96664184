// Package sonar wraps the ultrasonic ranger. There is exactly one ranging
// resource; Sampler serializes access to it.
package sonar

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speedwagon-io/levelmon/internal/model"
)

const (
	DefaultMaxDistanceCM = 300
	DefaultSettle        = 50 * time.Millisecond
)

var ErrNoEcho = errors.New("no echo")

// Driver performs one raw ranging operation.
type Driver interface {
	Ping(ctx context.Context) (int, error)
	Name() string
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(ctx context.Context) (int, error)

func (f DriverFunc) Ping(ctx context.Context) (int, error) { return f(ctx) }
func (f DriverFunc) Name() string                          { return "func" }

type Sampler struct {
	log     *slog.Logger
	driver  Driver
	settle  time.Duration
	timeout time.Duration
	maxCM   int

	mu     sync.Mutex
	misses atomic.Int64
	pings  atomic.Int64
}

type Options struct {
	Settle        time.Duration
	Timeout       time.Duration
	MaxDistanceCM int
}

func NewSampler(log *slog.Logger, driver Driver, opts Options) *Sampler {
	if opts.MaxDistanceCM <= 0 {
		opts.MaxDistanceCM = DefaultMaxDistanceCM
	}
	return &Sampler{
		log:     log,
		driver:  driver,
		settle:  opts.Settle,
		timeout: opts.Timeout,
		maxCM:   opts.MaxDistanceCM,
	}
}

// Sample waits out the settle delay, then pings once. Any failure, a zero
// reading or a reading past the maximum range comes back as an unknown
// distance; there are no retries.
func (s *Sampler) Sample(ctx context.Context) model.Distance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settle > 0 {
		timer := time.NewTimer(s.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.misses.Add(1)
			return model.Unknown()
		case <-timer.C:
		}
	}

	pingCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.pings.Add(1)
	cm, err := s.driver.Ping(pingCtx)
	if err != nil {
		s.misses.Add(1)
		s.log.Debug("ranging failed",
			slog.String("driver", s.driver.Name()),
			slog.String("error", err.Error()),
		)
		return model.Unknown()
	}

	if cm <= 0 || cm > s.maxCM {
		s.misses.Add(1)
		s.log.Debug("ranging out of range",
			slog.String("driver", s.driver.Name()),
			slog.Int("cm", cm),
			slog.Int("max_cm", s.maxCM),
		)
		return model.Unknown()
	}

	s.misses.Store(0)
	return model.Known(cm)
}

// ConsecutiveMisses counts unknown samples since the last good one.
func (s *Sampler) ConsecutiveMisses() int64 {
	return s.misses.Load()
}

// Pings counts ranging operations issued to the driver.
func (s *Sampler) Pings() int64 {
	return s.pings.Load()
}

func (s *Sampler) DriverName() string {
	return s.driver.Name()
}
