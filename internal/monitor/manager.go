// Package monitor runs the periodic measurement cycle: live sampling,
// one-shot calibration, classification and output driving.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/levelmon/internal/indicator"
	"github.com/speedwagon-io/levelmon/internal/level"
	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/levelmon/internal/metrics"
	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/state"
)

// Sampler is the single ranging resource. Only the cycle calls it.
type Sampler interface {
	Sample(ctx context.Context) model.Distance
}

type Options struct {
	Interval     time.Duration
	DisplayWidth int
}

type Manager struct {
	log      *slog.Logger
	state    *state.State
	sampler  Sampler
	outputs  indicator.Outputs
	display  indicator.Display
	metrics  *metrics.Metrics
	interval time.Duration
	width    int

	stopCh   chan struct{}
	stopOnce sync.Once

	outOfRange bool
}

func NewManager(
	log *slog.Logger,
	st *state.State,
	sampler Sampler,
	outputs indicator.Outputs,
	display indicator.Display,
	m *metrics.Metrics,
	opts Options,
) *Manager {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Manager{
		log:      log,
		state:    st,
		sampler:  sampler,
		outputs:  outputs,
		display:  display,
		metrics:  m,
		interval: opts.Interval,
		width:    opts.DisplayWidth,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks running cycles until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.log.Info("starting monitor", slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("context cancelled, stopping monitor")
			return
		case <-m.stopCh:
			m.log.Info("stop signal received, stopping monitor")
			return
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// RunCycle performs one pass. A handler may run between any two steps, so
// every shared write below is a single self-contained operation.
func (m *Manager) RunCycle(ctx context.Context) model.Snapshot {
	start := time.Now()

	if m.state.Monitoring.Active() {
		d := m.sampler.Sample(ctx)
		m.metrics.ObserveSample(metrics.PurposeLive, d.Valid)
		if d.Valid {
			m.state.Live.Set(d)
		}
	} else {
		m.state.Live.Set(model.Unknown())
	}

	// Claim clears the flag whether or not the sample succeeds, so a dead
	// sensor cannot keep the cycle calibrating forever.
	if m.state.Calibration.Claim() {
		d := m.sampler.Sample(ctx)
		m.metrics.ObserveSample(metrics.PurposeCalibration, d.Valid)
		if m.state.Calibration.Complete(d) {
			m.log.Info("baseline depth calibrated", slog.Int("depth_cm", d.CM))
		} else {
			m.log.Warn("calibration sample failed, keeping previous baseline",
				slog.String("baseline", m.state.Calibration.Baseline().String()),
			)
		}
	}

	snap := m.state.Snapshot()

	sig := level.Indicators(snap.Percentage, snap.Thresholds, snap.Active)
	if err := m.outputs.Drive(sig); err != nil {
		m.log.Warn("failed to drive indicators", sl.Err(err))
	}
	if err := m.display.Show(indicator.Render(snap, m.width)); err != nil {
		m.log.Warn("failed to update display", sl.Err(err))
	}

	m.checkRange(snap)
	m.record(snap, time.Since(start))
	return snap
}

func (m *Manager) checkRange(snap model.Snapshot) {
	out := snap.Active && snap.Distance.Valid && !level.InRange(snap.Percentage)
	if out && !m.outOfRange {
		m.log.Warn("water level outside 0-100%, baseline may need recalibration",
			slog.Float64("percentage", snap.Percentage),
			slog.Int("distance_cm", snap.Distance.CM),
			slog.Int("baseline_cm", snap.Baseline.CM),
		)
	}
	if !out && m.outOfRange {
		m.log.Info("water level back within 0-100%", slog.Float64("percentage", snap.Percentage))
	}
	m.outOfRange = out
}

func (m *Manager) record(snap model.Snapshot, elapsed time.Duration) {
	m.metrics.CyclesTotal.Inc()
	m.metrics.CycleDuration.Observe(elapsed.Seconds())
	m.metrics.WaterLevelPercent.Set(snap.Percentage)
	m.metrics.DistanceCM.Set(float64(snap.Distance.CM))
	m.metrics.BaselineDepthCM.Set(float64(snap.Baseline.CM))
	if snap.Active {
		m.metrics.MonitoringActive.Set(1)
	} else {
		m.metrics.MonitoringActive.Set(0)
	}
}
