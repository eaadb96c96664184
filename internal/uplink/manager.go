// Package uplink periodically publishes station snapshots upstream and
// replays buffered ones after failures.
package uplink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/levelmon/internal/buffer"
	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/levelmon/internal/metrics"
	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/sender"
)

const (
	defaultRetryInterval = 30 * time.Second
	retryBatchSize       = 100
)

// SnapshotSource returns the current station view.
type SnapshotSource func() model.Snapshot

type Options struct {
	DeviceID      string
	DeviceName    string
	Interval      time.Duration
	RetryInterval time.Duration
	MaxAge        time.Duration
}

type Manager struct {
	log     *slog.Logger
	source  SnapshotSource
	sender  sender.Sender
	buffer  buffer.Buffer
	metrics *metrics.Metrics
	opts    Options
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewManager builds the uplink. buf may be nil, in which case failed
// sends are dropped.
func NewManager(
	log *slog.Logger,
	source SnapshotSource,
	sender sender.Sender,
	buf buffer.Buffer,
	m *metrics.Metrics,
	opts Options,
) *Manager {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}
	return &Manager{
		log:     log,
		source:  source,
		sender:  sender,
		buffer:  buf,
		metrics: m,
		opts:    opts,
		stopCh:  make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("starting uplink",
		slog.String("device_id", m.opts.DeviceID),
		slog.Duration("interval", m.opts.Interval),
	)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.wg.Add(1)
	go m.retryBufferedData(ctx)

	m.Publish(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("context cancelled, stopping uplink")
			return
		case <-m.stopCh:
			m.log.Info("stop signal received, stopping uplink")
			return
		case <-ticker.C:
			m.Publish(ctx)
		}
	}
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	if err := m.sender.Close(); err != nil {
		m.log.Error("failed to close sender", sl.Err(err))
	}
}

// Publish sends the current snapshot once, buffering it on failure.
func (m *Manager) Publish(ctx context.Context) {
	envelope := model.NewEnvelope(m.opts.DeviceID, m.opts.DeviceName, m.source().Reading())

	err := m.sender.Send(ctx, envelope)
	m.metrics.ObserveUplink(err)
	if err == nil {
		m.log.Debug("reading sent", slog.String("id", envelope.ID))
		return
	}

	m.log.Error("failed to send reading", slog.String("id", envelope.ID), sl.Err(err))

	if m.buffer == nil {
		return
	}
	if bufErr := m.buffer.Store(ctx, envelope); bufErr != nil {
		m.log.Error("failed to buffer reading", slog.String("id", envelope.ID), sl.Err(bufErr))
	} else {
		m.log.Info("reading buffered for later retry", slog.String("id", envelope.ID))
	}
}

func (m *Manager) retryBufferedData(ctx context.Context) {
	defer m.wg.Done()

	if m.buffer == nil {
		return
	}

	ticker := time.NewTicker(m.opts.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.ProcessBuffered(ctx)
		}
	}
}

// ProcessBuffered replays buffered readings oldest first, stopping at the
// first failure, then drops entries older than MaxAge.
func (m *Manager) ProcessBuffered(ctx context.Context) {
	pending, err := m.buffer.GetPending(ctx, retryBatchSize)
	if err != nil {
		m.log.Error("failed to get pending readings from buffer", sl.Err(err))
		return
	}

	if len(pending) > 0 {
		m.log.Info("processing buffered readings", slog.Int("count", len(pending)))
	}

	var sentIDs []string
	for _, envelope := range pending {
		err := m.sender.Send(ctx, envelope)
		m.metrics.ObserveUplink(err)
		if err != nil {
			m.log.Debug("failed to send buffered reading",
				slog.String("id", envelope.ID),
				sl.Err(err),
			)
			break
		}
		sentIDs = append(sentIDs, envelope.ID)
	}

	if len(sentIDs) > 0 {
		if err := m.buffer.MarkSent(ctx, sentIDs); err != nil {
			m.log.Error("failed to mark buffered readings as sent", sl.Err(err))
		} else {
			m.log.Info("buffered readings sent successfully", slog.Int("count", len(sentIDs)))
		}
	}

	if err := m.buffer.Cleanup(ctx, m.opts.MaxAge); err != nil {
		m.log.Error("failed to cleanup old buffer data", sl.Err(err))
	}
}
