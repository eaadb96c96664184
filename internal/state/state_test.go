package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/threshold"
)

func TestSnapshotDefaults(t *testing.T) {
	s := New(nil)
	snap := s.Snapshot()

	assert.False(t, snap.Active)
	assert.Equal(t, model.StatusUnchecked, snap.Status)
	assert.Equal(t, 0.0, snap.Percentage)
	assert.Equal(t, model.DefaultThresholds(), snap.Thresholds)
	assert.False(t, snap.Baseline.Valid)
}

func TestSnapshotActive(t *testing.T) {
	s := New(nil)
	s.Calibration.Complete(model.Known(120))
	s.Monitoring.SetActive(true)
	s.Live.Set(model.Known(30))

	snap := s.Snapshot()
	assert.Equal(t, 75.0, snap.Percentage)
	assert.Equal(t, model.StatusWarned, snap.Status)
}

func TestSnapshotSeesThresholdUpdateImmediately(t *testing.T) {
	s := New(nil)
	s.Calibration.Complete(model.Known(100))
	s.Monitoring.SetActive(true)
	s.Live.Set(model.Known(40))
	assert.Equal(t, model.StatusSafe, s.Snapshot().Status)

	require.NoError(t, s.Thresholds.Set(threshold.LevelLow, 20))
	require.NoError(t, s.Thresholds.Set(threshold.LevelMid, 55))
	assert.Equal(t, model.StatusWarned, s.Snapshot().Status)
}

func TestMonitoringToggleIdempotent(t *testing.T) {
	m := &Monitoring{}
	m.SetActive(true)
	m.SetActive(true)
	assert.True(t, m.Active())
	m.SetActive(false)
	m.SetActive(false)
	assert.False(t, m.Active())
}

func TestSnapshotReportsPendingCalibration(t *testing.T) {
	s := New(nil)
	s.Calibration.Request()
	assert.True(t, s.Snapshot().Calibrating)
}
