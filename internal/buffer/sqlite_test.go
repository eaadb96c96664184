package buffer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/levelmon/internal/model"
)

func newTestBuffer(t *testing.T) *SQLiteBuffer {
	t.Helper()
	buf, err := NewSQLiteBuffer(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		filepath.Join(t.TempDir(), "nested", "buffer.db"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { buf.Close() })
	return buf
}

func envelope(status model.Status) *model.Envelope {
	return model.NewEnvelope("tank", "Tank", model.Snapshot{
		Active:     true,
		Baseline:   model.Known(120),
		Distance:   model.Known(30),
		Percentage: 75,
		Status:     status,
	}.Reading())
}

func TestStoreAndGetPending(t *testing.T) {
	ctx := context.Background()
	buf := newTestBuffer(t)

	first := envelope(model.StatusWarned)
	second := envelope(model.StatusDangerous)
	require.NoError(t, buf.Store(ctx, first))
	require.NoError(t, buf.Store(ctx, second))
	require.NoError(t, buf.Store(ctx, first), "duplicate ids are ignored")

	count, err := buf.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	pending, err := buf.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "warned", pending[0].Reading.WaterStatus)
	assert.Equal(t, 120, pending[0].Reading.Depth)
	require.NotNil(t, pending[0].Reading.Distance)
	assert.Equal(t, 30, *pending[0].Reading.Distance)
	assert.True(t, first.Timestamp.Equal(pending[0].Timestamp))
	assert.Equal(t, second.ID, pending[1].ID)

	limited, err := buf.GetPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMarkSentRemoves(t *testing.T) {
	ctx := context.Background()
	buf := newTestBuffer(t)

	a, b := envelope(model.StatusSafe), envelope(model.StatusLow)
	require.NoError(t, buf.Store(ctx, a))
	require.NoError(t, buf.Store(ctx, b))

	require.NoError(t, buf.MarkSent(ctx, []string{a.ID}))
	require.NoError(t, buf.MarkSent(ctx, nil))

	pending, err := buf.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	buf := newTestBuffer(t)

	require.NoError(t, buf.Store(ctx, envelope(model.StatusSafe)))

	require.NoError(t, buf.Cleanup(ctx, time.Hour))
	count, err := buf.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, buf.Cleanup(ctx, time.Millisecond))
	count, err = buf.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
