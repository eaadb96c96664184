package sonar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/levelmon/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSampleKnown(t *testing.T) {
	s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
		return 120, nil
	}), Options{})

	assert.Equal(t, model.Known(120), s.Sample(context.Background()))
	assert.Equal(t, int64(0), s.ConsecutiveMisses())
	assert.Equal(t, int64(1), s.Pings())
}

func TestSampleFailuresAreUnknown(t *testing.T) {
	tests := []struct {
		name string
		cm   int
		err  error
	}{
		{"no echo", 0, ErrNoEcho},
		{"driver error", 0, errors.New("bus fault")},
		{"zero reading", 0, nil},
		{"negative reading", -3, nil},
		{"beyond max range", 301, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
				return tt.cm, tt.err
			}), Options{})

			d := s.Sample(context.Background())
			assert.False(t, d.Valid)
			assert.Equal(t, int64(1), s.ConsecutiveMisses())
			assert.Equal(t, int64(1), s.Pings(), "no retries")
		})
	}
}

func TestSampleMissesReset(t *testing.T) {
	var n atomic.Int32
	s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
		if n.Add(1) <= 3 {
			return 0, ErrNoEcho
		}
		return 80, nil
	}), Options{})

	for i := 0; i < 3; i++ {
		s.Sample(context.Background())
	}
	assert.Equal(t, int64(3), s.ConsecutiveMisses())

	assert.True(t, s.Sample(context.Background()).Valid)
	assert.Equal(t, int64(0), s.ConsecutiveMisses())
}

func TestSampleWaitsSettle(t *testing.T) {
	s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
		return 10, nil
	}), Options{Settle: 20 * time.Millisecond})

	start := time.Now()
	s.Sample(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSampleCancelledDuringSettle(t *testing.T) {
	called := false
	s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
		called = true
		return 10, nil
	}), Options{Settle: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, s.Sample(ctx).Valid)
	assert.False(t, called)
}

func TestSampleSerializesPings(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	s := NewSampler(testLogger(), DriverFunc(func(context.Context) (int, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return 50, nil
	}), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Sample(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, int64(10), s.Pings())
}

func TestIIODriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_distance_raw")
	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0o644))

	d := NewIIODriver(path, 0.1)
	cm, err := d.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 123, cm)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, err = d.Ping(context.Background())
	assert.Error(t, err)

	_, err = NewIIODriver(filepath.Join(t.TempDir(), "missing"), 1).Ping(context.Background())
	assert.ErrorIs(t, err, ErrNoEcho)
}

func TestRemoteDriver(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    int
		wantErr bool
	}{
		{"bare number", "87", http.StatusOK, 87, false},
		{"float", "87.6", http.StatusOK, 87, false},
		{"quoted", `"42"`, http.StatusOK, 42, false},
		{"object", `{"distance": 64}`, http.StatusOK, 64, false},
		{"object string", `{"distance": "65"}`, http.StatusOK, 65, false},
		{"object missing field", `{"other": 1}`, http.StatusOK, 0, true},
		{"null", "null", http.StatusOK, 0, true},
		{"python false", "False", http.StatusOK, 0, true},
		{"server error", "", http.StatusInternalServerError, 0, true},
		{"not json", "{", http.StatusOK, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			d := NewRemoteDriver(testLogger(), srv.URL, "", time.Second)
			defer d.Close()

			cm, err := d.Ping(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cm)
		})
	}
}

func TestSimDriverStartsEmpty(t *testing.T) {
	d := NewSimDriver(150, 1)
	d.dropRate = 0

	cm, err := d.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150, cm)

	next, err := d.Ping(context.Background())
	require.NoError(t, err)
	assert.Less(t, next, cm)
}

func TestSimDriverStaysWithinDepth(t *testing.T) {
	d := NewSimDriver(100, 3)
	for i := 0; i < 1000; i++ {
		cm, err := d.Ping(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrNoEcho)
			continue
		}
		assert.GreaterOrEqual(t, cm, 5)
		assert.LessOrEqual(t, cm, 100)
	}
}
