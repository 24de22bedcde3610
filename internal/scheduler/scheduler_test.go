package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestIntervalJobRuns(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.NewIntervalJob("count", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, 20*time.Millisecond, true))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestJobErrorsAndPanicsDoNotStopScheduler(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.NewIntervalJob("flaky", func(ctx context.Context) error {
		n := runs.Add(1)
		if n == 1 {
			panic("first run")
		}
		return errors.New("still failing")
	}, 20*time.Millisecond, true))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestIntervalJobRejectsNonPositive(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.NewIntervalJob("zero", func(ctx context.Context) error { return nil }, 0, false))
}
