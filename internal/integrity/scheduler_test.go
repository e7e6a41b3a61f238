package integrity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunExclusive(context.Context, Options) (*Report, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &Report{}, nil
}

func TestNewScheduler(t *testing.T) {
	_, err := NewScheduler(nil, time.Second)
	require.Error(t, err)

	_, err = NewScheduler(&countingRunner{}, 0)
	require.Error(t, err)
}

func TestSchedulerTick(t *testing.T) {
	t.Run("skipped tick is logged, not treated as failure", func(t *testing.T) {
		var buf bytes.Buffer
		runner := &countingRunner{err: ErrRunInProgress}
		s, err := NewScheduler(runner, time.Minute, WithSchedulerLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		require.NoError(t, err)

		s.Tick(context.Background())

		assert.Equal(t, int32(1), runner.calls.Load())
		assert.Contains(t, buf.String(), "skipped")
		assert.NotContains(t, buf.String(), "level=ERROR")
	})

	t.Run("failed run is logged as error", func(t *testing.T) {
		var buf bytes.Buffer
		runner := &countingRunner{err: errors.New("boom")}
		s, err := NewScheduler(runner, time.Minute, WithSchedulerLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		require.NoError(t, err)

		s.Tick(context.Background())

		assert.Contains(t, buf.String(), "level=ERROR")
	})
}

func TestSchedulerStartStopsOnCancel(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler(runner, 10*time.Millisecond, WithSchedulerLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
