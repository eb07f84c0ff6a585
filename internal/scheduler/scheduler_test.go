package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New("not a spec", func(ctx context.Context) error { return nil })

	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_RunsImmediately(t *testing.T) {
	done := make(chan struct{}, 1)
	s := New("@every 1h", func(ctx context.Context) error {
		done <- struct{}{}
		return nil
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	s := New("@every 1h", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
		return nil
	})
	require.NoError(t, s.Start(context.Background()))

	<-started
	s.RunNow() //returns at once, the first run still holds the slot
	close(release)
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_CancelledContextSkipsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var runs atomic.Int32
	s := New("@every 1h", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, s.Start(ctx))
	s.RunNow()
	s.Stop()

	assert.Equal(t, int32(0), runs.Load())
}

func TestScheduler_StopWaitsForInitialRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	s := New("@every 1h", func(ctx context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	})
	require.NoError(t, s.Start(context.Background()))
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial run was still going")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the initial run finished")
	}
	assert.True(t, finished.Load())
}
