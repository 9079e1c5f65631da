package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunJob(t *testing.T) {
	s := NewScheduler()
	var calls int32
	s.AddJob("recompute", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	s.AddJob("broken", time.Hour, func(ctx context.Context) error {
		return errors.New("boom")
	})

	require.NoError(t, s.RunJob(context.Background(), "recompute"))
	assert.EqualError(t, s.RunJob(context.Background(), "broken"), "boom")
	assert.Error(t, s.RunJob(context.Background(), "missing"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"recompute", "broken"}, s.Jobs())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := NewScheduler()
	started := make(chan struct{})
	unblock := make(chan struct{})
	var calls int32
	s.AddJob("slow", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-unblock
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = s.RunJob(context.Background(), "slow")
		close(done)
	}()
	<-started

	require.NoError(t, s.RunJob(context.Background(), "slow"))
	close(unblock)
	<-done
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	s.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
