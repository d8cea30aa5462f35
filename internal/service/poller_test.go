package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist-sync/pkg/logger"
)

func TestPoller_ArmReplacesByName(t *testing.T) {
	p := NewPoller(context.Background(), NewVisibility(), logger.Nop())
	defer p.Stop()

	assert.True(t, p.Arm("quotes", time.Second, true, func(ctx context.Context) {}))
	assert.False(t, p.Arm("quotes", time.Second, true, func(ctx context.Context) {}))
	assert.True(t, p.Arm("quotes", 30*time.Second, true, func(ctx context.Context) {}))

	interval, ok := p.Interval("quotes")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, interval)

	assert.False(t, p.Arm("zero", 0, false, func(ctx context.Context) {}))
	_, ok = p.Interval("zero")
	assert.False(t, ok)

	p.Disarm("quotes")
	_, ok = p.Interval("quotes")
	assert.False(t, ok)
}

func TestPoller_TickHonoursVisibility(t *testing.T) {
	visibility := NewVisibility()
	p := NewPoller(context.Background(), visibility, logger.Nop())
	defer p.Stop()

	var gated, ungated atomic.Int32
	p.Arm("gated", time.Minute, true, func(ctx context.Context) { gated.Add(1) })
	p.Arm("ungated", time.Minute, false, func(ctx context.Context) { ungated.Add(1) })

	visibility.Set(false)
	assert.True(t, p.Tick("gated"))
	assert.True(t, p.Tick("ungated"))
	assert.Equal(t, int32(0), gated.Load())
	assert.Equal(t, int32(1), ungated.Load())

	visibility.Set(true)
	p.Tick("gated")
	assert.Equal(t, int32(1), gated.Load())

	assert.False(t, p.Tick("missing"))
}

func TestPoller_TickRecoversPanics(t *testing.T) {
	p := NewPoller(context.Background(), NewVisibility(), logger.Nop())
	defer p.Stop()

	p.Arm("boom", time.Minute, false, func(ctx context.Context) { panic("boom") })

	assert.NotPanics(t, func() { p.Tick("boom") })
}

func TestPoller_StopCancelsEverything(t *testing.T) {
	p := NewPoller(context.Background(), NewVisibility(), logger.Nop())
	p.Start()

	var seen context.Context
	p.Arm("tasks", time.Minute, false, func(ctx context.Context) { seen = ctx })
	p.Tick("tasks")
	require.NotNil(t, seen)

	p.Stop()
	p.Stop()

	assert.Error(t, seen.Err())
	assert.False(t, p.Arm("tasks", time.Second, false, func(ctx context.Context) {}))
	assert.False(t, p.Tick("tasks"))
	select {
	case <-p.Done():
	default:
		t.Fatal("poller context should be cancelled")
	}
}

func TestPoller_ParentContextStopsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(ctx, NewVisibility(), logger.Nop())
	defer p.Stop()

	var runs atomic.Int32
	p.Arm("tasks", time.Minute, false, func(ctx context.Context) { runs.Add(1) })
	cancel()

	p.Tick("tasks")
	assert.Equal(t, int32(0), runs.Load())
}

func TestPoller_RunsOnSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the scheduler")
	}
	p := NewPoller(context.Background(), NewVisibility(), logger.Nop())
	defer p.Stop()

	var runs atomic.Int32
	p.Arm("tick", time.Second, false, func(ctx context.Context) { runs.Add(1) })
	p.Start()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
