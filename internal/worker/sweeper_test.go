package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeper_RunsImmediatelyAndOnTick(t *testing.T) {
	zlog.Init()
	target := &countingSweeper{}

	s := NewSweeper(target, "test", 10*time.Millisecond, &zlog.Logger)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load())
}

func TestSweeper_KeepsRunningAfterError(t *testing.T) {
	zlog.Init()
	target := &countingSweeper{err: errors.New("bucket unreachable")}

	s := NewSweeper(target, "test", 10*time.Millisecond, &zlog.Logger)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSweeper_StopsWithParentContext(t *testing.T) {
	zlog.Init()
	target := &countingSweeper{}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(target, "test", time.Hour, &zlog.Logger)
	s.Start(ctx)

	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
