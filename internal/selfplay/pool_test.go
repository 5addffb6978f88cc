package selfplay

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/nn"
)

func TestPoolStartStopTrainsEveryWorker(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	pool := NewPool(3, newTestAdapter(), cardgame.NewEncoded, m, 0.01, 11)

	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	pool.Stop()

	for i := 0; i < pool.Len(); i++ {
		if pool.Worker(i).Trials() == 0 {
			t.Fatalf("worker %d completed no trials", i)
		}
	}

	snaps := pool.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("Snapshots() returned %d models, want 3", len(snaps))
	}
}

func TestRunOnTickFiresOnMockClockAdvance(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	pool := NewPool(1, newTestAdapter(), cardgame.NewEncoded, m, 0.01, 5)

	mClock := quartz.NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32
	done := make(chan struct{})
	go func() {
		pool.RunOnTick(ctx, mClock, time.Second, func() { ticks.Add(1) })
		close(done)
	}()

	mClock.Advance(time.Second).MustWait(ctx)
	mClock.Advance(time.Second).MustWait(ctx)

	cancel()
	<-done

	if got := ticks.Load(); got != 2 {
		t.Fatalf("ticks fired = %d, want 2", got)
	}
}
