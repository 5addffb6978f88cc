package tournament

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
)

func newTestAdapter() func() coregame.Adapter {
	seed := int64(100)
	return func() coregame.Adapter {
		seed++
		return cardgame.New(seed)
	}
}

func TestWinRateSkipsZeroDenominatorPairs(t *testing.T) {
	matrix := [][]WinStats{
		{{}, {P1: 60, P2: 40}, {}},
		{{P1: 30, P2: 70}, {}, {}},
		{{}, {}, {}},
	}
	rate := WinRate(matrix, 0)
	// Only (0,1)'s p1 term (60) and (1,0)'s p2 term (70) have nonzero
	// denominators; (0,2)/(2,0) are both empty and skipped.
	want := (60.0 + 70.0) / 2
	if rate != want {
		t.Fatalf("WinRate = %v, want %v", rate, want)
	}
}

func TestPruneIndicesPreservesOrder(t *testing.T) {
	keep := pruneIndices(5, []bool{false, true, false, true, false})
	want := []int{0, 2, 4}
	if len(keep) != len(want) {
		t.Fatalf("keep = %v, want %v", keep, want)
	}
	for i := range want {
		if keep[i] != want[i] {
			t.Fatalf("keep = %v, want %v", keep, want)
		}
	}
}

func TestGrowMatrixZeroesNewCells(t *testing.T) {
	matrix := [][]WinStats{{{P1: 5}}}
	grown := growMatrix(matrix, 3)
	if len(grown) != 3 || len(grown[0]) != 3 {
		t.Fatalf("growMatrix size = %dx%d, want 3x3", len(grown), len(grown[0]))
	}
	if grown[0][0].P1 != 5 {
		t.Fatalf("growMatrix lost existing cell: %+v", grown[0][0])
	}
	if grown[1][1] != (WinStats{}) {
		t.Fatalf("growMatrix new cell not zero: %+v", grown[1][1])
	}
}

func TestEnginePlaysSweepAndPublishesPopulation(t *testing.T) {
	dims := nn.SmallDims()
	e := NewEngine(newTestAdapter(), cardgame.NewEncoded, 2)
	e.AddWorkerSnapshot(nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize))
	e.AddWorkerSnapshot(nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize))

	e.Start()
	time.Sleep(300 * time.Millisecond)
	e.Stop()

	matrix, n := e.Snapshot()
	if n < 2 {
		t.Fatalf("population = %d, want at least 2", n)
	}
	if len(matrix) != n {
		t.Fatalf("matrix size %d does not match population %d", len(matrix), n)
	}
}

func TestEnginePauseHaltsSweeping(t *testing.T) {
	dims := nn.SmallDims()
	e := NewEngine(newTestAdapter(), cardgame.NewEncoded, 2)
	e.AddWorkerSnapshot(nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize))
	e.AddWorkerSnapshot(nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize))
	e.Pause()
	e.Start()
	time.Sleep(100 * time.Millisecond)

	_, n := e.Snapshot()
	if n != 0 {
		t.Fatalf("paused engine published population %d, want 0", n)
	}

	e.Resume()
	time.Sleep(200 * time.Millisecond)
	e.Stop()

	_, n = e.Snapshot()
	if n < 2 {
		t.Fatalf("population after resume = %d, want at least 2", n)
	}
}

func TestRunOnTickFiresOnMockClockAdvance(t *testing.T) {
	e := NewEngine(newTestAdapter(), cardgame.NewEncoded, 2)
	mClock := quartz.NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())

	fired := make(chan int, 4)
	go func() {
		e.RunOnTick(ctx, mClock, time.Second, func(matrix [][]WinStats, n int) { fired <- n })
	}()

	mClock.Advance(time.Second).MustWait(ctx)
	<-fired

	cancel()
}
