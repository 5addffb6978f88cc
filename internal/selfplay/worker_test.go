package selfplay

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
)

func newTestAdapter() func() coregame.Adapter {
	seed := int64(1)
	return func() coregame.Adapter {
		seed++
		return cardgame.New(seed)
	}
}

func TestPlayGameReachesTerminal(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	s := newSession(cardgame.New(1), cardgame.NewEncoded)
	rng := rand.New(rand.NewPCG(1, 2))

	n := playGame(s, m, rng)
	if n == 0 {
		t.Fatal("expected at least one ply")
	}
	if s.adapter.Result() == coregame.Playing {
		t.Fatal("expected game to reach a terminal result")
	}
}

func TestWorkerAccumulatesTrialsAndErrorRing(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)

	w := NewWorker(newTestAdapter(), cardgame.NewEncoded, m, 0.01, 42)
	w.Start()
	time.Sleep(200 * time.Millisecond)
	w.Stop()

	if w.Trials() == 0 {
		t.Fatal("expected at least one completed trial")
	}

	errs := w.Errors()
	if len(errs) != errRingSize {
		t.Fatalf("error ring length = %d, want %d", len(errs), errRingSize)
	}
}

func TestWorkerReplaceModelSwapsPublishedModel(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	w := NewWorker(newTestAdapter(), cardgame.NewEncoded, m, 0.01, 7)

	replacement := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	w.ReplaceModel(replacement)

	got := w.Snapshot()
	if got == nil {
		t.Fatal("expected a non-nil cloned model")
	}
	if got.Pass.RawData()[0] != replacement.Pass.RawData()[0] {
		t.Fatal("snapshot does not reflect the replacement model")
	}
}

func TestWorkerWithCompeteBaselineKeepsTraining(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	w := NewWorker(newTestAdapter(), cardgame.NewEncoded, m, 0.01, 99)

	baseline := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	w.ReplaceCompeteBaseline(baseline)

	w.Start()
	time.Sleep(300 * time.Millisecond)
	w.Stop()

	if w.Trials() == 0 {
		t.Fatal("expected at least one completed trial")
	}
}

func TestRunNCountsWins(t *testing.T) {
	dims := nn.SmallDims()
	m1 := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	m2 := nn.NewModel(dims, cardgame.BoardSize, cardgame.CardSize)
	rng := rand.New(rand.NewPCG(3, 4))

	w1, w2 := runN(m1, m2, newTestAdapter(), cardgame.NewEncoded, 4, rng)
	if w1+w2 > 4 {
		t.Fatalf("wins %d+%d exceed games played (4)", w1, w2)
	}
}
