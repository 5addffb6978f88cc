package selfplay

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
)

const (
	errRingSize    = 200
	competeSize    = 200
	learnEvery     = 10
	normalizeEvery = 200
	publishEvery   = 300

	competeGamesPerSide = 10
	competeRounds       = 10
)

// Worker runs one self-play training loop against a single evolving model.
// It publishes a clone of the model every publishEvery trials and, once a
// competition baseline is set, continuously scores each published clone
// against that baseline in the background.
type Worker struct {
	newAdapter func() coregame.Adapter
	newEnc     func() *coregame.Encoded

	rng        *rand.Rand
	competeRng *rand.Rand

	trials  atomic.Int64
	errRing [errRingSize]atomic.Uint32
	errIdx  int // only ever touched by the work goroutine

	learnRate atomic.Uint32 // math.Float32bits

	mu              sync.Mutex
	model           *nn.Model
	replaceModel    bool
	pastModels      [competeSize]*nn.Model
	pastCursor      int
	pastCond        *sync.Cond
	competeBaseline *nn.Model
	competeResults  [competeSize]atomic.Uint32
	competeStarted  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker builds a Worker that trains model by self-play, constructing a
// fresh game with newAdapter/newEnc for every played game. seed drives all
// of this worker's randomness (exploration and competition opponent order).
func NewWorker(newAdapter func() coregame.Adapter, newEnc func() *coregame.Encoded, model *nn.Model, learnRate float32, seed int64) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		newAdapter: newAdapter,
		newEnc:     newEnc,
		model:      model,
		rng:        rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x2545f4914f6cdd1d)),
		competeRng: rand.New(rand.NewPCG(uint64(seed)^0x9e3779b97f4a7c15, uint64(seed))),
		ctx:        ctx,
		cancel:     cancel,
	}
	w.pastCond = sync.NewCond(&w.mu)
	w.learnRate.Store(math.Float32bits(learnRate))
	return w
}

// Start launches the training loop in a new goroutine. Safe to call once.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.work()
	}()
}

// Stop cancels the training loop (and the competition loop, if running) and
// blocks until both have exited.
func (w *Worker) Stop() {
	w.cancel()
	w.mu.Lock()
	w.pastCond.Broadcast()
	w.mu.Unlock()
	w.wg.Wait()
	log.Debug().Int64("trials", w.Trials()).Msg("worker stopped")
}

// Trials is the number of games played so far.
func (w *Worker) Trials() int64 { return w.trials.Load() }

// LearnRate returns the current learn rate.
func (w *Worker) LearnRate() float32 { return math.Float32frombits(w.learnRate.Load()) }

// SetLearnRate updates the learn rate applied on the next learn tick.
func (w *Worker) SetLearnRate(lr float32) { w.learnRate.Store(math.Float32bits(lr)) }

// Errors returns a snapshot of the trailing per-game total-error ring.
func (w *Worker) Errors() []float32 {
	out := make([]float32, errRingSize)
	for i := range out {
		out[i] = math.Float32frombits(w.errRing[i].Load())
	}
	return out
}

// ReplaceModel swaps in model as the one this worker publishes from next,
// discarding in-flight training progress on the worker's local clone.
func (w *Worker) ReplaceModel(model *nn.Model) {
	w.mu.Lock()
	w.model = model
	w.replaceModel = true
	w.mu.Unlock()
}

// Snapshot returns a deep copy of the currently published model, cloning
// under the lock and returning immediately -- the clone-on-read contract
// every reader of worker state follows (mirrors clone_model()).
func (w *Worker) Snapshot() *nn.Model {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Clone()
}

// ReplaceCompeteBaseline sets (or replaces) the model this worker's
// published clones are scored against. The first call lazily starts the
// background competition loop.
func (w *Worker) ReplaceCompeteBaseline(baseline *nn.Model) {
	w.mu.Lock()
	w.competeBaseline = baseline
	alreadyStarted := w.competeStarted
	w.competeStarted = true
	w.mu.Unlock()

	if !alreadyStarted {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.competeBaselineWork()
		}()
	}
}

// CompeteResult returns the last recorded win rate for past-model slot i
// against the competition baseline.
func (w *Worker) CompeteResult(i int) float32 {
	return math.Float32frombits(w.competeResults[i].Load())
}

func (w *Worker) work() {
	w.mu.Lock()
	m := w.model.Clone()
	w.replaceModel = false
	w.mu.Unlock()

	s := newSession(w.newAdapter(), w.newEnc)
	m.ResetGradient()

	learnTick := 0
	updateTick := 0

	for w.ctx.Err() == nil {
		turnCount := playGame(s, m, w.rng)
		totalError := w.backwardSweep(s, m, turnCount)

		w.errRing[w.errIdx%errRingSize].Store(math.Float32bits(totalError))
		w.errIdx++

		learnTick++
		if learnTick >= 10000 {
			learnTick = 0
		}
		if learnTick%learnEvery == learnEvery-1 {
			m.Learn(w.LearnRate())
			m.ResetGradient()
		}
		if learnTick%normalizeEvery == normalizeEvery-1 {
			m.Normalize(w.LearnRate() * 1e-9)
		}

		updateTick++
		if updateTick >= publishEvery {
			updateTick = 0
			m = w.publish(m)
			log.Debug().Int64("trials", w.trials.Load()).Float32("error", totalError).Msg("model published")
		}

		w.trials.Add(1)
	}
}

// backwardSweep runs the backward TD(0) pass over the turnCount plies just
// played: the terminal ply's target comes straight from the match outcome,
// every earlier ply bootstraps off the ply after it, and a final forward
// pass backprops the partial-information head against the full-information
// head's output as a distillation target. Returns the total squared error
// across every ply and both heads, for the error ring.
func (w *Worker) backwardSweep(s *session, m *nn.Model, turnCount int) float32 {
	last := s.plies[turnCount-1]
	lastWon := won(s.adapter.Result(), last.player2Turn)

	var totalError float32

	predicted := last.evalFull.Out()[last.chosenAction]
	errFull := predicted - lastWon
	ef := last.errFullSlice()
	ef.Fill(0)
	ef[last.chosenAction] = errFull * float32(last.avail())
	m.Backward(&last.evalFull, last.input, ef, true)
	totalError += errFull * errFull

	nextExpected := lastWon
	for i := turnCount - 2; i >= 0; i-- {
		cur := s.plies[i]
		next := s.plies[i+1]

		predicted := cur.evalFull.Out()[cur.chosenAction]
		expected := clampedBestPct(&next.evalFull, next.chosenAction, nextExpected)
		if next.player2Turn != cur.player2Turn {
			expected = 1 - expected
		}
		errv := predicted - expected

		ef := cur.errFullSlice()
		ef.Fill(0)
		ef[cur.chosenAction] = errv * float32(cur.avail())
		m.Backward(&cur.evalFull, cur.input, ef, true)
		totalError += errv * errv

		nextExpected = expected
	}

	for i := 0; i < turnCount; i++ {
		p := s.plies[i]
		ep := p.errPartialSlice()
		ep.AssignSub(p.eval.Out(), p.evalFull.Out())
		m.Backward(&p.eval, p.input, ep, false)
		totalError += ep.Dot(ep)
	}

	return totalError
}

func won(result coregame.Result, player2Turn bool) float32 {
	var win bool
	if player2Turn {
		win = result == coregame.P2Win
	} else {
		win = result == coregame.P1Win
	}
	if win {
		return 1
	}
	return 0
}

// publish either absorbs an externally replaced model or clones m back as
// the newly published one, then drops a clone into the past-models ring for
// the competition loop to pick up.
func (w *Worker) publish(m *nn.Model) *nn.Model {
	w.mu.Lock()
	if w.replaceModel {
		m = w.model.Clone()
		w.replaceModel = false
	} else {
		w.model = m.Clone()
	}
	w.pastModels[w.pastCursor] = m.Clone()
	w.pastCursor = (w.pastCursor + 1) % competeSize
	w.pastCond.Signal()
	w.mu.Unlock()
	return m
}

// competeBaselineWork scores every newly published past model against the
// current competition baseline, 10 rounds of 10-games-per-side each, and
// whenever the baseline itself changes it re-scores the most recently
// published model against the new baseline first.
func (w *Worker) competeBaselineWork() {
	lastSeen := 0
	var baseline *nn.Model

	for {
		w.mu.Lock()
		for w.ctx.Err() == nil && lastSeen == w.pastCursor && w.competeBaseline == nil {
			w.pastCond.Wait()
		}
		if w.ctx.Err() != nil {
			w.mu.Unlock()
			return
		}

		var idx int
		var candidate *nn.Model
		if w.competeBaseline != nil {
			baseline = w.competeBaseline
			w.competeBaseline = nil
			idx = (w.pastCursor - 1 + competeSize) % competeSize
			candidate = w.pastModels[idx]
		} else {
			idx = lastSeen
			candidate = w.pastModels[idx]
			lastSeen = (lastSeen + 1) % competeSize
		}
		w.mu.Unlock()

		if candidate == nil || baseline == nil {
			continue
		}

		var wins, losses int
		for round := 0; round < competeRounds; round++ {
			w1, l1 := runN(candidate, baseline, w.newAdapter, w.newEnc, competeGamesPerSide, w.competeRng)
			l2, w2 := runN(baseline, candidate, w.newAdapter, w.newEnc, competeGamesPerSide, w.competeRng)
			wins += w1 + w2
			losses += l1 + l2

			var rate float32
			if wins+losses > 0 {
				rate = float32(wins) / float32(wins+losses)
			}
			w.competeResults[idx].Store(math.Float32bits(rate))
		}
	}
}
