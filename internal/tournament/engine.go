// Package tournament maintains a population of model snapshots and plays
// them pairwise against each other in the background, culling the weakest
// and topping up with fresh worker clones once every pair has enough
// samples -- per spec.md §4.7, ported from bin/main.cpp's
// Tournament_Group::Worker.
package tournament

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
	"github.com/lox/cardselfplay/internal/selfplay"
)

const (
	// maxSamples is the per-cell sample target before a pair is considered
	// saturated (Tournament_Group's max_samples).
	maxSamples = 250
	// batchSize is one play batch's game count (run_100).
	batchSize = 100
	// defaultTarget is the population size repopulation grows/shrinks
	// toward (Tournament_Group's target_tournament).
	defaultTarget = 12
	// concurrency bounds how many (i,j) cells play their batch at once.
	concurrency = 4
)

// Engine plays a population of model snapshots pairwise in the background,
// exposing a live win-rate matrix and culling/repopulating the population
// once every pair is saturated. One Engine runs one background goroutine,
// analogous to one Worker per self-play model.
type Engine struct {
	newAdapter func() coregame.Adapter
	newEnc     func() *coregame.Encoded
	target     int
	logger     zerolog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	matrix  [][]WinStats
	models  []*nn.Model
	pending []*nn.Model // worker snapshots queued for the next repopulation
	restart bool
	paused  bool
	updated bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine builds an Engine with an empty population, targeting target
// models once repopulation runs (pass 0 to use the spec default of 12).
func NewEngine(newAdapter func() coregame.Adapter, newEnc func() *coregame.Encoded, target int) *Engine {
	if target <= 0 {
		target = defaultTarget
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		newAdapter: newAdapter,
		newEnc:     newEnc,
		target:     target,
		logger:     log.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Start launches the background sweep loop. Safe to call once.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run()
	}()
}

// Stop cancels the sweep loop and blocks until it exits.
func (e *Engine) Stop() {
	e.cancel()
	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}

// Pause suspends sweeping until Resume is called. Safe to call at any time.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Resume clears a prior Pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.paused = false
	e.cond.Broadcast()
	e.mu.Unlock()
}

// RequestRestart forces the sweep loop to reseed its working copies of the
// matrix and population from shared state on its next wake, discarding
// whatever in-flight local progress it had.
func (e *Engine) RequestRestart() {
	e.mu.Lock()
	e.restart = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

// AddWorkerSnapshot queues a fresh worker clone to be folded into the
// population at the next repopulation step, and requests a restart so the
// sweep loop notices the addition promptly.
func (e *Engine) AddWorkerSnapshot(m *nn.Model) {
	e.mu.Lock()
	e.pending = append(e.pending, m)
	e.restart = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Snapshot returns a deep-enough copy of the current shared matrix and
// population size for telemetry -- the matrix is copied, the models
// themselves are not (callers only need win-rate numbers, not the weights).
func (e *Engine) Snapshot() ([][]WinStats, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]WinStats, len(e.matrix))
	for i, row := range e.matrix {
		out[i] = append([]WinStats(nil), row...)
	}
	return out, len(e.models)
}

// ConsumeUpdate reports whether the shared matrix changed since the last
// call, clearing the flag.
func (e *Engine) ConsumeUpdate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.updated
	e.updated = false
	return u
}

// run is the background sweep loop: each wake either reseeds its working
// copies from shared state (if a restart was requested) or publishes its
// working copies back to shared state, then plays a sweep over
// under-sampled cells, repopulating once every cell is saturated.
func (e *Engine) run() {
	var local struct {
		matrix [][]WinStats
		models []*nn.Model
	}

	for {
		if e.waitUntilRunnable() {
			return
		}

		e.mu.Lock()
		if e.restart {
			local.matrix = cloneMatrix(e.matrix)
			local.models = append([]*nn.Model(nil), e.models...)
			e.restart = false
		} else {
			e.matrix = cloneMatrix(local.matrix)
			e.models = append([]*nn.Model(nil), local.models...)
			e.updated = true
			e.cond.Broadcast()
		}
		e.mu.Unlock()

		if len(local.models) < 2 {
			if !e.absorbPending(&local) {
				continue
			}
		}

		e.playSweep(local.matrix, local.models)

		if allSaturated(local.matrix) {
			local.matrix, local.models = e.repopulate(local.matrix, local.models)
		}
	}
}

// waitUntilRunnable blocks while paused, returning true if the engine was
// stopped while waiting.
func (e *Engine) waitUntilRunnable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.paused && e.ctx.Err() == nil {
		e.cond.Wait()
	}
	return e.ctx.Err() != nil
}

// absorbPending folds any queued worker snapshots into local directly,
// used when the population is too small to play (fewer than two models)
// and repopulation's usual saturation gate would never fire. Returns false
// if nothing was available to absorb.
func (e *Engine) absorbPending(local *struct {
	matrix [][]WinStats
	models []*nn.Model
}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return false
	}
	local.models = append(local.models, e.pending...)
	e.pending = nil
	local.matrix = growMatrix(local.matrix, len(local.models))
	return true
}

// allSaturated reports whether every off-diagonal cell has reached
// maxSamples total games.
func allSaturated(matrix [][]WinStats) bool {
	n := len(matrix)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if matrix[i][j].Total() < maxSamples {
				return false
			}
		}
	}
	return n > 0
}

// playSweep iterates (i,j) row-major over matrix, playing one 100-game
// batch for every under-sampled cell, bounded to `concurrency` cells in
// flight at once via a semaphore -- the teacher-pack idiom for bounded
// fan-out (internal/server/pool.go, cmd/regression-tester).
func (e *Engine) playSweep(matrix [][]WinStats, models []*nn.Model) {
	n := len(models)
	if n == 0 {
		return
	}
	sem := semaphore.NewWeighted(concurrency)
	g, ctx := errgroup.WithContext(e.ctx)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || matrix[i][j].Total() >= maxSamples {
				continue
			}
			if e.sweepShouldAbort() {
				break
			}
			i, j := i, j
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				p1, p2, ties := selfplay.PlayBatch(models[i], models[j], e.newAdapter, e.newEnc, batchSize)
				matrix[i][j].P1 += p1
				matrix[i][j].P2 += p2
				matrix[i][j].Tie += ties
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug().Err(err).Msg("tournament sweep aborted")
	}
}

// sweepShouldAbort reports whether a pause or restart was requested while a
// sweep is in flight, so playSweep can stop scheduling new cells without
// waiting for the whole row-major pass to finish.
func (e *Engine) sweepShouldAbort() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused || e.restart || e.ctx.Err() != nil
}

// repopulate computes per-model win rates, culls the lowest-ranked models
// down to the target population size, then tops back up to target with
// queued worker snapshots -- Tournament_Group::work's post-saturation
// block.
func (e *Engine) repopulate(matrix [][]WinStats, models []*nn.Model) ([][]WinStats, []*nn.Model) {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	current := len(models)
	target := min(e.target, current+len(pending))

	if current > target {
		cull := current - target
		order := make([]int, current)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return WinRate(matrix, order[a]) < WinRate(matrix, order[b])
		})
		toErase := make([]bool, current)
		for _, idx := range order[:cull] {
			toErase[idx] = true
		}
		keep := pruneIndices(current, toErase)
		matrix = pruneMatrix(matrix, keep)
		newModels := make([]*nn.Model, len(keep))
		for i, k := range keep {
			newModels[i] = models[k]
		}
		models = newModels
	}

	needed := target - len(models)
	if needed > len(pending) {
		needed = len(pending)
	}
	if needed > 0 {
		models = append(models, pending[:needed]...)
		if len(pending) > needed {
			e.mu.Lock()
			e.pending = append(pending[needed:], e.pending...)
			e.mu.Unlock()
		}
	}
	matrix = growMatrix(matrix, len(models))

	e.logger.Info().Int("population", len(models)).Msg("tournament repopulated")
	return matrix, models
}

// RunOnTick calls fn with the current matrix snapshot and population size
// once every interval, measured by clock, until ctx is cancelled -- used
// by cmd/cardtrainer's checkpoint loop, with clock substitutable by
// quartz.NewMock in tests so the cadence is deterministic.
func (e *Engine) RunOnTick(ctx context.Context, clock quartz.Clock, interval time.Duration, fn func(matrix [][]WinStats, n int)) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			matrix, n := e.Snapshot()
			fn(matrix, n)
		}
	}
}

func cloneMatrix(matrix [][]WinStats) [][]WinStats {
	out := make([][]WinStats, len(matrix))
	for i, row := range matrix {
		out[i] = append([]WinStats(nil), row...)
	}
	return out
}
