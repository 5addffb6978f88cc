package selfplay

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
)

// Pool launches and supervises a fixed set of Workers training independent
// clones of the same starting model, the "N self-play workers" of §4.6 and
// §5's thread model. Grounded on internal/spawner.BotSpawner's
// errgroup-based fan-out in the teacher pack.
type Pool struct {
	workers []*Worker
	logger  zerolog.Logger
}

// NewPool builds n Workers, each training its own clone of model against a
// freshly-constructed adapter per game. seed is the base seed; worker i
// uses seed+int64(i) so every worker's randomness is independent but
// reproducible.
func NewPool(n int, newAdapter func() coregame.Adapter, newEnc func() *coregame.Encoded, model *nn.Model, learnRate float32, seed int64) *Pool {
	p := &Pool{
		workers: make([]*Worker, n),
		logger:  log.Logger,
	}
	for i := 0; i < n; i++ {
		p.workers[i] = NewWorker(newAdapter, newEnc, model.Clone(), learnRate, seed+int64(i))
	}
	return p
}

// Len returns the number of workers in the pool.
func (p *Pool) Len() int { return len(p.workers) }

// Worker returns the i'th worker, for telemetry or baseline wiring.
func (p *Pool) Worker(i int) *Worker { return p.workers[i] }

// Start launches every worker's training loop concurrently via an
// errgroup and returns once every launch call has returned; it does not
// wait for the training loops to finish. Each launch returns nil, so Start
// always returns nil. ctx does not stop the workers -- Stop does.
func (p *Pool) Start(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for i, w := range p.workers {
		i, w := i, w
		g.Go(func() error {
			p.logger.Info().Int("worker", i).Msg("worker starting")
			w.Start()
			return nil
		})
	}
	return g.Wait()
}

// Stop stops every worker and blocks until all have exited.
func (p *Pool) Stop() {
	for i, w := range p.workers {
		w.Stop()
		p.logger.Info().Int("worker", i).Int64("trials", w.Trials()).Msg("worker stopped")
	}
}

// Snapshots returns a clone of every worker's currently published model.
func (p *Pool) Snapshots() []*nn.Model {
	out := make([]*nn.Model, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.Snapshot()
	}
	return out
}

// RunOnTick calls fn once every interval, measured by clock, until ctx is
// cancelled. Used by cmd/cardtrainer to fold worker snapshots into the
// tournament periodically; taking a clock lets tests substitute
// quartz.NewMock and advance time deterministically instead of racing real
// timers.
func (p *Pool) RunOnTick(ctx context.Context, clock quartz.Clock, interval time.Duration, fn func()) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
