package selfplay

import (
	"math/rand/v2"

	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
)

// session is one game's scratch: a reused, growable slice of plies plus the
// adapter and encoding buffers backing them. Reused across games by a
// worker to avoid reallocating every play.
type session struct {
	adapter coregame.Adapter
	newEnc  func() *coregame.Encoded
	plies   []*ply
}

func newSession(adapter coregame.Adapter, newEnc func() *coregame.Encoded) *session {
	return &session{adapter: adapter, newEnc: newEnc}
}

func (s *session) plyAt(i int) *ply {
	for len(s.plies) <= i {
		s.plies = append(s.plies, &ply{input: s.newEnc()})
	}
	return s.plies[i]
}

// playGame runs one game to completion against m, evaluating every ply
// under both the partial- and full-information views and choosing actions
// per the exploration policy below, returning the number of plies played.
//
// A coin flip decides, once per game, whether this game explores at all. An
// exploring game takes a uniformly random action 30% of the time and the
// partial-information evaluation's best action otherwise; a non-exploring
// game always takes the full-information best action.
func playGame(s *session, m *nn.Model, rng *rand.Rand) int {
	s.adapter.Init()
	turnCount := 0
	exploreGame := rng.Float64() > 0.5

	for s.adapter.Result() == coregame.Playing {
		p := s.plyAt(turnCount)
		turnCount++

		s.adapter.Encode(p.input)
		p.player2Turn = s.adapter.Player2Turn()
		m.Forward(&p.eval, p.input, false)
		m.Forward(&p.evalFull, p.input, true)

		if exploreGame {
			r := rng.Float64()
			if r < 0.3 {
				p.chosenAction = min(int(r*float64(p.avail())/0.3), p.avail()-1)
			} else {
				p.chosenAction = p.eval.BestAction()
			}
		} else {
			p.chosenAction = p.evalFull.BestAction()
		}

		s.adapter.Advance(p.chosenAction)
	}
	return turnCount
}

// replayGame re-evaluates every recorded ply's input against m without
// re-playing the game. Nothing in the package calls it at present.
func replayGame(s *session, m *nn.Model, turnCount int) {
	for i := 0; i < turnCount; i++ {
		p := s.plies[i]
		m.Forward(&p.eval, p.input, false)
		m.Forward(&p.evalFull, p.input, true)
	}
}

// clampedBestPct folds evalFull's output against its pass entry, as
// nn.Eval.ClampedBestPct does, except the entry at replaceAction is
// substituted with replaceVal before the fold -- used by the backward sweep
// to bootstrap off a ply's already-corrected target instead of its stale
// network output.
func clampedBestPct(e *nn.Eval, replaceAction int, replaceVal float32) float32 {
	out := e.Out()
	at := func(i int) float32 {
		if i == replaceAction {
			return replaceVal
		}
		return out[i]
	}
	best := at(0)
	for i := 1; i < len(out); i++ {
		if v := at(i); v > best {
			best = v
		}
	}
	switch {
	case best < 0:
		return 0
	case best > 1:
		return 1
	default:
		return best
	}
}

// runN plays n games of m1 (as p1) against m2 (as p2), both acting on their
// partial-information best action, and returns the win count for each. rng
// is unused -- partial-information best-action play has no randomness of
// its own -- but kept so callers don't need a separate no-rng signature.
func runN(m1, m2 *nn.Model, newAdapter func() coregame.Adapter, newEnc func() *coregame.Encoded, n int, rng *rand.Rand) (p1Wins, p2Wins int) {
	p1, p2, _ := PlayBatch(m1, m2, newAdapter, newEnc, n)
	return p1, p2
}

// PlayBatch plays n games of m1 (as p1) against m2 (as p2) on fresh
// adapters, both acting on their partial-information best action, and
// returns the win/tie counts. This is the shared partial-information batch
// primitive ported from ai_play.cpp's run_n/run_100: Worker's baseline
// competition sub-worker and the tournament engine's pairwise sweep are
// both built on top of it.
func PlayBatch(m1, m2 *nn.Model, newAdapter func() coregame.Adapter, newEnc func() *coregame.Encoded, n int) (p1Wins, p2Wins, ties int) {
	s := newSession(newAdapter(), newEnc)
	for x := 0; x < n; x++ {
		s.adapter.Init()
		turn := 0
		for s.adapter.Result() == coregame.Playing {
			p := s.plyAt(turn)
			turn++
			s.adapter.Encode(p.input)
			mover := m1
			if s.adapter.Player2Turn() {
				mover = m2
			}
			mover.Forward(&p.eval, p.input, false)
			p.chosenAction = p.eval.BestAction()
			s.adapter.Advance(p.chosenAction)
		}
		switch s.adapter.Result() {
		case coregame.P1Win:
			p1Wins++
		case coregame.P2Win:
			p2Wins++
		default:
			ties++
		}
	}
	return p1Wins, p2Wins, ties
}
