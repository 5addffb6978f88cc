// Package selfplay drives a Model through repeated games against a
// coregame.Adapter, label-less TD(0) self-play: every ply is evaluated both
// partial- and full-information, the game is played to completion, then a
// single backward sweep over the recorded plies turns the terminal outcome
// into a per-ply training target.
package selfplay

import (
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
	"github.com/lox/cardselfplay/internal/numeric"
)

// ply records one turn of a played game: the encoded state, the model's
// partial- and full-information evaluations of it, the action taken, and
// the error vectors filled in once the game's outcome is known.
type ply struct {
	input        *coregame.Encoded
	player2Turn  bool
	eval         nn.Eval
	evalFull     nn.Eval
	chosenAction int

	errPartial numeric.Vec
	errFull    numeric.Vec
}

func (p *ply) avail() int { return p.input.AvailActions() }

func (p *ply) errPartialSlice() numeric.Slice {
	if cap(p.errPartial) < p.avail() {
		p.errPartial = numeric.NewVec(p.avail())
	}
	p.errPartial = p.errPartial[:p.avail()]
	return p.errPartial.Slice()
}

func (p *ply) errFullSlice() numeric.Slice {
	if cap(p.errFull) < p.avail() {
		p.errFull = numeric.NewVec(p.avail())
	}
	p.errFull = p.errFull[:p.avail()]
	return p.errFull.Slice()
}
