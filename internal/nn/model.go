package nn

import (
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/numeric"
)

// Dims parameterizes a Model's topology. BoardHidden/TrunkHidden/
// CardInHidden/CardOutHidden are the hidden-layer widths of the
// corresponding stack; the own-card and opponent-card encoders share
// CardOutWidth and CardInHidden.
type Dims struct {
	BoardOutWidth int
	CardOutWidth  int
	TrunkOutWidth int

	BoardHidden   []int
	TrunkHidden   []int
	CardInHidden  []int
	CardOutHidden []int
}

// DefaultDims mirrors model.cpp's Model::randomize constants.
func DefaultDims() Dims {
	return Dims{
		BoardOutWidth: 10,
		CardOutWidth:  8,
		TrunkOutWidth: 18,
		BoardHidden:   []int{10},
		TrunkHidden:   []int{20, 22, 24, 26},
		CardInHidden:  []int{8},
		CardOutHidden: []int{8, 8, 8},
	}
}

// MediumDims is a reduced-capacity preset for faster iteration during
// development and smaller test fixtures.
func MediumDims() Dims {
	return Dims{
		BoardOutWidth: 6,
		CardOutWidth:  5,
		TrunkOutWidth: 10,
		BoardHidden:   []int{6},
		TrunkHidden:   []int{12, 14},
		CardInHidden:  []int{5},
		CardOutHidden: []int{5, 5},
	}
}

// SmallDims is the smallest viable preset, for unit tests that only need
// correct shapes and fast finite-difference gradient checks.
func SmallDims() Dims {
	return Dims{
		BoardOutWidth: 3,
		CardOutWidth:  2,
		TrunkOutWidth: 4,
		BoardHidden:   []int{3},
		TrunkHidden:   []int{4},
		CardInHidden:  []int{2},
		CardOutHidden: []int{2},
	}
}

// Model is the composite network trained by a self-play worker: a board
// encoder and a pair of per-card encoders feed a shared trunk, whose output
// drives a pass head and one play-card head per own-hand card.
type Model struct {
	Board     *Stack
	CardIn    *Stack
	YouCardIn *Stack
	Trunk     *Stack
	Pass      *Layer
	CardOut   *Stack

	dims      Dims
	boardSize int
	cardSize  int
	scratch   numeric.ScratchPool
}

// NewModel builds a freshly randomized model sized for an adapter whose
// board feature width is boardSize and per-card feature width is cardSize.
func NewModel(dims Dims, boardSize, cardSize int) *Model {
	return &Model{
		Board:     NewStack(boardSize, dims.BoardHidden, dims.BoardOutWidth),
		CardIn:    NewStack(cardSize, dims.CardInHidden, dims.CardOutWidth),
		YouCardIn: NewStack(cardSize, dims.CardInHidden, dims.CardOutWidth),
		Trunk:     NewStack(dims.BoardOutWidth+dims.CardOutWidth, dims.TrunkHidden, dims.TrunkOutWidth),
		Pass:      NewLayer(dims.TrunkOutWidth, 1),
		CardOut:   NewStack(dims.TrunkOutWidth+dims.CardOutWidth, dims.CardOutHidden, 1),
		dims:      dims,
		boardSize: boardSize,
		cardSize:  cardSize,
	}
}

// FromParts reassembles a Model from previously-persisted sub-networks,
// bypassing NewModel's randomization. Used by internal/persist to rebuild a
// Model from a loaded document.
func FromParts(dims Dims, board, cardIn, youCardIn, trunk *Stack, pass *Layer, cardOut *Stack) *Model {
	return &Model{
		Board:     board,
		CardIn:    cardIn,
		YouCardIn: youCardIn,
		Trunk:     trunk,
		Pass:      pass,
		CardOut:   cardOut,
		dims:      dims,
		boardSize: board.InSize(),
		cardSize:  cardIn.InSize(),
	}
}

// Clone returns a deep, independent copy of the model, preserving Dims.
func (m *Model) Clone() *Model {
	return &Model{
		Board:     m.Board.Clone(),
		CardIn:    m.CardIn.Clone(),
		YouCardIn: m.YouCardIn.Clone(),
		Trunk:     m.Trunk.Clone(),
		Pass:      m.Pass.Clone(),
		CardOut:   m.CardOut.Clone(),
		dims:      m.dims,
		boardSize: m.boardSize,
		cardSize:  m.cardSize,
	}
}

// Dims returns the topology this model was built with.
func (m *Model) Dims() Dims { return m.dims }

// cardOutEval holds one play-card head's per-call scratch: the concatenated
// (trunk_out, own_card_encoding) input and the head's own StackEval.
type cardOutEval struct {
	input numeric.Vec
	eval  StackEval
}

// Eval is the per-call scratch object for one Model evaluation, reused by
// the caller across iterations to avoid reallocating on every turn.
type Eval struct {
	board StackEval
	trunk StackEval

	lInput numeric.Vec // trunk input: concat(board_out, card_pool)
	lGrad  numeric.Vec

	cardsIn    []StackEval
	youCardsIn []StackEval
	cardsOut   []cardOutEval

	allOut numeric.Vec
}

// Out returns the model's output vector: index 0 is the pass head's
// estimate, index i+1 is own-hand card i's play estimate.
func (e *Eval) Out() numeric.Slice { return e.allOut.Slice() }

// BestAction returns the index into Out() with the highest value.
func (e *Eval) BestAction() int {
	best := 0
	bestVal := e.allOut[0]
	for i := 1; i < len(e.allOut); i++ {
		if e.allOut[i] > bestVal {
			best = i
			bestVal = e.allOut[i]
		}
	}
	return best
}

// ClampedBestPct folds the non-pass entries (Out()[1:]) against the pass
// entry, clamped to [0,1].
func (e *Eval) ClampedBestPct() float32 {
	v := numeric.Slice(e.allOut[1:]).Max(e.allOut[0])
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ensureLen(v *numeric.Vec, n int) {
	if cap(*v) < n {
		*v = numeric.NewVec(n)
	} else {
		*v = (*v)[:n]
	}
}

// Forward evaluates the model on enc, writing the per-action estimate
// vector into e. When full is false the opponent-hand encoder is skipped
// and its contribution to the trunk input is omitted -- the partial-
// information view a player acts under.
func (m *Model) Forward(e *Eval, enc *coregame.Encoded, full bool) {
	m.Board.Forward(&e.board, enc.Board())

	ensureLen(&e.lInput, m.dims.BoardOutWidth+m.dims.CardOutWidth)
	lInput := e.lInput.Slice()
	board, cardPool := lInput.Split(m.dims.BoardOutWidth)
	board.Assign(e.board.Out())
	cardPool.Fill(0)

	if cap(e.cardsIn) < enc.MeCards {
		e.cardsIn = make([]StackEval, enc.MeCards)
	}
	e.cardsIn = e.cardsIn[:enc.MeCards]
	for i := 0; i < enc.MeCards; i++ {
		m.CardIn.Forward(&e.cardsIn[i], enc.MeCard(i))
		cardPool.Add(e.cardsIn[i].Out())
	}

	if full {
		if cap(e.youCardsIn) < enc.YouCards {
			e.youCardsIn = make([]StackEval, enc.YouCards)
		}
		e.youCardsIn = e.youCardsIn[:enc.YouCards]
		for j := 0; j < enc.YouCards; j++ {
			m.YouCardIn.Forward(&e.youCardsIn[j], enc.YouCard(j))
			cardPool.Add(e.youCardsIn[j].Out())
		}
	} else {
		e.youCardsIn = e.youCardsIn[:0]
	}

	m.Trunk.Forward(&e.trunk, lInput)

	ensureLen(&e.allOut, enc.AvailActions())
	allOut := e.allOut.Slice()
	m.Pass.Forward(e.trunk.Out(), allOut.Sub(0, 1))

	if cap(e.cardsOut) < enc.MeCards {
		e.cardsOut = make([]cardOutEval, enc.MeCards)
	}
	e.cardsOut = e.cardsOut[:enc.MeCards]
	width := m.dims.TrunkOutWidth + m.dims.CardOutWidth
	for i := 0; i < enc.MeCards; i++ {
		ensureLen(&e.cardsOut[i].input, width)
		in := e.cardsOut[i].input.Slice()
		trunkPart, cardPart := in.Split(m.dims.TrunkOutWidth)
		trunkPart.Assign(e.trunk.Out())
		cardPart.Assign(e.cardsIn[i].Out())
		m.CardOut.Forward(&e.cardsOut[i].eval, in)
		allOut[i+1] = e.cardsOut[i].eval.Out()[0]
	}
}

// Backward propagates an output gradient of length enc.AvailActions() back
// through the model, accumulating into every sub-network's delta. Must be
// called after the matching Forward with the same enc and full.
func (m *Model) Backward(e *Eval, enc *coregame.Encoded, grad numeric.Slice, full bool) {
	passGrad, cardsGrad := grad.Split(1)

	ensureLen(&e.lGrad, m.Pass.InSize())
	lGrad := e.lGrad.Slice()
	m.Pass.Backward(lGrad, e.trunk.Out(), passGrad)

	for i := 0; i < enc.MeCards; i++ {
		m.CardOut.Backward(&e.cardsOut[i].eval, e.cardsOut[i].input.Slice(), cardsGrad.Sub(i, 1))
		lGrad.Add(e.cardsOut[i].eval.Errs().Sub(0, m.dims.TrunkOutWidth))
	}

	m.Trunk.Backward(&e.trunk, e.lInput.Slice(), lGrad)

	trunkErrs := e.trunk.Errs()
	boardErrs, cardErrsFromTrunk := trunkErrs.Split(m.dims.BoardOutWidth)

	if full {
		for j := 0; j < enc.YouCards; j++ {
			m.YouCardIn.Backward(&e.youCardsIn[j], enc.YouCard(j), cardErrsFromTrunk)
		}
	}

	cardGrad, release := m.scratch.Get(m.dims.CardOutWidth)
	defer release()
	for i := 0; i < enc.MeCards; i++ {
		cardGrad.AssignAdd(cardErrsFromTrunk, e.cardsOut[i].eval.Errs().Sub(m.dims.TrunkOutWidth, m.dims.CardOutWidth))
		m.CardIn.Backward(&e.cardsIn[i], enc.MeCard(i), cardGrad)
	}

	m.Board.Backward(&e.board, enc.Board(), boardErrs)
}

// Learn applies one Adam-variant update to every sub-network.
func (m *Model) Learn(lr float32) {
	m.Board.Learn(lr)
	m.Trunk.Learn(lr)
	m.Pass.Learn(lr)
	m.CardIn.Learn(lr)
	m.YouCardIn.Learn(lr)
	m.CardOut.Learn(lr)
}

// Normalize applies elastic-net shrinkage to every sub-network.
func (m *Model) Normalize(lr float32) {
	m.Board.Normalize(lr)
	m.Trunk.Normalize(lr)
	m.Pass.Normalize(lr)
	m.CardIn.Normalize(lr)
	m.YouCardIn.Normalize(lr)
	m.CardOut.Normalize(lr)
}

// ResetGradient zeroes every sub-network's accumulated delta.
func (m *Model) ResetGradient() {
	m.Board.ResetGradient()
	m.Trunk.ResetGradient()
	m.Pass.ResetGradient()
	m.CardIn.ResetGradient()
	m.YouCardIn.ResetGradient()
	m.CardOut.ResetGradient()
}
