package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lox/cardselfplay/internal/coregame"
)

func fixedEncoded(boardSize, cardSize, meCards, youCards int) *coregame.Encoded {
	enc := coregame.NewEncoded(boardSize, cardSize, meCards, youCards)
	enc.MeCards = meCards
	enc.YouCards = youCards
	for i := range enc.Board() {
		enc.Board()[i] = rand.Float32()*2 - 1
	}
	for i := 0; i < meCards; i++ {
		c := enc.MeCard(i)
		for j := range c {
			c[j] = rand.Float32()*2 - 1
		}
	}
	for i := 0; i < youCards; i++ {
		c := enc.YouCard(i)
		for j := range c {
			c[j] = rand.Float32()*2 - 1
		}
	}
	return enc
}

func testDims() Dims {
	return Dims{
		BoardOutWidth: 6,
		CardOutWidth:  4,
		TrunkOutWidth: 8,
		BoardHidden:   []int{6},
		TrunkHidden:   []int{8},
		CardInHidden:  []int{4},
		CardOutHidden: []int{4},
	}
}

func TestModelForwardShapes(t *testing.T) {
	dims := testDims()
	m := NewModel(dims, 6, 3)
	enc := fixedEncoded(6, 3, 2, 3)

	var e Eval
	m.Forward(&e, enc, true)
	if len(e.Out()) != 3 {
		t.Fatalf("full out length = %d, want 3", len(e.Out()))
	}

	var ePartial Eval
	m.Forward(&ePartial, enc, false)
	if len(ePartial.Out()) != 3 {
		t.Fatalf("partial out length = %d, want 3", len(ePartial.Out()))
	}
}

func TestModelMeCardsZeroBoundary(t *testing.T) {
	dims := testDims()
	m := NewModel(dims, 6, 3)
	enc := fixedEncoded(6, 3, 0, 2)

	var e Eval
	m.Forward(&e, enc, true)
	if len(e.Out()) != 1 {
		t.Fatalf("out length = %d, want 1 (pass only)", len(e.Out()))
	}
}

func TestModelYouCardsZeroMatchesPartial(t *testing.T) {
	dims := testDims()
	m := NewModel(dims, 6, 3)
	enc := fixedEncoded(6, 3, 2, 0)

	var eFull Eval
	m.Forward(&eFull, enc, true)
	var ePartial Eval
	m.Forward(&ePartial, enc, false)

	for i := range eFull.Out() {
		if eFull.Out()[i] != ePartial.Out()[i] {
			t.Fatalf("full/partial diverge at %d with you_cards=0: %v != %v", i, eFull.Out()[i], ePartial.Out()[i])
		}
	}
}

// TestModelGradientCheck verifies the analytic gradient on one trunk weight
// matches a central finite-difference estimate.
func TestModelGradientCheck(t *testing.T) {
	dims := testDims()
	m := NewModel(dims, 6, 3)
	enc := fixedEncoded(6, 3, 2, 2)

	loss := func() float32 {
		var e Eval
		m.Forward(&e, enc, true)
		var sum float32
		for _, v := range e.Out() {
			sum += v * v
		}
		return sum
	}

	w := m.Trunk.layers[0].w()
	ri, ci := 1, 2
	const eps = 1e-3

	orig := w.Row(ri)[ci]

	w.Row(ri)[ci] = orig + eps
	lossPlus := loss()
	w.Row(ri)[ci] = orig - eps
	lossMinus := loss()
	w.Row(ri)[ci] = orig

	numGrad := (lossPlus - lossMinus) / (2 * eps)

	var e Eval
	m.Forward(&e, enc, true)
	grad := make([]float32, len(e.Out()))
	for i, v := range e.Out() {
		grad[i] = 2 * v
	}
	m.ResetGradient()
	m.Backward(&e, enc, grad, true)

	analytic := m.Trunk.layers[0].delta().Row(ri)[ci]

	if math.Abs(float64(numGrad-analytic)) > 1e-2 {
		t.Fatalf("gradient mismatch: numeric=%v analytic=%v", numGrad, analytic)
	}
}

func TestModelCloneIndependence(t *testing.T) {
	dims := testDims()
	m := NewModel(dims, 6, 3)
	c := m.Clone()

	c.Trunk.layers[0].w().Row(0)[0] = 12345

	if m.Trunk.layers[0].w().Row(0)[0] == 12345 {
		t.Fatal("clone shares backing storage with original")
	}
}
