// Package nn implements the dense-layer/activation/stack/composite-model
// algebra described in spec.md section 4: a residual dense layer with
// Adam-style moment estimation and elastic-net decay, a leaky-ReLU
// nonlinearity, a sequential stack of the two, and a composite model whose
// topology mirrors the game (board/own-card/opponent-card encoders feeding
// a shared trunk and per-action output heads).
package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lox/cardselfplay/internal/numeric"
)

const (
	adamRho1 = 0.1
	adamRho2 = 0.001
	adamEps  = 1e-8
	l2Shrink = 1e-11
	l1Shrink = 1e-11
)

// Layer is an affine map y = W*x + b with a residual/skip connection over
// the first min(in,out) entries, plus the Adam-moment and accumulated-delta
// state needed to train it. It owns one buffer of size 4*(in+1)*out,
// partitioned into four equal panels: coefficients W, first moment g1,
// second moment g2, and accumulated delta.
type Layer struct {
	data   numeric.Vec
	in     int // input width including the implicit bias row
	out    int
	minIO  int
	deltas int
}

// NewLayer allocates a layer mapping an `in`-wide input to an `out`-wide
// output, with W drawn uniformly in +/-1/(in+1). Moments and delta start at
// zero.
func NewLayer(in, out int) *Layer {
	l := &Layer{
		in:    in + 1, // +1 for the bias row
		out:   out,
		minIO: min(in, out),
	}
	l.data = numeric.NewVec(4 * l.in * l.out)
	w := l.w()
	bound := 1.0 / float32(l.in)
	for i := 0; i < w.Rows(); i++ {
		row := w.Row(i)
		for j := range row {
			row[j] = (rand.Float32()*2 - 1) * bound
		}
	}
	return l
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// InSize is the input width, excluding the implicit bias row.
func (l *Layer) InSize() int { return l.in - 1 }

// OutSize is the output width.
func (l *Layer) OutSize() int { return l.out }

// Deltas returns the number of Backward calls accumulated since the last
// ResetGradient. Exposed for tests.
func (l *Layer) Deltas() int { return l.deltas }

func (l *Layer) panel(index int) numeric.Matrix {
	stride := l.in * l.out
	return numeric.NewMatrix(l.data.Slice().Sub(index*stride, stride), l.in, l.out)
}

func (l *Layer) w() numeric.Matrix     { return l.panel(0) }
func (l *Layer) g1() numeric.Matrix    { return l.panel(1) }
func (l *Layer) g2() numeric.Matrix    { return l.panel(2) }
func (l *Layer) delta() numeric.Matrix { return l.panel(3) }

// Forward computes out = bias_row + sum_i W[i,:]*in[i], then adds the
// residual in[0:minIO] into out[0:minIO]. in must have length InSize(), out
// must have length OutSize().
func (l *Layer) Forward(in, out numeric.Slice) {
	if len(in) != l.InSize() {
		panic(fmt.Sprintf("nn: layer forward input length %d, want %d", len(in), l.InSize()))
	}
	if len(out) != l.out {
		panic(fmt.Sprintf("nn: layer forward output length %d, want %d", len(out), l.out))
	}
	w := l.w()
	out.Assign(w.LastRow())
	for i := 0; i < l.InSize(); i++ {
		out.FMAScalar(w.Row(i), in[i])
	}
	out.Sub(0, l.minIO).Add(in.Sub(0, l.minIO))
}

// Backward accumulates the delta for this layer given the upstream gradient
// grad (length OutSize()) and the forward input in (length InSize()),
// writing the downstream error into errOut (length InSize()). Increments
// the internal delta counter by one.
func (l *Layer) Backward(errOut, in, grad numeric.Slice) {
	if len(errOut) != l.InSize() {
		panic(fmt.Sprintf("nn: layer backward errOut length %d, want %d", len(errOut), l.InSize()))
	}
	if len(in) != l.InSize() {
		panic(fmt.Sprintf("nn: layer backward in length %d, want %d", len(in), l.InSize()))
	}
	if len(grad) != l.out {
		panic(fmt.Sprintf("nn: layer backward grad length %d, want %d", len(grad), l.out))
	}
	w := l.w()
	d := l.delta()
	for j := 0; j < l.InSize(); j++ {
		errOut[j] = grad.Dot(w.Row(j))
		d.Row(j).FMAScalar(grad, in[j])
	}
	errOut.Sub(0, l.minIO).Add(grad.Sub(0, l.minIO))
	d.LastRow().Add(grad)
	l.deltas++
}

// ResetGradient zeroes the accumulated delta and resets the delta counter.
// Must be called before the first Backward of a new accumulation window.
func (l *Layer) ResetGradient() {
	l.deltas = 0
	l.delta().Flat().Fill(0)
}

// Learn applies one Adam-variant update using the accumulated delta,
// averaged over the number of backprop calls since the last ResetGradient.
// A no-op if no gradients were accumulated.
func (l *Layer) Learn(lr float32) {
	if l.deltas == 0 {
		return
	}
	w, g1, g2, d := l.w(), l.g1(), l.g2(), l.delta()
	inv := 1.0 / float32(l.deltas)
	for i := 0; i < d.Rows(); i++ {
		row := d.Row(i)
		row.Mult(inv)
		g1.Row(i).DecayAverage(row, adamRho1)
		g2.Row(i).DecayVariance(row, adamRho2)
		wr, g1r, g2r := w.Row(i), g1.Row(i), g2.Row(i)
		for j := range wr {
			wr[j] -= lr * g1r[j] / sqrt32(g2r[j]+adamEps)
		}
	}
}

// Normalize applies elastic-net shrinkage (L2 multiplicative decay composed
// with L1 soft-thresholding) to every weight. Intended to be called with a
// very small lr relative to Learn's.
func (l *Layer) Normalize(lr float32) {
	l1 := float32(l1Shrink) * lr
	flat := l.w().Flat()
	for i, e := range flat {
		e *= 1 - float32(l2Shrink)*lr
		switch {
		case e < -l1:
			e += l1
		case e > l1:
			e -= l1
		default:
			e = 0
		}
		flat[i] = e
	}
}

// Clone returns a deep copy of the layer, independent of this one.
func (l *Layer) Clone() *Layer {
	c := &Layer{in: l.in, out: l.out, minIO: l.minIO, deltas: l.deltas}
	c.data = make(numeric.Vec, len(l.data))
	copy(c.data, l.data)
	return c
}

// RawData returns the layer's full backing buffer (the W/G1/G2/delta panels
// concatenated), for persistence. Callers must not retain it past a
// subsequent mutation of the layer.
func (l *Layer) RawData() []float32 { return l.data }

// MinIO returns the residual/skip width (min(in, out) at construction).
func (l *Layer) MinIO() int { return l.minIO }

// DeltaCount returns the number of Backward calls accumulated since the
// last ResetGradient, identical to Deltas -- kept as a persistence-facing
// alias so internal/persist reads the same name it writes.
func (l *Layer) DeltaCount() int { return l.deltas }

// NewLayerFromData reconstructs a layer from a previously-persisted raw
// buffer and shape, bypassing NewLayer's randomization. inWidth is the
// bias-inclusive input width (InSize()+1); data must have length
// 4*inWidth*out.
func NewLayerFromData(inWidth, out, minIO, deltaCount int, data []float32) *Layer {
	want := 4 * inWidth * out
	if len(data) != want {
		panic(fmt.Sprintf("nn: layer data length %d, want %d", len(data), want))
	}
	buf := make(numeric.Vec, want)
	copy(buf, data)
	return &Layer{data: buf, in: inWidth, out: out, minIO: minIO, deltas: deltaCount}
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
