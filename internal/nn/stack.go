package nn

import (
	"fmt"

	"github.com/lox/cardselfplay/internal/numeric"
)

// Stack is a non-empty, ordered sequence of (dense, leaky-relu) pairs. Its
// layer widths chain: layer i's output width equals layer i+1's input
// width.
type Stack struct {
	layers    []*Layer
	innerSize int
	maxOut    int
	scratch   numeric.ScratchPool
}

// NewStack builds a stack of dense layers with the given widths: input,
// then each hidden width in order, then output.
func NewStack(input int, hidden []int, output int) *Stack {
	s := &Stack{}
	in := input
	for _, w := range hidden {
		l := NewLayer(in, w)
		s.layers = append(s.layers, l)
		// non-last layers contribute preAct+postAct to the inner buffer.
		s.innerSize += 2 * l.OutSize()
		if l.OutSize() > s.maxOut {
			s.maxOut = l.OutSize()
		}
		in = w
	}
	last := NewLayer(in, output)
	s.layers = append(s.layers, last)
	// the last layer contributes only its preAct; its postAct is the
	// stack's overall output, stored separately.
	s.innerSize += last.OutSize()
	if last.OutSize() > s.maxOut {
		s.maxOut = last.OutSize()
	}
	return s
}

// InSize is the first layer's input width.
func (s *Stack) InSize() int { return s.layers[0].InSize() }

// OutSize is the last layer's output width.
func (s *Stack) OutSize() int { return s.layers[len(s.layers)-1].OutSize() }

// InnerSize is the total storage needed for pre/post-activation
// intermediates consumed by Backward: the sum over layers of
// (dense.out + relu.out), omitting the last layer's relu.out (which is the
// stack's own Out()).
func (s *Stack) InnerSize() int { return s.innerSize }

// StackEval is the scratch object for one Stack evaluation, reused across
// iterations by the caller to amortize allocation.
type StackEval struct {
	buf  numeric.Vec
	in   int
	out  int
	errs numeric.Slice
}

// realloc ensures the eval's backing buffer matches the given sizes,
// reusing the existing allocation when it already fits.
func (e *StackEval) realloc(inSize, innerSize, outSize int) {
	total := innerSize + outSize
	if cap(e.buf) < total {
		e.buf = make(numeric.Vec, total)
	} else {
		e.buf = e.buf[:total]
	}
	e.in = inSize
	e.out = outSize
	if cap(e.errs) < inSize {
		e.errs = make(numeric.Slice, inSize)
	} else {
		e.errs = e.errs[:inSize]
	}
}

func (e *StackEval) inner(innerSize int) numeric.Slice { return e.buf.Slice().Sub(0, innerSize) }

// Out returns the stack's output vector, valid after Forward.
func (e *StackEval) Out() numeric.Slice { return e.buf.Slice().From(len(e.buf) - e.out) }

// Errs returns the gradient flowing into the stack's input, valid after
// Backward.
func (e *StackEval) Errs() numeric.Slice { return e.errs }

// Forward evaluates the stack on in, writing results into e. in must have
// length s.InSize().
func (s *Stack) Forward(e *StackEval, in numeric.Slice) {
	if len(in) != s.InSize() {
		panic(fmt.Sprintf("nn: stack forward input length %d, want %d", len(in), s.InSize()))
	}
	e.realloc(s.InSize(), s.innerSize, s.OutSize())
	inner := e.inner(s.innerSize)
	out := e.Out()

	curIn := in
	curInner := inner
	for i := 0; i < len(s.layers)-1; i++ {
		width := s.layers[i].OutSize()
		preAct, rest := curInner.Split(width)
		postAct, newInner := rest.Split(width)
		s.layers[i].Forward(curIn, preAct)
		leakyReLUForward(preAct, postAct)
		curIn = postAct
		curInner = newInner
	}
	last := s.layers[len(s.layers)-1]
	// curInner now holds exactly the last layer's preAct buffer.
	last.Forward(curIn, curInner)
	leakyReLUForward(curInner, out)
}

// Backward propagates the output gradient grad (length s.OutSize()) back
// through the stack given the forward input in (length s.InSize()) and the
// StackEval populated by the matching Forward call. The downstream gradient is
// available afterward via e.Errs().
func (s *Stack) Backward(e *StackEval, in, grad numeric.Slice) {
	if len(s.layers) == 0 {
		panic("nn: empty stack")
	}
	inner := e.inner(s.innerSize)
	errs := e.Errs()

	if len(s.layers) == 1 {
		tmp, release := s.scratch.Get(s.layers[0].OutSize())
		defer release()
		leakyReLUBackward(inner, grad, tmp)
		s.layers[0].Backward(errs, in, tmp)
		return
	}

	maxIn := 0
	for i := 1; i < len(s.layers); i++ {
		maxIn = max(maxIn, s.layers[i].InSize())
	}
	tmp, release := s.scratch.Get(maxIn)
	defer release()

	reluGrad, releaseRelu := s.scratch.Get(s.maxOut)
	defer releaseRelu()

	curGrad := grad
	for i := len(s.layers) - 1; i >= 1; i-- {
		layer := s.layers[i]
		x, preAct := inner.RSplit(layer.OutSize())
		newInner, curIn := x.RSplit(layer.InSize())
		// curGrad (a prefix of tmp after the first step) is fully consumed
		// into r before Backward overwrites tmp with this layer's errors.
		curErrs := tmp[:layer.InSize()]

		r := reluGrad[:layer.OutSize()]
		leakyReLUBackward(preAct, curGrad, r)
		layer.Backward(curErrs, curIn, r)

		curGrad = curErrs
		inner = newInner
	}
	// inner is now exactly the first layer's preAct buffer.
	first := s.layers[0]
	r := reluGrad[:first.OutSize()]
	leakyReLUBackward(inner, curGrad, r)
	first.Backward(errs, in, r)
}

// Learn applies one Adam-variant update to every layer in the stack.
func (s *Stack) Learn(lr float32) {
	for _, l := range s.layers {
		l.Learn(lr)
	}
}

// Normalize applies elastic-net shrinkage to every layer in the stack.
func (s *Stack) Normalize(lr float32) {
	for _, l := range s.layers {
		l.Normalize(lr)
	}
}

// ResetGradient zeroes every layer's accumulated delta.
func (s *Stack) ResetGradient() {
	for _, l := range s.layers {
		l.ResetGradient()
	}
}

// Clone returns a deep copy of the stack, independent of this one.
func (s *Stack) Clone() *Stack {
	c := &Stack{innerSize: s.innerSize, maxOut: s.maxOut}
	c.layers = make([]*Layer, len(s.layers))
	for i, l := range s.layers {
		c.layers[i] = l.Clone()
	}
	return c
}

// Layers returns the stack's ordered layers, for persistence. Callers must
// not retain the slice past a subsequent mutation of the stack.
func (s *Stack) Layers() []*Layer { return s.layers }

// NewStackFromLayers reassembles a stack from previously-persisted layers,
// recomputing innerSize/maxOut the same way NewStack does. layers must be
// non-empty and already width-chained.
func NewStackFromLayers(layers []*Layer) *Stack {
	s := &Stack{layers: layers}
	for i, l := range layers {
		if i < len(layers)-1 {
			s.innerSize += 2 * l.OutSize()
		} else {
			s.innerSize += l.OutSize()
		}
		if l.OutSize() > s.maxOut {
			s.maxOut = l.OutSize()
		}
	}
	return s
}
