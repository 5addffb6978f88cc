package nn

import "github.com/lox/cardselfplay/internal/numeric"

// leakyReLUForward writes y[i] = x[i] if x[i] >= 0 else x[i]/10 into out.
func leakyReLUForward(x, out numeric.Slice) {
	for i, v := range x {
		if v >= 0 {
			out[i] = v
		} else {
			out[i] = v / 10
		}
	}
}

// leakyReLUBackward writes errOut[i] = grad[i] if preAct[i] >= 0 else
// grad[i]/10, where preAct is the same pre-activation input that was passed
// to leakyReLUForward.
func leakyReLUBackward(preAct, grad, errOut numeric.Slice) {
	for i, v := range preAct {
		if v >= 0 {
			errOut[i] = grad[i]
		} else {
			errOut[i] = grad[i] / 10
		}
	}
}
