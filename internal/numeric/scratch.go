package numeric

import "sync"

// ScratchPool hands out transient Slices for hot-loop intermediates without
// allocating on every call. It plays the role the original's stack-allocated
// VEC_STACK_VEC macro played in C++: a scratch vector scoped to the call
// that acquired it, guaranteed released on every exit path. Go has no
// stack-allocated variable-length arrays, so this is backed by a sync.Pool
// of growable buffers instead.
type ScratchPool struct {
	pool sync.Pool
}

// Get returns a Slice of exactly n elements (zeroed) and a release func the
// caller must invoke on every exit path, typically via defer.
func (p *ScratchPool) Get(n int) (Slice, func()) {
	v, _ := p.pool.Get().(Vec)
	if cap(v) < n {
		v = make(Vec, n)
	} else {
		v = v[:n]
		for i := range v {
			v[i] = 0
		}
	}
	release := func() {
		p.pool.Put(v)
	}
	return Slice(v), release
}
