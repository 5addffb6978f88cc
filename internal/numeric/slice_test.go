package numeric

import "testing"

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestSliceDot(t *testing.T) {
	a := Slice{1, 2, 3}
	b := Slice{4, 5, 6}
	if got, want := a.Dot(b), float32(32); got != want {
		t.Fatalf("dot = %v, want %v", got, want)
	}
}

func TestSliceDot1BiasAbsorption(t *testing.T) {
	// this has one more element than b; the extra trailing element is the bias.
	this := Slice{1, 2, 100}
	b := Slice{4, 5}
	if got, want := this.Dot1(b), float32(1*4+2*5+100); got != want {
		t.Fatalf("dot1 = %v, want %v", got, want)
	}
}

func TestSliceFMA(t *testing.T) {
	s := Slice{1, 1, 1}
	a := Slice{2, 2, 2}
	b := Slice{3, 3, 3}
	s.FMA(a, b)
	for i, v := range s {
		if v != 7 {
			t.Fatalf("s[%d] = %v, want 7", i, v)
		}
	}
}

func TestSliceDecayAverage(t *testing.T) {
	s := Slice{10}
	s.DecayAverage(Slice{0}, 0.1)
	if got, want := s[0], float32(9); abs32(got-want) > 1e-6 {
		t.Fatalf("decay average = %v, want %v", got, want)
	}
}

func TestSliceDecayVariance(t *testing.T) {
	s := Slice{0}
	s.DecayVariance(Slice{2}, 0.001)
	if got, want := s[0], float32(0.001*4); abs32(got-want) > 1e-6 {
		t.Fatalf("decay variance = %v, want %v", got, want)
	}
}

func TestSliceMaxMin(t *testing.T) {
	s := Slice{-5, 3, 9, 0}
	if got := s.Max(0); got != 9 {
		t.Fatalf("max = %v, want 9", got)
	}
	if got := s.Min(0); got != -5 {
		t.Fatalf("min = %v, want -5", got)
	}
}

func TestSliceSplitRSplit(t *testing.T) {
	s := Slice{1, 2, 3, 4, 5}
	head, tail := s.Split(2)
	if len(head) != 2 || len(tail) != 3 {
		t.Fatalf("split lengths = %d,%d", len(head), len(tail))
	}
	if head[1] != 2 || tail[0] != 3 {
		t.Fatalf("split contents wrong: %v %v", head, tail)
	}

	rhead, rtail := s.RSplit(2)
	if len(rhead) != 3 || len(rtail) != 2 {
		t.Fatalf("rsplit lengths = %d,%d", len(rhead), len(rtail))
	}
	if rtail[0] != 4 {
		t.Fatalf("rsplit tail wrong: %v", rtail)
	}
}

func TestSliceSubPanicsOnOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds Sub")
		}
	}()
	s := Slice{1, 2, 3}
	s.Sub(2, 5)
}

func TestSliceAssignLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	a := Slice{1, 2}
	b := Slice{1, 2, 3}
	a.Assign(b)
}

func TestScratchPoolZeroedAndReusable(t *testing.T) {
	var pool ScratchPool
	s, release := pool.Get(4)
	s[0] = 42
	release()

	s2, release2 := pool.Get(4)
	defer release2()
	for i, v := range s2 {
		if v != 0 {
			t.Fatalf("scratch not zeroed at %d: %v", i, v)
		}
	}
}
