package utils

import "testing"

func TestRandSourceDeterminism(t *testing.T) {
	r1 := NewRandSource(42)
	r2 := NewRandSource(42)

	for i := 0; i < 100; i++ {
		a := r1.Float64()
		b := r2.Float64()
		if a != b {
			t.Fatalf("streams diverged at draw %d: %f != %f", i, a, b)
		}
		if a < 0 || a >= 1 {
			t.Fatalf("Float64 returned %f outside [0,1)", a)
		}
	}
}

func TestRandSourceDifferentSeeds(t *testing.T) {
	r1 := NewRandSource(1)
	r2 := NewRandSource(2)

	same := true
	for i := 0; i < 10; i++ {
		if r1.Float64() != r2.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical streams")
	}
}

func TestRandSourceZeroSeedUsesEntropy(t *testing.T) {
	r := NewRandSource(0)
	if r.Seed() == 0 {
		t.Fatalf("expected non-zero effective seed for seed 0")
	}
}

func TestUniformFloat64Range(t *testing.T) {
	r := NewRandSource(7)
	for i := 0; i < 1000; i++ {
		v := r.UniformFloat64(2.0, 5.0)
		if v < 2.0 || v >= 5.0 {
			t.Fatalf("UniformFloat64(2, 5) returned %f", v)
		}
	}
}

func TestPermCoverage(t *testing.T) {
	r := NewRandSource(11)
	p := r.Perm(10)
	if len(p) != 10 {
		t.Fatalf("expected permutation length 10, got %d", len(p))
	}
	seen := make(map[int]bool)
	for _, v := range p {
		if v < 0 || v >= 10 {
			t.Fatalf("permutation element %d out of range", v)
		}
		if seen[v] {
			t.Fatalf("permutation repeats element %d", v)
		}
		seen[v] = true
	}
}

func TestBernoulliBoolExtremes(t *testing.T) {
	r := NewRandSource(13)
	for i := 0; i < 100; i++ {
		if r.BernoulliBool(0) {
			t.Fatalf("BernoulliBool(0) returned true")
		}
		if !r.BernoulliBool(1) {
			t.Fatalf("BernoulliBool(1) returned false")
		}
	}
}
