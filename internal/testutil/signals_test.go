package testutil

import (
	"math"
	"testing"
)

func TestDeterministicGaussianReproducible(t *testing.T) {
	a := DeterministicGaussian(42, 1.0, 64)
	b := DeterministicGaussian(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}
}

func TestDeterministicGaussianDifferentSeeds(t *testing.T) {
	a := DeterministicGaussian(1, 1.0, 16)
	b := DeterministicGaussian(2, 1.0, 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestQuasiNoiseBounded(t *testing.T) {
	q := QuasiNoise(0.5, 1000)
	RequireFinite(t, q)
	for i, v := range q {
		if math.Abs(v) > 0.5 {
			t.Fatalf("q[%d] = %v exceeds amplitude", i, v)
		}
	}
}

func TestRampConstSum(t *testing.T) {
	got := Sum(Ramp(2, 4), Const(1, 4))
	RequireSliceNearlyEqual(t, got, []float64{1, 3, 5, 7}, 0)
}

func TestWithLine(t *testing.T) {
	base := Const(0, 6)
	got := WithLine(base, 2, 3, 5)
	RequireSliceNearlyEqual(t, got, []float64{0, 0, 5, 5, 0, 0}, 0)
	if base[2] != 0 {
		t.Fatal("WithLine modified its input")
	}

	clipped := WithLine(base, 4, 10, 1)
	RequireSliceNearlyEqual(t, clipped, []float64{0, 0, 0, 0, 1, 1}, 0)
}
