package continuum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-continuum/internal/testutil"
)

func resultFromGroups(groups []Group) ThresholdResult {
	return ThresholdResult{
		Ranges:    groups,
		Channels:  Flatten(groups),
		Groups:    len(groups),
		Selection: FormatGroups(groups, ";"),
		MAD:       1,
	}
}

func TestFitSlope(t *testing.T) {
	values := testutil.Sum(testutil.Ramp(2, 10), testutil.Const(1, 10))
	slope, intercept, ok := fitSlope(values, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0.5)
	if !ok {
		t.Fatal("fit refused")
	}
	if math.Abs(slope-2) > 1e-12 || math.Abs(intercept-1) > 1e-12 {
		t.Fatalf("fit = %v*x + %v, want 2*x + 1", slope, intercept)
	}

	if _, _, ok := fitSlope(values, []int{3}, 1); ok {
		t.Fatal("single point fit should be refused")
	}
}

func TestDetrendCopies(t *testing.T) {
	values := testutil.Ramp(0.5, 8)
	got := detrend(values, 0.5)
	testutil.RequireSliceNearlyEqual(t, got, testutil.Const(0, 8), 1e-15)
	if values[7] != 3.5 {
		t.Fatal("detrend modified its input")
	}
}

func TestShouldRefine(t *testing.T) {
	tests := []struct {
		name   string
		groups []Group
		want   bool
	}{
		{"most channels", []Group{{0, 40}, {50, 60}, {70, 90}, {92, 99}}, true},
		{"large single group", []Group{{10, 50}}, true},
		{"large group among three", []Group{{0, 40}, {50, 52}, {60, 62}}, false},
		{"small groups", []Group{{0, 10}, {20, 30}}, false},
		{"empty", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRefine(resultFromGroups(tc.groups), 100, 0.8); got != tc.want {
				t.Fatalf("shouldRefine = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShouldDiscard(t *testing.T) {
	one := resultFromGroups([]Group{{0, 199}})
	two := resultFromGroups([]Group{{0, 99}, {120, 199}})

	tests := []struct {
		name string
		pre  ThresholdResult
		post ThresholdResult
		want bool
	}{
		{"fragment split off", one, resultFromGroups([]Group{{0, 150}, {160, 170}}), true},
		{"balanced split", one, resultFromGroups([]Group{{0, 90}, {110, 199}}), false},
		{"still one group", one, resultFromGroups([]Group{{5, 190}}), false},
		{"too many groups", one, resultFromGroups([]Group{{0, 100}, {110, 111}, {120, 121}, {130, 199}}), false},
		{"pre had two groups", two, resultFromGroups([]Group{{0, 150}, {160, 170}}), false},
		{"everything lost", one, resultFromGroups(nil), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldDiscard(tc.pre, tc.post); got != tc.want {
				t.Fatalf("shouldDiscard = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRefineSlopeDiscardsFragments(t *testing.T) {
	values := testutil.Ramp(0.01, 256)
	pre := resultFromGroups([]Group{{20, 235}})
	fragmented := resultFromGroups([]Group{{20, 200}, {210, 220}})

	calls := 0
	ref, err := refineSlope(values, pre, 0.8, func(work []float64) (ThresholdResult, error) {
		calls++
		if math.Abs(work[255]-work[0]) > 1e-9 {
			t.Fatalf("rerun received a spectrum that still has a trend: %v..%v", work[0], work[255])
		}
		return fragmented, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("rerun called %d times", calls)
	}
	if !ref.applied || !ref.discarded {
		t.Fatalf("applied=%v discarded=%v, want both", ref.applied, ref.discarded)
	}
	if ref.result.Selection != pre.Selection || ref.result.Groups != 1 {
		t.Fatalf("pre-removal result not restored: %q", ref.result.Selection)
	}
	if math.Abs(ref.slope-0.01) > 1e-12 {
		t.Fatalf("slope = %v, want 0.01", ref.slope)
	}
}

func TestRefineSlopeKeepsCleanResult(t *testing.T) {
	values := testutil.Ramp(0.01, 256)
	pre := resultFromGroups([]Group{{20, 235}})
	post := resultFromGroups([]Group{{20, 120}, {140, 235}})

	ref, err := refineSlope(values, pre, 0.8, func([]float64) (ThresholdResult, error) {
		return post, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ref.applied || ref.discarded {
		t.Fatalf("applied=%v discarded=%v", ref.applied, ref.discarded)
	}
	if ref.result.Selection != post.Selection {
		t.Fatalf("selection = %q, want %q", ref.result.Selection, post.Selection)
	}
}

func TestRefineSlopeSkipsSmallSelection(t *testing.T) {
	values := testutil.Ramp(0.01, 256)
	pre := resultFromGroups([]Group{{0, 30}, {100, 130}, {200, 230}})

	ref, err := refineSlope(values, pre, 0.8, func([]float64) (ThresholdResult, error) {
		t.Fatal("rerun must not be called")
		return ThresholdResult{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if ref.applied || ref.result.Selection != pre.Selection {
		t.Fatalf("unexpected refinement %+v", ref)
	}
}

func TestRefineSlopePropagatesErrors(t *testing.T) {
	values := testutil.Ramp(0.01, 256)
	pre := resultFromGroups([]Group{{0, 255}})

	_, err := refineSlope(values, pre, 0.8, func([]float64) (ThresholdResult, error) {
		return ThresholdResult{}, ErrDegenerateSpectrum
	})
	if !errors.Is(err, ErrDegenerateSpectrum) {
		t.Fatalf("error = %v, want ErrDegenerateSpectrum", err)
	}
}
