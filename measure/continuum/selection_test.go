package continuum

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-continuum/internal/testutil"
)

func TestIndicesToSelection(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		sep  string
		want string
	}{
		{"empty", nil, ";", ""},
		{"single channel", []int{3}, ";", "3~3"},
		{"two runs", []int{5, 6, 7, 20, 21}, ";", "5~7;20~21"},
		{"unsorted with duplicates", []int{21, 5, 7, 6, 20, 6}, ";", "5~7;20~21"},
		{"custom separator", []int{0, 1, 9}, ",", "0~1,9~9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IndicesToSelection(tc.in, tc.sep); got != tc.want {
				t.Fatalf("IndicesToSelection(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSelectionToIndices(t *testing.T) {
	got, err := SelectionToIndices("1~3, 7;5~5")
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireIntsEqual(t, got, []int{1, 2, 3, 5, 7})

	got, err = SelectionToIndices("")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("empty selection expanded to %v", got)
	}
}

func TestSelectionToIndicesInvalid(t *testing.T) {
	for _, sel := range []string{"a~b", "5~3", "-1~2", "3~x", "~4"} {
		if _, err := SelectionToIndices(sel); !errors.Is(err, ErrInvalidSelection) {
			t.Fatalf("SelectionToIndices(%q) error = %v, want ErrInvalidSelection", sel, err)
		}
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		var idx []int
		for ch := 0; ch < 300; ch++ {
			if rng.Float64() < 0.6 {
				idx = append(idx, ch)
			}
		}
		sel := IndicesToSelection(idx, ";")
		back, err := SelectionToIndices(sel)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		testutil.RequireIntsEqual(t, back, idx)
	}
}

func TestGroupsToFrequencyRanges(t *testing.T) {
	got := GroupsToFrequencyRanges([]Group{{0, 1}, {10, 10}}, 100e9, 1e6)
	want := []FrequencyRange{
		{Low: 100e9 - 0.5e6, High: 100e9 + 1.5e6},
		{Low: 100e9 + 9.5e6, High: 100e9 + 10.5e6},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d ranges", len(got))
	}
	for i := range got {
		if math.Abs(got[i].Low-want[i].Low) > 1 || math.Abs(got[i].High-want[i].High) > 1 {
			t.Fatalf("range %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Descending frequency axis.
	desc, err := SelectionToFrequencyRanges("0~1", 100e9, -1e6)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(desc[0].Low-(99.999e9-0.5e6)) > 1 || math.Abs(desc[0].High-(100e9+0.5e6)) > 1 {
		t.Fatalf("descending range = %+v", desc[0])
	}
}
