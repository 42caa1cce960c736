package meanspec

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-continuum/internal/testutil"
	"github.com/cwbudde/algo-continuum/measure/continuum"
)

const sample = `#chan freq(Hz) avgSpectrum avgSpectrumNansReplaced
0.25 2 4 -1.5
0 1.0e11 nan -1.5
1 1.001e11 0.5 0.5
2 1.002e11 -1.5 -1.5
3 1.003e11 NaN -1.5
`

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if f.Threshold != 0.25 || f.EdgesUsed != continuum.EdgesBoth || f.NaNMin != -1.5 {
		t.Fatalf("metadata = %v %v %v", f.Threshold, f.EdgesUsed, f.NaNMin)
	}
	if f.NChan() != 4 {
		t.Fatalf("nchan = %d", f.NChan())
	}
	if !math.IsNaN(f.Raw[0]) || !math.IsNaN(f.Raw[3]) || f.Raw[1] != 0.5 {
		t.Fatalf("raw = %v", f.Raw)
	}
	testutil.RequireSliceNearlyEqual(t, f.Replaced, []float64{-1.5, 0.5, -1.5, -1.5}, 0)

	s := f.Spectrum()
	if s.FirstFreq != 1e11 || s.LastFreq != 1.003e11 {
		t.Fatalf("frequency axis %v..%v", s.FirstFreq, s.LastFreq)
	}
	if math.Abs(s.Width()-1e8) > 1 {
		t.Fatalf("channel width = %v", s.Width())
	}
	s.Values[1] = 9
	if f.Raw[1] != 0.5 {
		t.Fatal("Spectrum shares storage with the file")
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"no metadata", "#only a header\n", "missing metadata"},
		{"short row", "1 0 1 0\n0 1e9 0.1\n", "line 2"},
		{"bad edges", "1 7 1 0\n0 1e9 0.1 0.1\n", "line 1"},
		{"channel out of order", "1 0 2 0\n0 1e9 0.1 0.1\n2 1e9 0.1 0.1\n", "line 3"},
		{"count mismatch", "1 0 3 0\n0 1e9 0.1 0.1\n", "declares 3"},
		{"bad value", "1 0 1 0\n0 1e9 x 0.1\n", "line 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("error = %v, want ErrMalformed", err)
			}
			if !strings.Contains(err.Error(), tc.line) {
				t.Fatalf("error %q does not mention %q", err, tc.line)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	values := testutil.WithLine(testutil.QuasiNoise(0.01, 64), 30, 34, 1)
	values[0] = math.NaN()
	s := continuum.Spectrum{Values: values, FirstFreq: 230e9, ChannelWidth: -0.5e6}

	res, err := continuum.Find(s, continuum.Config{BaselineMode: continuum.ModeEdge, NBaselineChannels: 16})
	if err != nil {
		t.Fatal(err)
	}
	f := NewFile(s, res)
	if f.Replaced[0] != res.NaNFill || f.Freq[2] != 230e9-1e6 {
		t.Fatalf("replaced %v freq %v", f.Replaced[0], f.Freq[2])
	}

	path := filepath.Join(t.TempDir(), "spw0.meanSpectrum")
	if err := WriteFile(path, f); err != nil {
		t.Fatal(err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Threshold != f.Threshold || back.EdgesUsed != f.EdgesUsed || back.NaNMin != f.NaNMin {
		t.Fatalf("metadata %+v, want %+v", back, f)
	}
	if !math.IsNaN(back.Raw[0]) {
		t.Fatalf("NaN not preserved: %v", back.Raw[0])
	}
	testutil.RequireSliceNearlyEqual(t, back.Raw[1:], f.Raw[1:], 0)
	testutil.RequireSliceNearlyEqual(t, back.Replaced, f.Replaced, 0)
	testutil.RequireSliceNearlyEqual(t, back.Freq, f.Freq, 0)

	again, err := continuum.Find(back.Spectrum(), continuum.Config{BaselineMode: continuum.ModeEdge, NBaselineChannels: 16})
	if err != nil {
		t.Fatal(err)
	}
	if again.Selection != res.Selection {
		t.Fatalf("selection from file %q, want %q", again.Selection, res.Selection)
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	f := &File{EdgesUsed: continuum.EdgesNone, NaNMin: math.NaN(), Freq: []float64{1}, Raw: []float64{2}, Replaced: []float64{2}}
	if err := Write(&buf, f); err != nil {
		t.Fatal(err)
	}
	want := Header + "\n0 -1 1 NaN\n0 1 2 2\n"
	if buf.String() != want {
		t.Fatalf("output %q, want %q", buf.String(), want)
	}

	f.Replaced = nil
	if err := Write(&buf, f); !errors.Is(err, ErrMalformed) {
		t.Fatalf("error = %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error")
	}
}

const irregular = `#chan freq(Hz) avgSpectrum avgSpectrumNansReplaced
0.5 2 4 -1.5
0 100000000000 NaN -1.5
1 100000123456.5 0.5 0.5
2 100000300000 -1.5 -1.5
3 100000310001.25 2 2
`

func TestWithResultKeepsColumns(t *testing.T) {
	f, err := Read(strings.NewReader(irregular))
	if err != nil {
		t.Fatal(err)
	}
	var res continuum.Result
	res.Threshold = 0.75
	res.Baseline.EdgesUsed = continuum.EdgesLower
	res.NaNFill = -2

	u := f.WithResult(res)
	if u.Threshold != 0.75 || u.EdgesUsed != continuum.EdgesLower || u.NaNMin != -2 {
		t.Fatalf("metadata = %v %v %v", u.Threshold, u.EdgesUsed, u.NaNMin)
	}
	testutil.RequireSliceNearlyEqual(t, u.Freq, []float64{100000000000, 100000123456.5, 100000300000, 100000310001.25}, 0)
	testutil.RequireSliceNearlyEqual(t, u.Replaced, []float64{-2, 0.5, -1.5, 2}, 0)
	if !math.IsNaN(u.Raw[0]) {
		t.Fatalf("raw NaN lost: %v", u.Raw[0])
	}

	u.Freq[1] = 0
	if f.Freq[1] != 100000123456.5 {
		t.Fatal("WithResult shares storage with the file")
	}

	res.NaNFill = math.NaN()
	if got := f.WithResult(res).NaNMin; got != -1.5 {
		t.Fatalf("NaNMin without replacement = %v, want the file's -1.5", got)
	}
}
