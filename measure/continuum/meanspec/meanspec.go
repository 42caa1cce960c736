// Package meanspec reads and writes the mean-spectrum text file that caches
// an averaged spectrum next to the cube it was computed from.
//
// The file is whitespace delimited:
//
//	#chan freq(Hz) avgSpectrum avgSpectrumNansReplaced
//	<threshold> <edgesUsed> <nchan> <nanmin>
//	0 <freq> <raw> <replaced>
//	1 <freq> <raw> <replaced>
//	...
//
// Lines starting with '#' and blank lines are ignored. NaN values are
// written as "NaN" and read case-insensitively.
package meanspec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-continuum/measure/continuum"
)

// ErrMalformed is returned for files that do not follow the format.
var ErrMalformed = errors.New("meanspec: malformed file")

// Header is the column header written by Write.
const Header = "#chan freq(Hz) avgSpectrum avgSpectrumNansReplaced"

// File is the content of a mean-spectrum file.
type File struct {
	Threshold float64
	EdgesUsed continuum.EdgesUsed
	NaNMin    float64

	Freq     []float64 // Hz
	Raw      []float64 // may contain NaN
	Replaced []float64 // Raw with NaN replaced by NaNMin
}

// NChan returns the number of channels.
func (f *File) NChan() int { return len(f.Raw) }

// Spectrum returns the raw values with the file's frequency axis. NaNs are
// left in place; the finder replaces them itself.
func (f *File) Spectrum() continuum.Spectrum {
	values := make([]float64, len(f.Raw))
	copy(values, f.Raw)
	s := continuum.Spectrum{Values: values}
	if n := len(f.Freq); n > 0 {
		s.FirstFreq = f.Freq[0]
		s.LastFreq = f.Freq[n-1]
	}
	return s
}

// NewFile builds a File from a spectrum and the finder result computed on
// it. The frequency column is generated from the spectrum's linear axis.
func NewFile(s continuum.Spectrum, res continuum.Result) *File {
	n := len(s.Values)
	f := &File{
		Threshold: res.Threshold,
		EdgesUsed: res.Baseline.EdgesUsed,
		NaNMin:    res.NaNFill,
		Freq:      make([]float64, n),
		Raw:       make([]float64, n),
		Replaced:  make([]float64, n),
	}
	width := s.Width()
	for i := range f.Freq {
		f.Freq[i] = continuum.ChannelToFrequency(i, s.FirstFreq, width)
	}
	copy(f.Raw, s.Values)
	fillReplaced(f.Replaced, f.Raw, res.NaNFill)
	return f
}

// WithResult returns a copy of f carrying the metadata of res. The
// frequency and raw columns are kept as read. NaNMin is kept when res did
// not replace any NaN.
func (f *File) WithResult(res continuum.Result) *File {
	out := &File{
		Threshold: res.Threshold,
		EdgesUsed: res.Baseline.EdgesUsed,
		NaNMin:    res.NaNFill,
		Freq:      append([]float64(nil), f.Freq...),
		Raw:       append([]float64(nil), f.Raw...),
		Replaced:  make([]float64, len(f.Raw)),
	}
	if math.IsNaN(out.NaNMin) {
		out.NaNMin = f.NaNMin
	}
	fillReplaced(out.Replaced, out.Raw, out.NaNMin)
	return out
}

func fillReplaced(dst, raw []float64, fill float64) {
	for i, v := range raw {
		if math.IsNaN(v) {
			v = fill
		}
		dst[i] = v
	}
}

// Read parses a mean-spectrum file.
func Read(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)
	f := &File{}
	nchan := -1
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d: %d fields, want 4", ErrMalformed, lineNo, len(fields))
		}

		if nchan < 0 {
			n, err := f.parseMetadata(fields)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
			}
			nchan = n
			f.Freq = make([]float64, 0, nchan)
			f.Raw = make([]float64, 0, nchan)
			f.Replaced = make([]float64, 0, nchan)
			continue
		}

		if err := f.parseRow(fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("meanspec: read: %w", err)
	}
	if nchan < 0 {
		return nil, fmt.Errorf("%w: missing metadata line", ErrMalformed)
	}
	if len(f.Raw) != nchan {
		return nil, fmt.Errorf("%w: metadata declares %d channels, found %d", ErrMalformed, nchan, len(f.Raw))
	}
	return f, nil
}

// parseMetadata fills the scalar fields and returns the declared channel
// count.
func (f *File) parseMetadata(fields []string) (int, error) {
	var err error
	if f.Threshold, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, fmt.Errorf("threshold: %v", err)
	}
	edges, err := strconv.Atoi(fields[1])
	if err != nil || edges < int(continuum.EdgesNone) || edges > int(continuum.EdgesBoth) {
		return 0, fmt.Errorf("edgesUsed %q", fields[1])
	}
	f.EdgesUsed = continuum.EdgesUsed(edges)
	n, err := strconv.Atoi(fields[2])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("nchan %q", fields[2])
	}
	if f.NaNMin, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return 0, fmt.Errorf("nanmin: %v", err)
	}
	return n, nil
}

func (f *File) parseRow(fields []string) error {
	ch, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("channel %q", fields[0])
	}
	if ch != len(f.Raw) {
		return fmt.Errorf("channel %d out of order, want %d", ch, len(f.Raw))
	}
	var vals [3]float64
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
			return fmt.Errorf("column %d: %v", i+2, err)
		}
	}
	f.Freq = append(f.Freq, vals[0])
	f.Raw = append(f.Raw, vals[1])
	f.Replaced = append(f.Replaced, vals[2])
	return nil
}

// ReadFile reads the mean-spectrum file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meanspec: %w", err)
	}
	defer fh.Close()

	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write serializes f.
func Write(w io.Writer, f *File) error {
	n := f.NChan()
	if len(f.Freq) != n || len(f.Replaced) != n {
		return fmt.Errorf("%w: column lengths %d/%d/%d differ", ErrMalformed, len(f.Freq), n, len(f.Replaced))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)
	fmt.Fprintf(bw, "%s %d %d %s\n", formatFloat(f.Threshold), int(f.EdgesUsed), n, formatFloat(f.NaNMin))
	for i := 0; i < n; i++ {
		fmt.Fprintf(bw, "%d %s %s %s\n", i, formatFloat(f.Freq[i]), formatFloat(f.Raw[i]), formatFloat(f.Replaced[i]))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("meanspec: write: %w", err)
	}
	return nil
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *File) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meanspec: %w", err)
	}
	if err := Write(fh, f); err != nil {
		_ = fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("meanspec: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
