package continuum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-continuum/stats/robust"
)

// Spectrum is a 1-D intensity array, one value per channel, with an
// optional linear frequency axis in Hz.
type Spectrum struct {
	Values       []float64
	FirstFreq    float64
	LastFreq     float64
	ChannelWidth float64
}

// NChan returns the number of channels.
func (s Spectrum) NChan() int { return len(s.Values) }

// Width returns the channel width, deriving it from the band edges when
// ChannelWidth is unset.
func (s Spectrum) Width() float64 {
	if s.ChannelWidth != 0 || len(s.Values) < 2 {
		return s.ChannelWidth
	}
	return (s.LastFreq - s.FirstFreq) / float64(len(s.Values)-1)
}

// prepared is a NaN-free working copy of a spectrum.
type prepared struct {
	values   []float64
	nanCount int
	nanFill  float64 // NaN when no replacement happened
}

// prepare copies values, replaces NaNs with the smallest valid value and
// rejects spectra whose median or MAD would be undefined.
func prepare(values []float64) (prepared, error) {
	valid := len(values) - robust.CountNaN(values)
	if valid < 2 {
		return prepared{}, fmt.Errorf("%w: %d valid samples", ErrDegenerateSpectrum, valid)
	}

	nanmin, err := robust.NanMin(values)
	if err != nil {
		return prepared{}, fmt.Errorf("%w: %v", ErrDegenerateSpectrum, err)
	}

	p := prepared{
		values:   make([]float64, len(values)),
		nanCount: len(values) - valid,
		nanFill:  math.NaN(),
	}
	if p.nanCount > 0 {
		p.nanFill = nanmin
	}

	flat := true
	for i, v := range values {
		if math.IsNaN(v) {
			v = nanmin
		}
		if math.IsInf(v, 0) {
			return prepared{}, fmt.Errorf("%w: infinite value at channel %d", ErrDegenerateSpectrum, i)
		}
		p.values[i] = v
		if v != p.values[0] {
			flat = false
		}
	}
	if flat {
		return prepared{}, fmt.Errorf("%w: all channels equal %g", ErrDegenerateSpectrum, p.values[0])
	}
	return p, nil
}
