package testutil

import (
	"math"
	"math/rand"
)

// DeterministicGaussian returns n samples of zero-mean Gaussian noise with
// standard deviation sigma from a fixed seed.
func DeterministicGaussian(seed int64, sigma float64, n int) []float64 {
	out := make([]float64, n)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// QuasiNoise returns a bounded, noise-like sequence amplitude*sin(2.3*i+0.5).
// Its values never exceed amplitude, which keeps threshold tests free of
// chance outliers.
func QuasiNoise(amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2.3*float64(i)+0.5)
	}
	return out
}

// Ramp returns slope*i for i in [0,n).
func Ramp(slope float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = slope * float64(i)
	}
	return out
}

// Const returns n copies of value.
func Const(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// Sum returns the element-wise sum of equal-length series.
func Sum(series ...[]float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series[0]))
	for _, s := range series {
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}

// WithLine returns a copy of values with amplitude added to channels
// start..end inclusive.
func WithLine(values []float64, start, end int, amplitude float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for i := start; i <= end && i < len(out); i++ {
		if i >= 0 {
			out[i] += amplitude
		}
	}
	return out
}
