package continuum

import (
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

// slopeDiscardRatio is the narrowest/widest group length ratio below which
// a refined selection counts as fragmented.
const slopeDiscardRatio = 0.2

// refinement is the outcome of the slope-removal pass.
type refinement struct {
	result    ThresholdResult
	slope     float64
	intercept float64
	applied   bool
	discarded bool
}

// shouldRefine reports whether res selects so much of the band that a
// residual linear trend may be hiding line emission.
func shouldRefine(res ThresholdResult, nchan int, fraction float64) bool {
	if float64(len(res.Channels)) > fraction*float64(nchan) {
		return true
	}
	return float64(largestGroup(res.Ranges)) > float64(nchan)/3 && res.Groups <= 2
}

// fitSlope fits values[ch] = slope*ch + intercept over channels with
// uniform weights 1/mad^2.
func fitSlope(values []float64, channels []int, mad float64) (slope, intercept float64, ok bool) {
	if len(channels) < 2 {
		return 0, 0, false
	}
	x := make([]float64, len(channels))
	y := make([]float64, len(channels))
	for i, ch := range channels {
		x[i] = float64(ch)
		y[i] = values[ch]
	}
	var w []float64
	if mad > 0 {
		w = make([]float64, len(channels))
		for i := range w {
			w[i] = 1 / (mad * mad)
		}
	}
	intercept, slope = stat.LinearRegression(x, y, w, false)
	return slope, intercept, true
}

// detrend returns a copy of values with slope*channel subtracted.
func detrend(values []float64, slope float64) []float64 {
	trend := make([]float64, len(values))
	for i := range trend {
		trend[i] = float64(i)
	}
	vecmath.ScaleBlockInPlace(trend, -slope)

	out := make([]float64, len(values))
	vecmath.AddBlock(out, values, trend)
	return out
}

// shouldDiscard reports whether slope removal broke a single wide group
// into a few fragments that are tiny compared with the largest.
func shouldDiscard(pre, post ThresholdResult) bool {
	if pre.Groups != 1 || post.Groups > 3 {
		return false
	}
	widest := largestGroup(post.Ranges)
	if widest == 0 {
		return true
	}
	return float64(smallestGroup(post.Ranges))/float64(widest) < slopeDiscardRatio
}

// refineSlope removes a linear trend fitted to the selected channels of pre
// and reruns the threshold test through rerun.
func refineSlope(values []float64, pre ThresholdResult, fraction float64,
	rerun func(work []float64) (ThresholdResult, error),
) (refinement, error) {
	out := refinement{result: pre}
	if !shouldRefine(pre, len(values), fraction) {
		return out, nil
	}
	slope, intercept, ok := fitSlope(values, pre.Channels, pre.MAD)
	if !ok {
		return out, nil
	}
	out.slope, out.intercept = slope, intercept

	post, err := rerun(detrend(values, slope))
	if err != nil {
		return refinement{}, err
	}
	out.applied = true
	if shouldDiscard(pre, post) {
		out.discarded = true
		return out, nil
	}
	out.result = post
	return out, nil
}
