package continuum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ThresholdResult is the outcome of one threshold evaluation.
type ThresholdResult struct {
	Channels  []int
	Ranges    []Group
	Selection string
	Groups    int

	Sigma                  float64
	Threshold              float64
	NegativeThreshold      float64
	Median                 float64
	MedianTrue             float64
	MAD                    float64
	CorrectionFactor       float64
	MedianCorrectionFactor float64
	LineStrengthFactor     float64

	// Above-threshold runs: all of them, and those one channel wide.
	SingleChannelPeaksAboveSFC int
	AllGroupsAboveSFC          int

	Baseline BaselineStats
}

// selector holds the per-call resolved parameters of the threshold test.
type selector struct {
	mode           BaselineMode
	nBase          int
	negativeFactor float64
	trim           trimRule
	narrow         int
	separator      string
	nanFill        float64
}

// evaluate estimates the baseline of work and applies the threshold test.
// original is the unadjusted spectrum used for the flat-data checks.
func (s selector) evaluate(work, original []float64, sigma float64) (ThresholdResult, error) {
	bs, err := EstimateBaseline(work, BaselineParams{
		Mode:              s.mode,
		NBaselineChannels: s.nBase,
		Sigma:             sigma,
	})
	if err != nil {
		return ThresholdResult{}, err
	}
	return s.apply(work, original, sigma, bs), nil
}

func (s selector) apply(work, original []float64, sigma float64, bs BaselineStats) ThresholdResult {
	res := ThresholdResult{
		Sigma:                  sigma,
		Threshold:              bs.SigmaEffective*bs.MAD + bs.MedianTrue,
		NegativeThreshold:      -s.negativeFactor*bs.SigmaEffective*bs.MAD + bs.MedianTrue,
		Median:                 bs.Median,
		MedianTrue:             bs.MedianTrue,
		MAD:                    bs.MAD,
		CorrectionFactor:       bs.CorrectionFactor,
		MedianCorrectionFactor: bs.MedianCorrectionFactor,
		Baseline:               bs,
	}

	if height := res.Threshold - res.MedianTrue; height > 0 {
		res.LineStrengthFactor = (floats.Max(work) - res.MedianTrue) / height
	}

	var candidates, peaks []int
	for i, v := range work {
		if v < res.Threshold && v > res.NegativeThreshold {
			candidates = append(candidates, i)
		}
		if v > res.Threshold {
			peaks = append(peaks, i)
		}
	}
	candidates = removeEdgeMinimumRuns(candidates, original)

	peakGroups := SplitContiguous(peaks)
	res.AllGroupsAboveSFC = len(peakGroups)
	for _, g := range peakGroups {
		if g.Len() == 1 {
			res.SingleChannelPeaksAboveSFC++
		}
	}

	groups := SplitContiguous(candidates)
	groups = RejectZeroVariance(groups, original, s.nanFill)
	groups = trimGroups(groups, s.trim)
	groups = rejectNarrowGroups(groups, s.narrow)

	res.Ranges = groups
	res.Channels = Flatten(groups)
	res.Groups = len(groups)
	res.Selection = FormatGroups(groups, s.separator)
	return res
}

// removeEdgeMinimumRuns drops candidates at either end of the list whose
// original value equals the global minimum. Only the contiguous channel
// run touching each end is removed; a gap in the candidates ends it. Such
// runs are blanked band edges rather than continuum.
func removeEdgeMinimumRuns(candidates []int, original []float64) []int {
	if len(candidates) == 0 || len(original) == 0 {
		return candidates
	}
	gmin := floats.Min(original)
	tol := math.Abs(1e-10 * gmin)
	isMin := func(ch int) bool { return math.Abs(original[ch]-gmin) <= tol }

	lo, hi := 0, len(candidates)
	for lo < hi && isMin(candidates[lo]) {
		lo++
		if lo < hi && candidates[lo] != candidates[lo-1]+1 {
			break
		}
	}
	for hi > lo && isMin(candidates[hi-1]) {
		hi--
		if hi > lo && candidates[hi-1] != candidates[hi]-1 {
			break
		}
	}
	return candidates[lo:hi]
}

// channelRatio returns the number of channels above medianTrue divided by
// the number below it. No channels below yields +Inf.
func channelRatio(values []float64, medianTrue float64) float64 {
	var above, below int
	for _, v := range values {
		switch {
		case v > medianTrue:
			above++
		case v < medianTrue:
			below++
		}
	}
	if below == 0 {
		return math.Inf(1)
	}
	return float64(above) / float64(below)
}
