package continuum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-continuum/stats/robust"
)

// zeroSpread is the spread below which a set of channels is considered
// flat (blanked or zero-filled data).
const zeroSpread = 1e-17

// EdgesUsed records which band edges defined an edge-mode baseline.
type EdgesUsed int

const (
	EdgesNone  EdgesUsed = -1 // min mode
	EdgesLower EdgesUsed = 0
	EdgesUpper EdgesUsed = 1
	EdgesBoth  EdgesUsed = 2
)

// BaselineParams are the inputs of a baseline estimate.
type BaselineParams struct {
	Mode              BaselineMode
	NBaselineChannels int
	Sigma             float64
}

// BaselineStats describes the noise floor of a spectrum.
type BaselineStats struct {
	Median                 float64
	MAD                    float64
	CorrectionFactor       float64
	MedianTrue             float64
	MedianCorrectionFactor float64
	SignalRatio            float64
	UseLowBaseline         bool
	EdgesUsed              EdgesUsed
	Percentile             float64
	SigmaEffective         float64
	// Channels are the baseline-defining channel indices.
	Channels []int
}

// SigmaCorrectionFactor compensates the MAD of a low-percentile subset
// for the spread of the full noise population.
func SigmaCorrectionFactor(mode BaselineMode, nchan int, percentile float64) float64 {
	value := math.Pow(float64(nchan)/128, 0.08)
	if mode == ModeMin {
		value *= 2.8 * math.Pow(percentile/10, -0.25)
	}
	return value
}

// MedianCorrectionFactor is the expected offset, in MADs, of the median of
// a percentile subset from the population median.
func MedianCorrectionFactor(mode BaselineMode, percentile float64) float64 {
	if mode == ModeEdge {
		return 0
	}
	return 6.3 * math.Sqrt(5.0/percentile)
}

// EstimateBaseline selects the baseline channels of spectrum and derives
// the bias-corrected median used by the threshold test.
func EstimateBaseline(spectrum []float64, p BaselineParams) (BaselineStats, error) {
	n := len(spectrum)
	if n < 2 {
		return BaselineStats{}, fmt.Errorf("%w: %d channels", ErrDegenerateSpectrum, n)
	}
	if p.NBaselineChannels < 2 {
		return BaselineStats{}, fmt.Errorf("%w: nBaselineChannels must be >= 2: %d",
			ErrInvalidConfiguration, p.NBaselineChannels)
	}
	nBase := p.NBaselineChannels
	if nBase > n {
		nBase = n
	}

	var (
		bs  BaselineStats
		err error
	)
	switch p.Mode {
	case ModeEdge:
		bs, err = edgeBaseline(spectrum, nBase)
	case ModeMin:
		bs, err = minBaseline(spectrum, nBase)
	default:
		return BaselineStats{}, fmt.Errorf("%w: baseline mode %d", ErrInvalidConfiguration, p.Mode)
	}
	if err != nil {
		return BaselineStats{}, err
	}

	bs.Percentile = 100 * float64(nBase) / float64(n)
	bs.CorrectionFactor = SigmaCorrectionFactor(p.Mode, n, bs.Percentile)
	bs.MedianCorrectionFactor = MedianCorrectionFactor(p.Mode, bs.Percentile)
	bs.SigmaEffective = p.Sigma * bs.CorrectionFactor

	far := 0
	limit := 2 * bs.SigmaEffective * bs.MAD
	for _, v := range spectrum {
		if math.Abs(v-bs.Median) > limit {
			far++
		}
	}
	bs.SignalRatio = math.Pow(1-float64(far)/float64(n), 2)

	shift := bs.MedianCorrectionFactor * bs.MAD * bs.SignalRatio
	if bs.UseLowBaseline {
		bs.MedianTrue = bs.Median + shift
	} else {
		bs.MedianTrue = bs.Median - shift
	}
	return bs, nil
}

func edgeBaseline(spectrum []float64, nBase int) (BaselineStats, error) {
	n := len(spectrum)
	half := nBase / 2
	lower := make([]int, 0, half)
	upper := make([]int, 0, half)
	for i := 0; i < half; i++ {
		lower = append(lower, i)
		upper = append(upper, n-half+i)
	}

	bs := BaselineStats{UseLowBaseline: true, EdgesUsed: EdgesBoth}
	lowerFlat := robust.PopStdDev(robust.Gather(spectrum, lower)) < zeroSpread
	upperFlat := robust.PopStdDev(robust.Gather(spectrum, upper)) < zeroSpread
	switch {
	case lowerFlat && !upperFlat:
		bs.Channels = upper
		bs.EdgesUsed = EdgesUpper
	case upperFlat && !lowerFlat:
		bs.Channels = lower
		bs.EdgesUsed = EdgesLower
	default:
		bs.Channels = append(lower, upper...)
	}

	return fillMedianMAD(bs, spectrum)
}

func minBaseline(spectrum []float64, nBase int) (BaselineStats, error) {
	pool := make([]float64, len(spectrum))
	copy(pool, spectrum)
	poolIdx := make([]int, len(spectrum))
	for i := range poolIdx {
		poolIdx[i] = i
	}

	var bs BaselineStats
	for {
		k := nBase
		if k > len(pool) {
			k = len(pool)
		}
		low := robust.LowestK(pool, k)
		high := robust.HighestK(pool, k)
		madLow, err := robust.MAD(robust.Gather(pool, low))
		if err != nil {
			return BaselineStats{}, fmt.Errorf("%w: %v", ErrDegenerateSpectrum, err)
		}
		madHigh, err := robust.MAD(robust.Gather(pool, high))
		if err != nil {
			return BaselineStats{}, fmt.Errorf("%w: %v", ErrDegenerateSpectrum, err)
		}

		bs = BaselineStats{UseLowBaseline: madLow <= madHigh, EdgesUsed: EdgesNone}
		chosen := low
		if !bs.UseLowBaseline {
			chosen = high
		}
		bs.Channels = make([]int, len(chosen))
		for i, j := range chosen {
			bs.Channels[i] = poolIdx[j]
		}
		bs, err = fillMedianMAD(bs, spectrum)
		if err != nil {
			return BaselineStats{}, err
		}
		if bs.MAD >= zeroSpread {
			return bs, nil
		}

		// A block of identical values: drop the extreme value from the
		// candidate pool and pick again.
		extreme := pool[low[0]]
		if !bs.UseLowBaseline {
			extreme = pool[high[len(high)-1]]
		}
		nextPool := pool[:0:0]
		nextIdx := poolIdx[:0:0]
		for i, v := range pool {
			if v != extreme {
				nextPool = append(nextPool, v)
				nextIdx = append(nextIdx, poolIdx[i])
			}
		}
		if len(nextPool) < 2 {
			return bs, nil
		}
		pool, poolIdx = nextPool, nextIdx
	}
}

func fillMedianMAD(bs BaselineStats, spectrum []float64) (BaselineStats, error) {
	values := robust.Gather(spectrum, bs.Channels)
	med, err := robust.Median(values)
	if err != nil {
		return BaselineStats{}, fmt.Errorf("%w: %v", ErrDegenerateSpectrum, err)
	}
	mad, err := robust.MAD(values)
	if err != nil {
		return BaselineStats{}, fmt.Errorf("%w: %v", ErrDegenerateSpectrum, err)
	}
	bs.Median = med
	bs.MAD = mad
	return bs, nil
}
