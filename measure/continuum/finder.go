package continuum

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Result is the continuum selection of a spectrum with its diagnostics.
type Result struct {
	ThresholdResult

	NChan        int
	InitialSigma float64
	Transitions  []Transition
	ChannelRatio float64

	SlopeRemoved   bool
	SlopeDiscarded bool
	Slope          float64
	Intercept      float64

	NaNCount int
	NaNFill  float64 // NaN when the spectrum had no NaNs

	FirstFreq          float64
	ChannelWidth       float64
	AggregateBandwidth float64
}

// FrequencyRanges returns the selected groups as frequency intervals.
func (r Result) FrequencyRanges() []FrequencyRange {
	return GroupsToFrequencyRanges(r.Ranges, r.FirstFreq, r.ChannelWidth)
}

// Finder identifies continuum channels of spectra. A Finder holds no
// per-spectrum state and may be shared between goroutines.
type Finder struct {
	cfg Config
	log *zap.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFinder creates a Finder. Zero-valued numeric fields of cfg are
// replaced by their defaults.
func NewFinder(cfg Config, opts ...Option) *Finder {
	f := &Finder{cfg: normalizeConfig(cfg), log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Find is a one-shot continuum search.
func Find(s Spectrum, cfg Config) (Result, error) {
	return NewFinder(cfg).Find(s)
}

// Config returns the normalized configuration.
func (f *Finder) Config() Config { return f.cfg }

// Find returns the continuum channel selection of s. The input values are
// not modified. An empty selection is a valid result.
func (f *Finder) Find(s Spectrum) (Result, error) {
	cfg := f.cfg
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	prep, err := prepare(s.Values)
	if err != nil {
		return Result{}, err
	}
	nchan := len(prep.values)

	trim, err := resolveTrim(cfg.Trim, cfg.MaxTrim, cfg.MaxTrimFraction)
	if err != nil {
		return Result{}, err
	}
	narrow, err := resolveNarrow(cfg.Narrow, nchan)
	if err != nil {
		return Result{}, err
	}
	sel := selector{
		mode:           cfg.BaselineMode,
		nBase:          cfg.baselineChannels(nchan),
		negativeFactor: cfg.NegativeThresholdFactor,
		trim:           trim,
		narrow:         narrow,
		separator:      cfg.Separator,
		nanFill:        prep.nanFill,
	}
	f.log.Debug("continuum search",
		zap.Int("nchan", nchan),
		zap.Int("nanCount", prep.nanCount),
		zap.Stringer("mode", cfg.BaselineMode),
		zap.Int("nBaselineChannels", sel.nBase),
		zap.Stringer("sigma", cfg.Sigma),
		zap.Stringer("trim", cfg.Trim),
		zap.Int("narrow", narrow),
	)

	tuned, err := f.tune(sel, prep.values, prep.values, cfg.Sigma, s)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		NChan:        nchan,
		InitialSigma: cfg.Sigma.initial(),
		Transitions:  tuned.transitions,
		ChannelRatio: tuned.channelRatio,
		NaNCount:     prep.nanCount,
		NaNFill:      prep.nanFill,
		FirstFreq:    s.FirstFreq,
		ChannelWidth: s.Width(),
	}

	final := tuned.result
	if !cfg.DisableSlopeRemoval {
		sigma := tuned.result.Sigma
		ref, err := refineSlope(prep.values, tuned.result, cfg.SlopeFraction,
			func(work []float64) (ThresholdResult, error) {
				return sel.evaluate(work, prep.values, sigma)
			})
		if err != nil {
			return Result{}, fmt.Errorf("slope refinement: %w", err)
		}
		if ref.applied {
			f.log.Debug("slope removal",
				zap.Float64("slope", ref.slope),
				zap.Float64("intercept", ref.intercept),
				zap.Int("groupsBefore", tuned.result.Groups),
				zap.Int("groupsAfter", ref.result.Groups),
				zap.Bool("discarded", ref.discarded),
			)
		}
		out.Slope, out.Intercept = ref.slope, ref.intercept
		out.SlopeRemoved = ref.applied && !ref.discarded
		out.SlopeDiscarded = ref.discarded
		final = ref.result
	}

	out.ThresholdResult = final
	out.AggregateBandwidth = float64(len(final.Channels)) * math.Abs(out.ChannelWidth)
	f.log.Debug("continuum selection",
		zap.String("selection", final.Selection),
		zap.Int("groups", final.Groups),
		zap.Int("channels", len(final.Channels)),
	)
	return out, nil
}

func (f *Finder) logEvaluation(state TunerState, res ThresholdResult) {
	f.log.Debug("threshold evaluation",
		zap.Stringer("state", state),
		zap.Float64("sigma", res.Sigma),
		zap.Float64("median", res.Median),
		zap.Float64("medianTrue", res.MedianTrue),
		zap.Float64("mad", res.MAD),
		zap.Float64("signalRatio", res.Baseline.SignalRatio),
		zap.Int("edgesUsed", int(res.Baseline.EdgesUsed)),
		zap.Float64("threshold", res.Threshold),
		zap.Float64("negativeThreshold", res.NegativeThreshold),
		zap.Int("groups", res.Groups),
		zap.Int("peakGroups", res.AllGroupsAboveSFC),
		zap.Int("singlePeaks", res.SingleChannelPeaksAboveSFC),
	)
}
