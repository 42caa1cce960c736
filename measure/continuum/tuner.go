package continuum

import (
	"fmt"
	"math"
)

// TunerState names the steps of the sigma auto-tuning state machine.
type TunerState int

const (
	StateInitial TunerState = iota
	StateNoiseSpikeCheck
	StateGroupCountCheck
	StateDone
)

func (s TunerState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateNoiseSpikeCheck:
		return "noise-spike"
	case StateGroupCountCheck:
		return "group-count"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("TunerState(%d)", int(s))
	}
}

// Transition records one correction applied by the tuner.
type Transition struct {
	State  TunerState
	Rule   string
	Factor float64
	Sigma  float64 // multiplier after the correction
}

const (
	noiseSpikeFactor = 1.5

	// ALMA receiver constants. 15.625 MHz is the TDM channel width.
	highFreqLimit = 60e9
	tdmWidth      = 15.625e6
	fdmMinWidth   = 1875e6 / 600
	fdmSplitWidth = 1875e6 / 360
)

// GroupCountInput is everything the group-count correction depends on.
type GroupCountInput struct {
	Groups       int
	ChannelRatio float64
	FirstFreq    float64
	ChannelWidth float64
	Automatic    bool
}

func (in GroupCountInput) wideChannels() bool {
	return math.Abs(in.ChannelWidth) >= tdmWidth
}

// overFragmented reports whether the selection splits into more groups than
// the above/below median balance supports.
func (in GroupCountInput) overFragmented() bool {
	r := in.ChannelRatio
	return in.Groups > 3 ||
		(in.Groups > 1 && r < 1.0) ||
		r < 0.5 ||
		(in.Groups == 2 && r < 1.3)
}

type factorRule struct {
	name   string
	match  func(GroupCountInput) bool
	factor func(GroupCountInput) float64
}

func constFactor(f float64) func(GroupCountInput) float64 {
	return func(GroupCountInput) float64 { return f }
}

func twoGroupBand(in GroupCountInput) bool {
	w := math.Abs(in.ChannelWidth)
	return in.Groups == 2 && in.ChannelRatio > 0.1 && in.ChannelRatio < 1.3 &&
		!in.wideChannels() && w >= fdmMinWidth
}

// groupCountPolicy is evaluated top to bottom; the first match wins.
var groupCountPolicy = []factorRule{
	{
		name: "high-freq-narrow-channels",
		match: func(in GroupCountInput) bool {
			return in.ChannelRatio > 0.1 && in.ChannelRatio < 0.9 &&
				in.FirstFreq > highFreqLimit && !in.wideChannels() && in.Groups > 2
		},
		factor: constFactor(0.333),
	},
	{
		name: "two-groups-fine",
		match: func(in GroupCountInput) bool {
			return twoGroupBand(in) && math.Abs(in.ChannelWidth) < fdmSplitWidth
		},
		factor: constFactor(0.5),
	},
	{
		name:   "two-groups-coarse",
		match:  twoGroupBand,
		factor: constFactor(0.7),
	},
	{
		name:   "few-groups",
		match:  func(in GroupCountInput) bool { return in.Groups <= 2 },
		factor: constFactor(0.9),
	},
	{
		name:   "wide-channels",
		match:  GroupCountInput.wideChannels,
		factor: constFactor(1.0),
	},
	{
		name:  "many-groups",
		match: func(GroupCountInput) bool { return true },
		factor: func(in GroupCountInput) float64 {
			return math.Log(3) / math.Log(float64(in.Groups))
		},
	},
}

// GroupCountFactor returns the sigma scale factor of the group-count
// correction and the name of the rule that produced it. fired is false when
// tuning is not automatic or the selection is not over-fragmented.
func GroupCountFactor(in GroupCountInput) (factor float64, rule string, fired bool) {
	if !in.Automatic || !in.overFragmented() {
		return 1, "", false
	}
	for _, r := range groupCountPolicy {
		if r.match(in) {
			return r.factor(in), r.name, true
		}
	}
	return 1, "", false
}

// noiseSpikes reports whether every above-threshold run is a single
// channel and there is more than one of them.
func noiseSpikes(res ThresholdResult) bool {
	return res.SingleChannelPeaksAboveSFC == res.AllGroupsAboveSFC && res.AllGroupsAboveSFC > 1
}

// tuneOutcome is the result of the sigma tuning loop.
type tuneOutcome struct {
	result       ThresholdResult
	transitions  []Transition
	channelRatio float64
}

// tune runs the initial threshold evaluation and at most one correction.
func (f *Finder) tune(sel selector, work, original []float64, policy SigmaPolicy, freq Spectrum) (tuneOutcome, error) {
	sigma := policy.initial()
	res, err := sel.evaluate(work, original, sigma)
	if err != nil {
		return tuneOutcome{}, err
	}
	out := tuneOutcome{
		transitions: []Transition{{State: StateInitial, Factor: 1, Sigma: sigma}},
	}
	f.logEvaluation(StateInitial, res)

	state := StateNoiseSpikeCheck
	for state != StateDone {
		switch state {
		case StateNoiseSpikeCheck:
			if !noiseSpikes(res) {
				state = StateGroupCountCheck
				continue
			}
			sigma *= noiseSpikeFactor
			if res, err = sel.evaluate(work, original, sigma); err != nil {
				return tuneOutcome{}, err
			}
			out.transitions = append(out.transitions, Transition{
				State: StateNoiseSpikeCheck, Rule: "noise-spikes", Factor: noiseSpikeFactor, Sigma: sigma,
			})
			f.logEvaluation(StateNoiseSpikeCheck, res)
			state = StateDone

		case StateGroupCountCheck:
			factor, rule, fired := GroupCountFactor(GroupCountInput{
				Groups:       res.Groups,
				ChannelRatio: channelRatio(work, res.MedianTrue),
				FirstFreq:    freq.FirstFreq,
				ChannelWidth: freq.Width(),
				Automatic:    policy.Kind == KindAuto,
			})
			if fired {
				sigma *= factor
				if factor != 1 {
					if res, err = sel.evaluate(work, original, sigma); err != nil {
						return tuneOutcome{}, err
					}
				}
				out.transitions = append(out.transitions, Transition{
					State: StateGroupCountCheck, Rule: rule, Factor: factor, Sigma: sigma,
				})
				f.logEvaluation(StateGroupCountCheck, res)
			}
			state = StateDone
		}
	}

	out.transitions = append(out.transitions, Transition{State: StateDone, Factor: 1, Sigma: sigma})
	out.result = res
	out.channelRatio = channelRatio(work, res.MedianTrue)
	return out, nil
}
