package continuum

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BaselineMode selects the channels that define the noise floor.
type BaselineMode int

const (
	// ModeMin uses the lowest-valued channels of the spectrum.
	ModeMin BaselineMode = iota
	// ModeEdge uses channels at both ends of the band.
	ModeEdge
)

// String returns the mode name as used in configuration files.
func (m BaselineMode) String() string {
	switch m {
	case ModeMin:
		return "min"
	case ModeEdge:
		return "edge"
	default:
		return fmt.Sprintf("BaselineMode(%d)", int(m))
	}
}

// ParseBaselineMode parses "min" or "edge".
func ParseBaselineMode(s string) (BaselineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "":
		return ModeMin, nil
	case "edge":
		return ModeEdge, nil
	default:
		return 0, fmt.Errorf("%w: unknown baseline mode %q", ErrInvalidConfiguration, s)
	}
}

// PolicyKind tags the variant held by a TrimPolicy, NarrowPolicy or
// SigmaPolicy. The zero value is KindAuto.
type PolicyKind int

const (
	KindAuto PolicyKind = iota
	KindFixed
	KindFraction
)

// TrimPolicy controls how many channels are removed from each end of every
// continuum group.
type TrimPolicy struct {
	Kind     PolicyKind
	Channels int     // KindFixed
	Fraction float64 // KindFraction, in (0,1) of each group's length
}

// AutoTrim trims 10% of each group, at most MaxTrim channels and at most
// MaxTrimFraction of the group.
func AutoTrim() TrimPolicy { return TrimPolicy{Kind: KindAuto} }

// FixedTrim trims n channels from each end of every group.
func FixedTrim(n int) TrimPolicy { return TrimPolicy{Kind: KindFixed, Channels: n} }

// FractionTrim trims ceil(f*length) channels from each end of every group.
func FractionTrim(f float64) TrimPolicy { return TrimPolicy{Kind: KindFraction, Fraction: f} }

func (p TrimPolicy) String() string {
	switch p.Kind {
	case KindAuto:
		return "auto"
	case KindFixed:
		return strconv.Itoa(p.Channels)
	default:
		return strconv.FormatFloat(p.Fraction, 'g', -1, 64)
	}
}

// ParseTrimPolicy accepts "auto", a non-negative integer or a fraction in
// (0,1).
func ParseTrimPolicy(s string) (TrimPolicy, error) {
	kind, n, f, err := parsePolicy(s)
	if err != nil {
		return TrimPolicy{}, fmt.Errorf("trim: %w", err)
	}
	return TrimPolicy{Kind: kind, Channels: n, Fraction: f}, nil
}

// NarrowPolicy sets the minimum width of a continuum group when more than
// one group is found.
type NarrowPolicy struct {
	Kind     PolicyKind
	Channels int     // KindFixed
	Fraction float64 // KindFraction, in (0,1) of nchan
}

// AutoNarrow requires ceil(log10(nchan)) channels per group.
func AutoNarrow() NarrowPolicy { return NarrowPolicy{Kind: KindAuto} }

// FixedNarrow requires n channels per group. Zero disables the filter.
func FixedNarrow(n int) NarrowPolicy { return NarrowPolicy{Kind: KindFixed, Channels: n} }

// FractionNarrow requires ceil(f*nchan) channels per group.
func FractionNarrow(f float64) NarrowPolicy {
	return NarrowPolicy{Kind: KindFraction, Fraction: f}
}

func (p NarrowPolicy) String() string {
	switch p.Kind {
	case KindAuto:
		return "auto"
	case KindFixed:
		return strconv.Itoa(p.Channels)
	default:
		return strconv.FormatFloat(p.Fraction, 'g', -1, 64)
	}
}

// ParseNarrowPolicy accepts "auto", a non-negative integer or a fraction in
// (0,1).
func ParseNarrowPolicy(s string) (NarrowPolicy, error) {
	kind, n, f, err := parsePolicy(s)
	if err != nil {
		return NarrowPolicy{}, fmt.Errorf("narrow: %w", err)
	}
	return NarrowPolicy{Kind: kind, Channels: n, Fraction: f}, nil
}

// SigmaPolicy is the threshold multiplier: a fixed value, or automatic
// tuning starting from DefaultSigma.
type SigmaPolicy struct {
	Kind  PolicyKind
	Value float64
}

// DefaultSigma is the starting multiplier for automatic tuning.
const DefaultSigma = 3.5

// AutoSigma enables SigmaAutoTuner's group-count correction.
func AutoSigma() SigmaPolicy { return SigmaPolicy{Kind: KindAuto} }

// FixedSigma uses x as the multiplier. Only the noise-spike correction may
// still raise it.
func FixedSigma(x float64) SigmaPolicy { return SigmaPolicy{Kind: KindFixed, Value: x} }

func (p SigmaPolicy) String() string {
	if p.Kind == KindAuto {
		return "auto"
	}
	return strconv.FormatFloat(p.Value, 'g', -1, 64)
}

// ParseSigmaPolicy accepts "auto" or a positive number.
func ParseSigmaPolicy(s string) (SigmaPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" || s == "" {
		return AutoSigma(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return SigmaPolicy{}, fmt.Errorf("%w: sigma %q", ErrInvalidConfiguration, s)
	}
	return FixedSigma(v), nil
}

func (p SigmaPolicy) initial() float64 {
	if p.Kind == KindAuto {
		return DefaultSigma
	}
	return p.Value
}

func parsePolicy(s string) (PolicyKind, int, float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" || s == "" {
		return KindAuto, 0, 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: negative channel count %d", ErrInvalidConfiguration, n)
		}
		return KindFixed, n, 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: unsupported value %q", ErrInvalidConfiguration, s)
	}
	if !(f > 0 && f < 1) {
		return 0, 0, 0, fmt.Errorf("%w: fraction %g outside (0,1)", ErrInvalidConfiguration, f)
	}
	return KindFraction, 0, f, nil
}

// trimRule is a TrimPolicy resolved against MaxTrim and MaxTrimFraction.
type trimRule struct {
	kind            PolicyKind
	channels        int
	fraction        float64
	maxTrim         int
	maxTrimFraction float64
}

func resolveTrim(p TrimPolicy, maxTrim int, maxTrimFraction float64) (trimRule, error) {
	switch p.Kind {
	case KindAuto:
		if maxTrim < 0 {
			return trimRule{}, fmt.Errorf("%w: max trim %d", ErrInvalidConfiguration, maxTrim)
		}
		if !(maxTrimFraction > 0 && maxTrimFraction <= 1) {
			return trimRule{}, fmt.Errorf("%w: max trim fraction %g", ErrInvalidConfiguration, maxTrimFraction)
		}
	case KindFixed:
		if p.Channels < 0 {
			return trimRule{}, fmt.Errorf("%w: trim channels %d", ErrInvalidConfiguration, p.Channels)
		}
	case KindFraction:
		if !(p.Fraction > 0 && p.Fraction < 1) {
			return trimRule{}, fmt.Errorf("%w: trim fraction %g", ErrInvalidConfiguration, p.Fraction)
		}
	default:
		return trimRule{}, fmt.Errorf("%w: trim kind %d", ErrInvalidConfiguration, p.Kind)
	}
	return trimRule{
		kind:            p.Kind,
		channels:        p.Channels,
		fraction:        p.Fraction,
		maxTrim:         maxTrim,
		maxTrimFraction: maxTrimFraction,
	}, nil
}

// amount returns the channels to drop from each end of a group of the given
// length.
func (r trimRule) amount(length int) int {
	switch r.kind {
	case KindFixed:
		return r.channels
	case KindFraction:
		return int(math.Ceil(r.fraction * float64(length)))
	}
	t := (length + 9) / 10 // ceil(0.1*length)
	if t > r.maxTrim {
		t = r.maxTrim
	}
	if float64(t)/float64(length) > r.maxTrimFraction {
		t = int(math.Floor(r.maxTrimFraction * float64(length)))
	}
	return t
}

// resolveNarrow returns the minimum group width for a spectrum of nchan
// channels.
func resolveNarrow(p NarrowPolicy, nchan int) (int, error) {
	switch p.Kind {
	case KindAuto:
		if nchan < 1 {
			return 0, nil
		}
		return int(math.Ceil(math.Log10(float64(nchan)))), nil
	case KindFixed:
		if p.Channels < 0 {
			return 0, fmt.Errorf("%w: narrow channels %d", ErrInvalidConfiguration, p.Channels)
		}
		return p.Channels, nil
	case KindFraction:
		if !(p.Fraction > 0 && p.Fraction < 1) {
			return 0, fmt.Errorf("%w: narrow fraction %g", ErrInvalidConfiguration, p.Fraction)
		}
		return int(math.Ceil(p.Fraction * float64(nchan))), nil
	default:
		return 0, fmt.Errorf("%w: narrow kind %d", ErrInvalidConfiguration, p.Kind)
	}
}
