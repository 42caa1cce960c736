package continuum

import (
	"fmt"
	"math"
)

const (
	defaultBaselineFraction        = 0.19
	defaultMaxTrim                 = 20
	defaultMaxTrimFraction         = 1.0
	defaultNegativeThresholdFactor = 1.15
	defaultSeparator               = ";"
	defaultSlopeFraction           = 0.8
)

// Config holds continuum finder parameters. The zero value of every policy
// field is its automatic variant; numeric zero values are replaced by
// defaults.
type Config struct {
	BaselineMode BaselineMode
	// NBaselineChannels is the size of the baseline set. Zero derives it
	// from BaselineFraction.
	NBaselineChannels int
	BaselineFraction  float64

	Sigma           SigmaPolicy
	Trim            TrimPolicy
	MaxTrim         int
	MaxTrimFraction float64
	Narrow          NarrowPolicy

	NegativeThresholdFactor float64
	Separator               string

	// SlopeFraction is the selected fraction of nchan above which the
	// linear-trend refinement runs.
	SlopeFraction       float64
	DisableSlopeRemoval bool
}

// DefaultConfig returns the standard finder configuration.
func DefaultConfig() Config {
	return Config{
		BaselineMode:            ModeMin,
		BaselineFraction:        defaultBaselineFraction,
		Sigma:                   AutoSigma(),
		Trim:                    AutoTrim(),
		MaxTrim:                 defaultMaxTrim,
		MaxTrimFraction:         defaultMaxTrimFraction,
		Narrow:                  AutoNarrow(),
		NegativeThresholdFactor: defaultNegativeThresholdFactor,
		Separator:               defaultSeparator,
		SlopeFraction:           defaultSlopeFraction,
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.BaselineFraction == 0 {
		cfg.BaselineFraction = defaultBaselineFraction
	}
	if cfg.MaxTrim == 0 {
		cfg.MaxTrim = defaultMaxTrim
	}
	if cfg.MaxTrimFraction == 0 {
		cfg.MaxTrimFraction = defaultMaxTrimFraction
	}
	if cfg.NegativeThresholdFactor == 0 {
		cfg.NegativeThresholdFactor = defaultNegativeThresholdFactor
	}
	if cfg.Separator == "" {
		cfg.Separator = defaultSeparator
	}
	if cfg.SlopeFraction == 0 {
		cfg.SlopeFraction = defaultSlopeFraction
	}
	return cfg
}

// Validate checks the parameters that do not depend on the spectrum.
func (c Config) Validate() error {
	if c.BaselineMode != ModeMin && c.BaselineMode != ModeEdge {
		return fmt.Errorf("%w: baseline mode %d", ErrInvalidConfiguration, c.BaselineMode)
	}
	if c.NBaselineChannels != 0 && c.NBaselineChannels < 2 {
		return fmt.Errorf("%w: nBaselineChannels must be >= 2: %d", ErrInvalidConfiguration, c.NBaselineChannels)
	}
	if c.NBaselineChannels == 0 && !(c.BaselineFraction > 0 && c.BaselineFraction <= 1) {
		return fmt.Errorf("%w: baseline fraction %g", ErrInvalidConfiguration, c.BaselineFraction)
	}
	switch c.Sigma.Kind {
	case KindAuto:
	case KindFixed:
		if !(c.Sigma.Value > 0) || math.IsInf(c.Sigma.Value, 0) {
			return fmt.Errorf("%w: sigma %g", ErrInvalidConfiguration, c.Sigma.Value)
		}
	default:
		return fmt.Errorf("%w: sigma kind %d", ErrInvalidConfiguration, c.Sigma.Kind)
	}
	if _, err := resolveTrim(c.Trim, c.MaxTrim, c.MaxTrimFraction); err != nil {
		return err
	}
	if _, err := resolveNarrow(c.Narrow, 1); err != nil {
		return err
	}
	if !(c.NegativeThresholdFactor > 0) {
		return fmt.Errorf("%w: negative threshold factor %g", ErrInvalidConfiguration, c.NegativeThresholdFactor)
	}
	if !(c.SlopeFraction > 0 && c.SlopeFraction <= 1) {
		return fmt.Errorf("%w: slope fraction %g", ErrInvalidConfiguration, c.SlopeFraction)
	}
	return nil
}

// baselineChannels returns the baseline set size for nchan channels.
func (c Config) baselineChannels(nchan int) int {
	n := c.NBaselineChannels
	if n == 0 {
		n = int(c.BaselineFraction * float64(nchan))
		if n < 2 {
			n = 2
		}
	}
	if n > nchan {
		n = nchan
	}
	return n
}
