package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-continuum/measure/continuum"
)

// fileConfig mirrors continuum.Config in the YAML file. Policies are kept as
// strings so "auto", integers and fractions can share one key.
type fileConfig struct {
	BaselineMode            string  `yaml:"baseline_mode"`
	NBaselineChannels       int     `yaml:"n_baseline_channels"`
	BaselineFraction        float64 `yaml:"baseline_fraction"`
	Sigma                   string  `yaml:"sigma"`
	Trim                    string  `yaml:"trim"`
	MaxTrim                 int     `yaml:"max_trim"`
	MaxTrimFraction         float64 `yaml:"max_trim_fraction"`
	Narrow                  string  `yaml:"narrow"`
	NegativeThresholdFactor float64 `yaml:"negative_threshold_factor"`
	Separator               string  `yaml:"separator"`
	SlopeFraction           float64 `yaml:"slope_fraction"`
	DisableSlopeRemoval     bool    `yaml:"disable_slope_removal"`
}

// apply copies the fields present in the file onto cfg.
func (fc fileConfig) apply(cfg *continuum.Config) error {
	var err error
	if fc.BaselineMode != "" {
		if cfg.BaselineMode, err = continuum.ParseBaselineMode(fc.BaselineMode); err != nil {
			return err
		}
	}
	if fc.Sigma != "" {
		if cfg.Sigma, err = continuum.ParseSigmaPolicy(fc.Sigma); err != nil {
			return err
		}
	}
	if fc.Trim != "" {
		if cfg.Trim, err = continuum.ParseTrimPolicy(fc.Trim); err != nil {
			return err
		}
	}
	if fc.Narrow != "" {
		if cfg.Narrow, err = continuum.ParseNarrowPolicy(fc.Narrow); err != nil {
			return err
		}
	}
	if fc.NBaselineChannels != 0 {
		cfg.NBaselineChannels = fc.NBaselineChannels
	}
	if fc.BaselineFraction != 0 {
		cfg.BaselineFraction = fc.BaselineFraction
	}
	if fc.MaxTrim != 0 {
		cfg.MaxTrim = fc.MaxTrim
	}
	if fc.MaxTrimFraction != 0 {
		cfg.MaxTrimFraction = fc.MaxTrimFraction
	}
	if fc.NegativeThresholdFactor != 0 {
		cfg.NegativeThresholdFactor = fc.NegativeThresholdFactor
	}
	if fc.Separator != "" {
		cfg.Separator = fc.Separator
	}
	if fc.SlopeFraction != 0 {
		cfg.SlopeFraction = fc.SlopeFraction
	}
	if fc.DisableSlopeRemoval {
		cfg.DisableSlopeRemoval = true
	}
	return nil
}

// loadConfig returns the default configuration overlaid with the YAML file
// at path. An empty path yields the defaults.
func loadConfig(path string) (continuum.Config, error) {
	cfg := continuum.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.apply(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// flagValues holds the command-line overrides.
type flagValues struct {
	mode    string
	nbase   int
	sigma   string
	trim    string
	narrow  string
	sep     string
	noSlope bool
}

func (fv *flagValues) register(fs *flag.FlagSet) {
	fs.StringVar(&fv.mode, "mode", "", "baseline mode: min or edge")
	fs.IntVar(&fv.nbase, "nbase", 0, "baseline channels (0 derives them from the band)")
	fs.StringVar(&fv.sigma, "sigma", "", "threshold multiplier: auto or a number")
	fs.StringVar(&fv.trim, "trim", "", "group trim: auto, channels or fraction")
	fs.StringVar(&fv.narrow, "narrow", "", "minimum group width: auto, channels or fraction")
	fs.StringVar(&fv.sep, "sep", "", "selection separator")
	fs.BoolVar(&fv.noSlope, "no-slope", false, "disable linear trend removal")
}

// override applies the flags that were set explicitly on fs.
func (fv *flagValues) override(fs *flag.FlagSet, cfg *continuum.Config) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "mode":
			cfg.BaselineMode, err = continuum.ParseBaselineMode(fv.mode)
		case "nbase":
			cfg.NBaselineChannels = fv.nbase
		case "sigma":
			cfg.Sigma, err = continuum.ParseSigmaPolicy(fv.sigma)
		case "trim":
			cfg.Trim, err = continuum.ParseTrimPolicy(fv.trim)
		case "narrow":
			cfg.Narrow, err = continuum.ParseNarrowPolicy(fv.narrow)
		case "sep":
			cfg.Separator = fv.sep
		case "no-slope":
			cfg.DisableSlopeRemoval = fv.noSlope
		}
		if err != nil {
			err = fmt.Errorf("-%s: %w", f.Name, err)
		}
	})
	return err
}
