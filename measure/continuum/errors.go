package continuum

import "errors"

// Errors returned by the continuum finder.
var (
	ErrInvalidConfiguration = errors.New("continuum: invalid configuration")
	ErrDegenerateSpectrum   = errors.New("continuum: degenerate spectrum")
	ErrInvalidSelection     = errors.New("continuum: invalid selection")
)
