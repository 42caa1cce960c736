// Package continuum finds the line-free (continuum) channels of an
// averaged radio spectrum and encodes them as a channel range selection
// such as "5~20;30~40".
//
// The search works in stages:
//
//   - A baseline set is chosen from the band edges (ModeEdge) or from the
//     lowest-valued channels (ModeMin). Its median and MAD are bias
//     corrected for having measured only a percentile of the noise.
//   - Channels between the negative and positive thresholds around the
//     corrected median are grouped into contiguous runs. Flat runs are
//     rejected, the remaining runs are trimmed at both ends and narrow runs
//     are dropped when more than one survives.
//   - The threshold multiplier is corrected at most once: raised when every
//     above-threshold feature is a one-channel spike, or lowered by a
//     table-driven factor when the selection looks over-fragmented.
//   - When most of the band is selected, a linear trend fitted to the
//     selected channels is removed and the test is repeated. The refined
//     result is discarded if it only splits one wide group into slivers.
//
// # Usage
//
//	res, err := continuum.Find(continuum.Spectrum{Values: avg}, continuum.DefaultConfig())
//	if err != nil {
//	    // errors.Is(err, continuum.ErrDegenerateSpectrum) ...
//	}
//	fmt.Println(res.Selection, res.Groups)
//
// A Finder is stateless between calls, so independent spectra (one per
// spectral window, say) may be processed concurrently.
package continuum
