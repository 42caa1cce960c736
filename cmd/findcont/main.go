// Command findcont finds the continuum channels of mean-spectrum files.
//
// Usage:
//
//	findcont [flags] file ...
//
// Each file is processed independently; with -j > 1 files are processed
// in parallel. One table row is printed per file in argument order.
//
// Examples:
//
//	findcont spw17.meanSpectrum
//	findcont -mode edge -sigma 4 -trim 0 spw*.meanSpectrum
//	findcont -config findcont.yaml -freq -j 8 *.meanSpectrum
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-continuum/measure/continuum"
	"github.com/cwbudde/algo-continuum/measure/continuum/meanspec"
)

func main() {
	fs := flag.CommandLine
	configPath := fs.String("config", "", "YAML configuration file")
	jobs := fs.Int("j", runtime.GOMAXPROCS(0), "number of files processed in parallel")
	verbose := fs.Bool("v", false, "debug logging to stderr")
	freq := fs.Bool("freq", false, "print selected frequency ranges")
	update := fs.Bool("update", false, "rewrite each file's metadata line with the new threshold")
	var fv flagValues
	fv.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: findcont [flags] file ...\n\n")
		fmt.Fprintf(os.Stderr, "Finds continuum channels of mean-spectrum files.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  findcont spw17.meanSpectrum\n")
		fmt.Fprintf(os.Stderr, "  findcont -mode edge -sigma 4 -trim 0 spw*.meanSpectrum\n")
		fmt.Fprintf(os.Stderr, "  findcont -config findcont.yaml -freq -j 8 *.meanSpectrum\n")
	}
	flag.Parse()

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := fv.override(fs, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	finder := continuum.NewFinder(cfg, continuum.WithLogger(logger))
	results := run(context.Background(), finder, fs.Args(), *jobs, *update, logger)
	if err := printResults(os.Stdout, results, *freq); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.err != nil {
			os.Exit(1)
		}
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// fileResult is the outcome for one input file.
type fileResult struct {
	path string
	res  continuum.Result
	err  error
}

// run processes paths with at most jobs concurrent finder calls. Results
// are returned in input order; a failing file does not stop the others.
func run(ctx context.Context, finder *continuum.Finder, paths []string, jobs int, update bool, log *zap.Logger) []fileResult {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = fileResult{path: path, err: err}
				return nil
			}
			res, err := processFile(finder, path, update)
			results[i] = fileResult{path: path, res: res, err: err}
			if err != nil {
				log.Warn("continuum search failed", zap.String("file", path), zap.Error(err))
				return nil
			}
			log.Debug("continuum search done",
				zap.String("file", path),
				zap.String("selection", res.Selection),
				zap.Float64("sigma", res.Sigma),
			)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func processFile(finder *continuum.Finder, path string, update bool) (continuum.Result, error) {
	f, err := meanspec.ReadFile(path)
	if err != nil {
		return continuum.Result{}, err
	}
	res, err := finder.Find(f.Spectrum())
	if err != nil {
		return continuum.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	if update {
		if err := meanspec.WriteFile(path, f.WithResult(res)); err != nil {
			return res, err
		}
	}
	return res, nil
}

func printResults(w io.Writer, results []fileResult, freq bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "File\tChannels\tGroups\tSigma\tMedian\tMAD\tThreshold\tSlope\tSelection"
	if freq {
		header += "\tFrequency ranges [GHz]"
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range results {
		if r.err != nil {
			if _, err := fmt.Fprintf(tw, "%s\terror: %v\n", r.path, r.err); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
			continue
		}
		res := r.res
		slope := "-"
		if res.SlopeRemoved {
			slope = fmt.Sprintf("%.3g", res.Slope)
		} else if res.SlopeDiscarded {
			slope = "discarded"
		}
		row := fmt.Sprintf("%s\t%d/%d\t%d\t%.3f\t%.4g\t%.4g\t%.4g\t%s\t%s",
			r.path,
			len(res.Channels), res.NChan,
			res.Groups,
			res.Sigma,
			res.MedianTrue,
			res.MAD,
			res.Threshold,
			slope,
			res.Selection,
		)
		if freq {
			row += "\t" + formatRanges(res.FrequencyRanges())
		}
		if _, err := fmt.Fprintln(tw, row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func formatRanges(ranges []continuum.FrequencyRange) string {
	parts := make([]string, len(ranges))
	for i, fr := range ranges {
		parts[i] = fmt.Sprintf("%.6f-%.6f", fr.Low/1e9, fr.High/1e9)
	}
	return strings.Join(parts, ",")
}
