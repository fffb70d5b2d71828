// Package controller implements the top-level run orchestration: load
// config, compile targets, run each target to completion updating a shared
// Model, and print a final summary. Grounded on original_source/src/main.rs's
// fn main -- the configure/compile/for-each-target/final_summary shape is
// kept; the per-target execution itself is internal/target, since main.rs
// delegates to BenchTarget::execute the same way.
package controller

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"

	"github.com/eiannone/keyboard"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/compile"
	"github.com/kvit-s/critbench/internal/config"
	"github.com/kvit-s/critbench/internal/critbench"
	"github.com/kvit-s/critbench/internal/logging"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/report"
	"github.com/kvit-s/critbench/internal/target"
)

// OutputFormat selects which report sink(s) drive the run's visible output.
type OutputFormat string

const (
	FormatCriterion  OutputFormat = "criterion"
	FormatJSON       OutputFormat = "json"
	FormatOpenMetrics OutputFormat = "openmetrics"
	FormatQuiet      OutputFormat = "quiet"
)

// ColorMode selects whether CliReport emits ANSI color spans.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// PlottingBackend selects the (stub) plotting backend.
type PlottingBackend string

const (
	PlottingAuto     PlottingBackend = "auto"
	PlottingDisabled PlottingBackend = "disabled"
)

// Options carries every resolved CLI flag the controller needs.
type Options struct {
	ManifestDir string

	Lib            bool
	Bins           []string
	BenchPatterns  []string
	Packages       []string
	AdditionalArgs []string

	NoRun           bool
	NoFailFast      bool
	PlottingBackend PlottingBackend
	OutputFormat    OutputFormat
	Color           ColorMode
	Debug           bool
	Timeline        string
	LogPath         string
}

// Run executes one full controller pass: configure, compile, run every
// selected target, then print the final summary.
func Run(opts Options) error {
	if opts.PlottingBackend != "" && opts.PlottingBackend != PlottingAuto && opts.PlottingBackend != PlottingDisabled {
		return &critbench.Error{Kind: critbench.KindConfigParse, Msg: fmt.Sprintf("unknown plotting backend %q", opts.PlottingBackend)}
	}

	cfg, err := config.Load(opts.ManifestDir)
	if err != nil {
		return err
	}
	cfg.Debug = cfg.Debug || opts.Debug

	logger, err := logging.NewLogger(opts.LogPath, cfg.Debug)
	if err != nil {
		return &critbench.Error{Kind: critbench.KindConfigIo, Msg: "opening log file", Err: err}
	}
	defer logger.Close()

	targets, err := compile.Discover(opts.ManifestDir, opts.Packages)
	if err != nil {
		return err
	}
	targets = filterDiscoveredTargets(targets, opts)

	buildDir := filepath.Join(cfg.CriterionHome, "bin")
	built, err := compile.Build(targets, buildDir, cfg.Debug, logger)
	if err != nil {
		return err
	}

	if opts.NoRun {
		return nil
	}

	timeline := opts.Timeline
	if timeline == "" {
		timeline = cfg.Timeline
	}
	m := model.NewModel(cfg.CriterionHome, timeline)

	reports := buildReports(opts)
	reportCtx := report.Context{
		OutputDirectory: filepath.Join(cfg.CriterionHome, "reports"),
		PlotConfig:      protocol.PlotConfiguration{},
	}

	filter := buildFilter(opts.BenchPatterns)

	// Fallback only: each measurement's actual statistical parameters come
	// from the child's own BenchmarkConfig (see target.Driver.analysisConfig).
	// This is used only if a child ever omits benchmark_config.
	analysisCfg := analysis.Config{
		ConfidenceLevel:   0.95,
		NoiseThreshold:    0.01,
		Nresamples:        100000,
		SignificanceLevel: 0.05,
	}

	var skipKeys <-chan keyboard.KeyEvent
	if keys, err := keyboard.GetKeys(16); err == nil {
		skipKeys = keys
		defer keyboard.Close()
	}

	rng := seedRNG()

	for _, t := range built {
		driver := &target.Driver{
			Name:           t.Name,
			Executable:     t.Executable,
			CriterionHome:  cfg.CriterionHome,
			AdditionalArgs: opts.AdditionalArgs,
			Analysis:       analysisCfg,
			Reports:        reports,
			ReportCtx:      reportCtx,
			Model:          m,
			Logger:         logger,
			Filter:         filter,
			DoFailFast:     !opts.NoFailFast,
			SkipKeys:       skipKeys,
		}

		runErr := driver.Run(rng)
		if runErr == nil {
			continue
		}

		logger.Error(fmt.Sprintf("target %s failed", t.Name), runErr)
		fmt.Fprintf(os.Stderr, "error running benchmark target %s: %v\n", t.Name, runErr)

		if fatalErr(runErr) || !opts.NoFailFast {
			return runErr
		}
	}

	reports.FinalSummary(reportCtx, m)
	return nil
}

// fatalErr reports whether err should abort the run regardless of
// do_fail_fast, mirroring the always-fatal kinds in critbench.Kind.Fatal.
func fatalErr(err error) bool {
	var targetErr *target.Error
	if errors.As(err, &targetErr) {
		return targetErr.Kind.Fatal()
	}
	var cbErr *critbench.Error
	if errors.As(err, &cbErr) {
		return cbErr.Kind.Fatal()
	}
	return false
}

// filterDiscoveredTargets narrows the discovered target list down to
// -lib/-bin selections. With neither flag set, every bin and test target is
// kept and lib targets are dropped; otherwise only lib targets (with -lib)
// and bin/test targets named by -bin are kept.
func filterDiscoveredTargets(targets []compile.Target, opts Options) []compile.Target {
	defaultSelection := !opts.Lib && len(opts.Bins) == 0

	wantBins := make(map[string]bool, len(opts.Bins))
	for _, b := range opts.Bins {
		wantBins[b] = true
	}

	var out []compile.Target
	for _, t := range targets {
		switch t.Kind {
		case compile.KindLib:
			if opts.Lib {
				out = append(out, t)
			}
		case compile.KindBin, compile.KindTest:
			if defaultSelection || wantBins[t.Name] {
				out = append(out, t)
			}
		}
	}
	return out
}

// buildFilter compiles the -bench regex patterns (matched against a
// benchmark's full id) into a single target.Filter. No patterns means run
// everything.
func buildFilter(patterns []string) target.Filter {
	if len(patterns) == 0 {
		return nil
	}
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		res = append(res, re)
	}
	return func(id *model.BenchmarkId) bool {
		for _, re := range res {
			if re.MatchString(id.FullID) {
				return true
			}
		}
		return false
	}
}

// buildReports constructs the Report fan-out for the selected output
// format and color mode.
func buildReports(opts Options) report.Reports {
	var reports report.Reports

	switch opts.OutputFormat {
	case FormatJSON:
		reports = append(reports, report.NewJSONReport())
	case FormatOpenMetrics:
		reports = append(reports, report.NewOpenMetricsReport())
	case FormatQuiet:
		// no terminal output, but still build the on-disk report tree.
	default:
		enableColor := opts.Color == ColorAlways || (opts.Color != ColorNever && isTerminal(os.Stdout))
		reports = append(reports, report.NewCliReport(true, enableColor, true, false, 0))
	}

	if opts.PlottingBackend != PlottingDisabled {
		reports = append(reports, report.NewHTMLReport(nil))
	}

	return reports
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// seedRNG draws a fresh seed from the OS CSPRNG at startup rather than a
// fixed or time-based seed, matching the "deterministic within a run, not
// across runs" requirement for bootstrap resampling.
func seedRNG() *rand.Rand {
	var seedBytes [16]byte
	if _, err := cryptorand.Read(seedBytes[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a fixed seed rather than panic.
		return rand.New(rand.NewPCG(1, 2))
	}
	seed1 := binary.BigEndian.Uint64(seedBytes[:8])
	seed2 := binary.BigEndian.Uint64(seedBytes[8:])
	return rand.New(rand.NewPCG(seed1, seed2))
}
