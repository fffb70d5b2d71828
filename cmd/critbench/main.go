package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kvit-s/critbench/internal/controller"
)

// Version info set by ldflags at build time.
var (
	version    = "dev"
	commitHash = "dev"
	buildDate  = "unknown"
)

// repeatedFlag collects every occurrence of a flag.Var-backed flag, for
// the repeatable -bin/-bench/-package flags.
type repeatedFlag []string

func (r *repeatedFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	lib := flag.Bool("lib", false, "run the library's own internal benchmarks (bin/test targets then run only if named with -bin)")
	var bins repeatedFlag
	flag.Var(&bins, "bin", "run only the named binary target (repeatable)")
	var benchPatterns repeatedFlag
	flag.Var(&benchPatterns, "bench", "run only benchmarks whose id matches this regex (repeatable)")
	var packages repeatedFlag
	flag.Var(&packages, "package", "limit discovery to this package pattern (repeatable)")
	targetDir := flag.String("target-dir", "", "override CRITBENCH_TARGET_DIR for this run")
	noRun := flag.Bool("no-run", false, "compile targets but do not execute them")
	noFailFast := flag.Bool("no-fail-fast", false, "keep running remaining targets after a per-target failure")
	plottingBackend := flag.String("plotting-backend", "auto", "plotting backend: auto|disabled")
	outputFormat := flag.String("output-format", "criterion", "output format: criterion|json|openmetrics|quiet")
	colorMode := flag.String("color", "auto", "color mode: auto|always|never")
	debug := flag.Bool("debug", false, "enable verbose logging and unoptimised builds")
	timeline := flag.String("timeline", "", "history timeline to read/write (default \"main\")")
	logPath := flag.String("log", "", "log file path (empty disables logging)")
	showVersion := flag.Bool("version", false, "show version information and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("critbench %s (commit %s, built %s)\n", version, commitHash, buildDate)
		return
	}

	if *targetDir != "" {
		os.Setenv("CRITBENCH_TARGET_DIR", *targetDir)
	}

	manifestDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}

	opts := controller.Options{
		ManifestDir:     manifestDir,
		Lib:             *lib,
		Bins:            bins,
		BenchPatterns:   benchPatterns,
		Packages:        packages,
		AdditionalArgs:  flag.Args(),
		NoRun:           *noRun,
		NoFailFast:      *noFailFast,
		PlottingBackend: controller.PlottingBackend(*plottingBackend),
		OutputFormat:    controller.OutputFormat(*outputFormat),
		Color:           controller.ColorMode(*colorMode),
		Debug:           *debug,
		Timeline:        *timeline,
		LogPath:         *logPath,
	}

	if err := validateEnums(opts); err != nil {
		log.Fatalf("%v", err)
	}

	if err := controller.Run(opts); err != nil {
		log.Fatalf("%v", err)
	}
}

func validateEnums(opts controller.Options) error {
	switch opts.OutputFormat {
	case controller.FormatCriterion, controller.FormatJSON, controller.FormatOpenMetrics, controller.FormatQuiet:
	default:
		return fmt.Errorf("unknown -output-format %q", opts.OutputFormat)
	}
	switch opts.Color {
	case controller.ColorAuto, controller.ColorAlways, controller.ColorNever:
	default:
		return fmt.Errorf("unknown -color %q", opts.Color)
	}
	switch opts.PlottingBackend {
	case controller.PlottingAuto, controller.PlottingDisabled:
	default:
		return fmt.Errorf("unknown -plotting-backend %q", opts.PlottingBackend)
	}
	return nil
}
