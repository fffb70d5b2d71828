package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/fatih/color"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/stats"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// CliReport is the terminal sink: overwritable status lines on stderr,
// colored spans, outlier summaries, and a time/throughput/change block on
// MeasurementComplete, grounded directly on original_source/src/report.rs's
// CliReport.
type CliReport struct {
	BaseReport

	Out              io.Writer
	EnableOverwrite  bool
	EnableColor      bool
	ShowDifferences  bool
	Verbose          bool

	lastLineLen int
	completed   int
	total       int
	bar         progress.Model
}

// NewCliReport constructs a CliReport writing to os.Stderr.
func NewCliReport(enableOverwrite, enableColor, showDifferences, verbose bool, total int) *CliReport {
	return &CliReport{
		Out:             os.Stderr,
		EnableOverwrite: enableOverwrite,
		EnableColor:     enableColor,
		ShowDifferences: showDifferences,
		Verbose:         verbose,
		total:           total,
		bar:             progress.New(progress.WithSolidFill("#00ff00")),
	}
}

func (c *CliReport) textOverwrite() {
	if c.EnableOverwrite {
		fmt.Fprint(c.Out, "\r"+strings.Repeat(" ", c.lastLineLen)+"\r")
	}
}

func (c *CliReport) printOverwritable(s string) {
	if c.EnableOverwrite {
		c.lastLineLen = len(s)
		fmt.Fprint(c.Out, s)
	} else {
		fmt.Fprintln(c.Out, s)
	}
}

func (c *CliReport) colorize(attr color.Attribute, s string) string {
	if !c.EnableColor {
		return s
	}
	return color.New(attr).Sprint(s)
}

func (c *CliReport) green(s string) string { return c.colorize(color.FgGreen, s) }
func (c *CliReport) red(s string) string   { return c.colorize(color.FgRed, s) }
func (c *CliReport) bold(s string) string  { return c.colorize(color.Bold, s) }
func (c *CliReport) faint(s string) string { return c.colorize(color.Faint, s) }

// progressLine renders "N of M benchmarks complete" with a static bar,
// exercising bubbles/progress's ViewAs renderer outside of any tea.Program
// event loop -- this is a batch CLI, not a TUI.
func (c *CliReport) progressLine() string {
	if c.total == 0 {
		return ""
	}
	ratio := float64(c.completed) / float64(c.total)
	return fmt.Sprintf("[%d/%d] %s", c.completed, c.total, c.bar.ViewAs(ratio))
}

func (c *CliReport) BenchmarkStart(id *model.BenchmarkId, _ Context) {
	c.printOverwritable(fmt.Sprintf("Benchmarking %s", id.String()))
}

func (c *CliReport) Warmup(id *model.BenchmarkId, _ Context, warmupNanos float64) {
	c.textOverwrite()
	c.printOverwritable(fmt.Sprintf("Benchmarking %s: Warming up for %s", id.String(), formatTime(warmupNanos)))
}

func (c *CliReport) Analysis(id *model.BenchmarkId, _ Context) {
	c.textOverwrite()
	c.printOverwritable(fmt.Sprintf("Benchmarking %s: Analyzing", id.String()))
}

func (c *CliReport) MeasurementStart(id *model.BenchmarkId, _ Context, sampleCount uint64, estimateNs float64, iterCount uint64) {
	c.textOverwrite()
	c.printOverwritable(fmt.Sprintf("Benchmarking %s: Collecting %d samples in estimated %s (%d iterations)",
		id.String(), sampleCount, formatTime(estimateNs), iterCount))
}

func (c *CliReport) MeasurementComplete(id *model.BenchmarkId, _ Context, meas *analysis.MeasurementData, formatter valueformatter.Formatter) {
	c.textOverwrite()
	c.completed++

	typical := meas.Estimates.Typical()

	title := id.String()
	if len(title) > 23 {
		fmt.Fprintln(c.Out, c.green(title))
		title = ""
	}
	fmt.Fprintf(c.Out, "%s%stime:   [%s %s %s]\n",
		c.green(title), strings.Repeat(" ", 24-len(title)),
		c.faint(formatter.FormatValue(typical.ConfidenceInterval.LowerBound)),
		c.bold(formatter.FormatValue(typical.PointEstimate)),
		c.faint(formatter.FormatValue(typical.ConfidenceInterval.UpperBound)),
	)

	if meas.Throughput != nil {
		fmt.Fprintf(c.Out, "%sthrpt:  [%s %s %s]\n", strings.Repeat(" ", 24),
			c.faint(formatter.FormatThroughput(meas.Throughput, typical.ConfidenceInterval.UpperBound)),
			c.bold(formatter.FormatThroughput(meas.Throughput, typical.PointEstimate)),
			c.faint(formatter.FormatThroughput(meas.Throughput, typical.ConfidenceInterval.LowerBound)),
		)
	}

	if meas.Estimates.Slope != nil {
		c.printSlope(meas, formatter)
	}

	if c.ShowDifferences && meas.Comparison != nil {
		c.printChange(meas)
	}

	if c.Verbose {
		c.printOutliers(meas.AvgTimes)
	}

	fmt.Fprint(c.Out, c.progressLine()+"\n")
}

func (c *CliReport) printSlope(meas *analysis.MeasurementData, formatter valueformatter.Formatter) {
	slope := meas.Estimates.Slope
	var r2 float64
	if meas.RSquared != nil {
		r2 = *meas.RSquared
	}
	fmt.Fprintf(c.Out, "%sslope:  [%s %s %s] R^2            = %.7f\n", strings.Repeat(" ", 24),
		c.faint(formatter.FormatValue(slope.ConfidenceInterval.LowerBound)),
		c.bold(formatter.FormatValue(slope.PointEstimate)),
		c.faint(formatter.FormatValue(slope.ConfidenceInterval.UpperBound)),
		r2,
	)
}

func (c *CliReport) printChange(meas *analysis.MeasurementData) {
	comp := meas.Comparison
	meanEst := comp.RelativeEstimates.Mean
	differentMean := comp.PValue < comp.SignificanceThreshold

	pointStr := formatChange(meanEst.PointEstimate)
	var explanation string
	if !differentMean {
		explanation = "No change in performance detected."
	} else {
		switch analysis.CompareToThreshold(meanEst, comp.NoiseThreshold) {
		case analysis.Improved:
			pointStr = c.green(c.bold(pointStr))
			explanation = fmt.Sprintf("Performance has %s.", c.green("improved"))
		case analysis.Regressed:
			pointStr = c.red(c.bold(pointStr))
			explanation = fmt.Sprintf("Performance has %s.", c.red("regressed"))
		default:
			explanation = "Change within noise threshold."
		}
	}

	cmp := "<"
	if !differentMean {
		cmp = ">"
	}
	fmt.Fprintf(c.Out, "%schange: [%s %s %s] (p = %.2f %s %.2f)\n", strings.Repeat(" ", 24),
		c.faint(formatChange(meanEst.ConfidenceInterval.LowerBound)),
		pointStr,
		c.faint(formatChange(meanEst.ConfidenceInterval.UpperBound)),
		comp.PValue, cmp, comp.SignificanceThreshold)
	fmt.Fprintf(c.Out, "%s%s\n", strings.Repeat(" ", 24), explanation)
}

func (c *CliReport) printOutliers(sample *stats.LabeledSample) {
	los, lom, _, him, his := sample.Count()
	total := los + lom + him + his
	if total == 0 {
		return
	}
	size := sample.Len()
	pct := func(n int) float64 { return 100 * float64(n) / float64(size) }

	fmt.Fprintln(c.Out, c.faint(fmt.Sprintf("Found %d outliers among %d measurements (%.2f%%)", total, size, pct(total))))
	print := func(n int, label string) {
		if n != 0 {
			fmt.Fprintf(c.Out, "  %d (%.2f%%) %s\n", n, pct(n), label)
		}
	}
	print(los, "low severe")
	print(lom, "low mild")
	print(him, "high mild")
	print(his, "high severe")
}

func (c *CliReport) GroupSeparator() {
	fmt.Fprintln(c.Out)
}

func (c *CliReport) FinalSummary(_ Context, m *model.Model) {
	fmt.Fprintf(c.Out, "%s\n", c.bold(fmt.Sprintf("Benchmarking complete: %d groups", len(m.Groups))))
}

func formatTime(nanos float64) string {
	switch {
	case nanos < 1e3:
		return fmt.Sprintf("%.2f ns", nanos)
	case nanos < 1e6:
		return fmt.Sprintf("%.2f us", nanos/1e3)
	case nanos < 1e9:
		return fmt.Sprintf("%.2f ms", nanos/1e6)
	default:
		return fmt.Sprintf("%.2f s", nanos/1e9)
	}
}

func formatChange(ratio float64) string {
	return fmt.Sprintf("%+.4f%%", ratio*100)
}
