// Package report implements the reporting fan-out: a closed set of sinks
// (CliReport, JSONReport, OpenMetricsReport, HTMLReport) all satisfying the
// Report interface, dispatched sequentially by Reports, grounded directly on
// original_source/src/report.rs's Report trait and Reports wrapper. Go
// interfaces stand in for the source's trait objects directly; no
// tagged-variant indirection is needed since Go dispatches interface calls
// natively.
package report

import (
	"path/filepath"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// Context carries the per-run settings every lifecycle callback needs.
type Context struct {
	OutputDirectory string
	PlotConfig      protocol.PlotConfiguration
}

// ReportPath joins the output directory with id's directory name and a file
// name, mirroring ReportContext::report_path.
func (c Context) ReportPath(id *model.BenchmarkId, fileName string) string {
	return filepath.Join(c.OutputDirectory, filepath.FromSlash(id.DirectoryName), fileName)
}

// Report is the lifecycle interface every sink implements. All nine methods
// have no-op defaults via BaseReport; a concrete sink embeds BaseReport and
// overrides only the callbacks it cares about.
type Report interface {
	BenchmarkStart(id *model.BenchmarkId, ctx Context)
	Warmup(id *model.BenchmarkId, ctx Context, warmupNanos float64)
	Analysis(id *model.BenchmarkId, ctx Context)
	MeasurementStart(id *model.BenchmarkId, ctx Context, sampleCount uint64, estimateNs float64, iterCount uint64)
	MeasurementComplete(id *model.BenchmarkId, ctx Context, data *analysis.MeasurementData, formatter valueformatter.Formatter)
	Summarize(ctx Context, groupID string, group *model.BenchmarkGroup, formatter valueformatter.Formatter)
	FinalSummary(ctx Context, m *model.Model)
	GroupSeparator()
	History(ctx Context, id *model.BenchmarkId, history []model.SavedStatistics, formatter valueformatter.Formatter)
}

// BaseReport gives every field a no-op implementation; concrete sinks embed
// it and override only what they need.
type BaseReport struct{}

func (BaseReport) BenchmarkStart(*model.BenchmarkId, Context)                                         {}
func (BaseReport) Warmup(*model.BenchmarkId, Context, float64)                                        {}
func (BaseReport) Analysis(*model.BenchmarkId, Context)                                               {}
func (BaseReport) MeasurementStart(*model.BenchmarkId, Context, uint64, float64, uint64)               {}
func (BaseReport) MeasurementComplete(*model.BenchmarkId, Context, *analysis.MeasurementData, valueformatter.Formatter) {
}
func (BaseReport) Summarize(Context, string, *model.BenchmarkGroup, valueformatter.Formatter) {}
func (BaseReport) FinalSummary(Context, *model.Model)                                         {}
func (BaseReport) GroupSeparator()                                                            {}
func (BaseReport) History(Context, *model.BenchmarkId, []model.SavedStatistics, valueformatter.Formatter) {
}

// Reports fans every lifecycle call out to each member in registration
// order.
type Reports []Report

func (r Reports) BenchmarkStart(id *model.BenchmarkId, ctx Context) {
	for _, sink := range r {
		sink.BenchmarkStart(id, ctx)
	}
}

func (r Reports) Warmup(id *model.BenchmarkId, ctx Context, warmupNanos float64) {
	for _, sink := range r {
		sink.Warmup(id, ctx, warmupNanos)
	}
}

func (r Reports) Analysis(id *model.BenchmarkId, ctx Context) {
	for _, sink := range r {
		sink.Analysis(id, ctx)
	}
}

func (r Reports) MeasurementStart(id *model.BenchmarkId, ctx Context, sampleCount uint64, estimateNs float64, iterCount uint64) {
	for _, sink := range r {
		sink.MeasurementStart(id, ctx, sampleCount, estimateNs, iterCount)
	}
}

func (r Reports) MeasurementComplete(id *model.BenchmarkId, ctx Context, data *analysis.MeasurementData, formatter valueformatter.Formatter) {
	for _, sink := range r {
		sink.MeasurementComplete(id, ctx, data, formatter)
	}
}

func (r Reports) Summarize(ctx Context, groupID string, group *model.BenchmarkGroup, formatter valueformatter.Formatter) {
	for _, sink := range r {
		sink.Summarize(ctx, groupID, group, formatter)
	}
}

func (r Reports) FinalSummary(ctx Context, m *model.Model) {
	for _, sink := range r {
		sink.FinalSummary(ctx, m)
	}
}

func (r Reports) GroupSeparator() {
	for _, sink := range r {
		sink.GroupSeparator()
	}
}

func (r Reports) History(ctx Context, id *model.BenchmarkId, history []model.SavedStatistics, formatter valueformatter.Formatter) {
	for _, sink := range r {
		sink.History(ctx, id, history, formatter)
	}
}
