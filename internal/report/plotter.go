package report

import (
	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// PlotContext carries the per-plot path and sizing hints a Plotter needs,
// grounded on plot/mod.rs's PlotContext.
type PlotContext struct {
	ID          *model.BenchmarkId
	ReportCtx   Context
	IsThumbnail bool
}

// PlotData bundles the measurement (and optional comparison) data one plot
// call renders.
type PlotData struct {
	Formatter   valueformatter.Formatter
	Measurements *analysis.MeasurementData
	Comparison  *analysis.ComparisonData
}

// Plotter is the plotting backend interface, grounded on plot/mod.rs's
// Plotter trait. Wait is a barrier: any sub-processes a backend spawned to
// render SVGs are collected here before the next lifecycle phase begins.
type Plotter interface {
	PDF(ctx PlotContext, data PlotData)
	Regression(ctx PlotContext, data PlotData)
	AbsDistributions(ctx PlotContext, data PlotData)
	RelDistributions(ctx PlotContext, data PlotData)
	LineComparison(ctx PlotContext, data PlotData)
	Violin(ctx PlotContext, data PlotData)
	TTest(ctx PlotContext, data PlotData)
	Wait()
}

// NullPlotter is a no-op Plotter: rendering actual SVGs is out of scope for
// this implementation (see SPEC_FULL.md 4.7), but the interface is kept so a
// real backend can be wired in without touching call sites.
type NullPlotter struct{}

func (NullPlotter) PDF(PlotContext, PlotData)              {}
func (NullPlotter) Regression(PlotContext, PlotData)       {}
func (NullPlotter) AbsDistributions(PlotContext, PlotData) {}
func (NullPlotter) RelDistributions(PlotContext, PlotData) {}
func (NullPlotter) LineComparison(PlotContext, PlotData)   {}
func (NullPlotter) Violin(PlotContext, PlotData)           {}
func (NullPlotter) TTest(PlotContext, PlotData)            {}
func (NullPlotter) Wait()                                  {}
