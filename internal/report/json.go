package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/estimate"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// confidenceInterval is the JSON-line rendering of one Estimate, scaled
// through the child's ValueFormatter, grounded on
// message_formats/mod.rs::ConfidenceInterval.
type confidenceInterval struct {
	Estimate   float64 `json:"estimate"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Unit       string  `json:"unit"`
}

// slopeEstimate adds the regression goodness-of-fit alongside the slope's
// confidence interval.
type slopeEstimate struct {
	confidenceInterval
	RSquared float64 `json:"r_squared"`
}

func confidenceIntervalFromEstimate(est estimate.Estimate, formatter valueformatter.Formatter) confidenceInterval {
	values := []float64{est.PointEstimate, est.ConfidenceInterval.LowerBound, est.ConfidenceInterval.UpperBound}
	unit := formatter.ScaleForMachines(values)
	return confidenceInterval{Estimate: values[0], LowerBound: values[1], UpperBound: values[2], Unit: unit}
}

func confidenceIntervalFromPercent(est estimate.Estimate) confidenceInterval {
	return confidenceInterval{
		Estimate:   est.PointEstimate,
		LowerBound: est.ConfidenceInterval.LowerBound,
		UpperBound: est.ConfidenceInterval.UpperBound,
		Unit:       "%",
	}
}

type jsonThroughput struct {
	PerIteration uint64 `json:"per_iteration"`
	Unit         string `json:"unit"`
}

type jsonChangeDetails struct {
	Mean   confidenceInterval `json:"mean"`
	Median confidenceInterval `json:"median"`
	Change string             `json:"change"`
}

type jsonBenchmarkComplete struct {
	Reason          string             `json:"reason"`
	ID              string             `json:"id"`
	ReportDirectory string             `json:"report_directory"`
	IterationCount  []uint64           `json:"iteration_count"`
	MeasuredValues  []float64          `json:"measured_values"`
	Unit            string             `json:"unit"`
	Throughput      []jsonThroughput   `json:"throughput"`
	Typical         confidenceInterval `json:"typical"`
	Mean            confidenceInterval `json:"mean"`
	Median          confidenceInterval `json:"median"`
	MedianAbsDev    confidenceInterval `json:"median_abs_dev"`
	Slope           *slopeEstimate     `json:"slope,omitempty"`
	Change          *jsonChangeDetails `json:"change,omitempty"`
}

type jsonGroupComplete struct {
	Reason          string   `json:"reason"`
	GroupName       string   `json:"group_name"`
	Benchmarks      []string `json:"benchmarks"`
	ReportDirectory string   `json:"report_directory"`
}

// JSONReport emits one JSON object per line on stdout, one per
// benchmark-complete and group-complete event, matching
// message_formats/json.rs exactly.
type JSONReport struct {
	BaseReport

	Out io.Writer
}

// NewJSONReport constructs a JSONReport writing to os.Stdout.
func NewJSONReport() *JSONReport {
	return &JSONReport{Out: os.Stdout}
}

func (j *JSONReport) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing JSON message: %v\n", err)
		return
	}
	fmt.Fprintln(j.Out, string(data))
}

func (j *JSONReport) MeasurementComplete(id *model.BenchmarkId, ctx Context, meas *analysis.MeasurementData, formatter valueformatter.Formatter) {
	measuredValues := append([]float64(nil), meas.Times...)
	unit := formatter.ScaleForMachines(measuredValues)

	iterationCount := make([]uint64, len(meas.Iters))
	for i, v := range meas.Iters {
		iterationCount[i] = uint64(v)
	}

	var throughputs []jsonThroughput
	if meas.Throughput != nil {
		throughputs = []jsonThroughput{{PerIteration: meas.Throughput.Count, Unit: meas.Throughput.JSONUnit()}}
	}

	msg := jsonBenchmarkComplete{
		Reason:          "benchmark-complete",
		ID:              id.Title,
		ReportDirectory: ctx.ReportPath(id, ""),
		IterationCount:  iterationCount,
		MeasuredValues:  measuredValues,
		Unit:            unit,
		Throughput:      throughputs,
		Typical:         confidenceIntervalFromEstimate(meas.Estimates.Typical(), formatter),
		Mean:            confidenceIntervalFromEstimate(meas.Estimates.Mean, formatter),
		Median:          confidenceIntervalFromEstimate(meas.Estimates.Median, formatter),
		MedianAbsDev:    confidenceIntervalFromEstimate(meas.Estimates.MedianAbsDev, formatter),
	}
	if meas.Estimates.Slope != nil {
		ci := confidenceIntervalFromEstimate(*meas.Estimates.Slope, formatter)
		var r2 float64
		if meas.RSquared != nil {
			r2 = *meas.RSquared
		}
		msg.Slope = &slopeEstimate{confidenceInterval: ci, RSquared: r2}
	}
	if meas.Comparison != nil {
		msg.Change = buildChangeDetails(meas.Comparison)
	}

	j.send(msg)
}

func buildChangeDetails(comp *analysis.ComparisonData) *jsonChangeDetails {
	differentMean := comp.PValue < comp.SignificanceThreshold
	change := "NoChange"
	if differentMean {
		switch analysis.CompareToThreshold(comp.RelativeEstimates.Mean, comp.NoiseThreshold) {
		case analysis.Improved:
			change = "Improved"
		case analysis.Regressed:
			change = "Regressed"
		default:
			change = "NoChange"
		}
	}
	return &jsonChangeDetails{
		Mean:   confidenceIntervalFromPercent(comp.RelativeEstimates.Mean),
		Median: confidenceIntervalFromPercent(comp.RelativeEstimates.Median),
		Change: change,
	}
}

func (j *JSONReport) Summarize(ctx Context, groupID string, group *model.BenchmarkGroup, _ valueformatter.Formatter) {
	benchmarks := make([]string, 0, len(group.Benchmarks))
	for _, b := range group.Benchmarks {
		benchmarks = append(benchmarks, b.ID.Title)
	}
	groupDirID := model.NewBenchmarkId(groupID, nil, nil, nil)
	j.send(jsonGroupComplete{
		Reason:          "group-complete",
		GroupName:       groupID,
		Benchmarks:      benchmarks,
		ReportDirectory: ctx.ReportPath(groupDirID, ""),
	})
}
