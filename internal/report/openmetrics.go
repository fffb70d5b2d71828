package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// OpenMetricsReport prints criterion_benchmark_result_<unit>{...} lines to
// stdout, supplemented from original_source's
// message_formats/openmetrics.rs which the spec's distillation dropped.
type OpenMetricsReport struct {
	BaseReport

	Out io.Writer
}

// NewOpenMetricsReport constructs an OpenMetricsReport writing to os.Stdout.
func NewOpenMetricsReport() *OpenMetricsReport {
	return &OpenMetricsReport{Out: os.Stdout}
}

func (o *OpenMetricsReport) printConfidenceInterval(id *model.BenchmarkId, ci confidenceInterval, name string) {
	var labels []string
	if id.FunctionID != nil {
		labels = append(labels, fmt.Sprintf(`function="%s"`, *id.FunctionID))
	}
	if id.ValueStr != nil {
		labels = append(labels, fmt.Sprintf(`input_size="%s"`, *id.ValueStr))
	}
	labels = append(labels, fmt.Sprintf(`aggregation="%s"`, name))
	labelStr := strings.Join(labels, ",")

	fmt.Fprintf(o.Out, "criterion_benchmark_result_%s{id=\"%s\",confidence=\"estimate\",%s} %v\n", ci.Unit, id.GroupID, labelStr, ci.Estimate)
	fmt.Fprintf(o.Out, "criterion_benchmark_result_%s{id=\"%s\",confidence=\"upper_bound\",%s} %v\n", ci.Unit, id.GroupID, labelStr, ci.UpperBound)
	fmt.Fprintf(o.Out, "criterion_benchmark_result_%s{id=\"%s\",confidence=\"lower_bound\",%s} %v\n", ci.Unit, id.GroupID, labelStr, ci.LowerBound)
}

func (o *OpenMetricsReport) MeasurementComplete(id *model.BenchmarkId, ctx Context, meas *analysis.MeasurementData, formatter valueformatter.Formatter) {
	o.printConfidenceInterval(id, confidenceIntervalFromEstimate(meas.Estimates.Typical(), formatter), "typical")
	o.printConfidenceInterval(id, confidenceIntervalFromEstimate(meas.Estimates.Mean, formatter), "mean")
	o.printConfidenceInterval(id, confidenceIntervalFromEstimate(meas.Estimates.Median, formatter), "median")
	o.printConfidenceInterval(id, confidenceIntervalFromEstimate(meas.Estimates.MedianAbsDev, formatter), "median_abs_dev")
	if meas.Estimates.Slope != nil {
		o.printConfidenceInterval(id, confidenceIntervalFromEstimate(*meas.Estimates.Slope, formatter), "slope")
	}

	var inputSize, function string
	if id.ValueStr != nil {
		inputSize = fmt.Sprintf(`input_size="%s",`, *id.ValueStr)
	}
	if id.FunctionID != nil {
		function = fmt.Sprintf(`function="%s",`, *id.FunctionID)
	}
	fmt.Fprintf(o.Out, "criterion_benchmark_info{id=\"%s\",%s%sreport_directory=\"%s\"} 1\n",
		id.GroupID, inputSize, function, ctx.ReportPath(id, ""))
}
