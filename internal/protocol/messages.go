// Package protocol implements the length-prefixed CBOR wire protocol
// between the controller and a benchmark child process.
package protocol

// ThroughputKind tags which unit a Throughput value is expressed in.
type ThroughputKind string

const (
	ThroughputBytes        ThroughputKind = "bytes"
	ThroughputBytesDecimal ThroughputKind = "bytes_decimal"
	ThroughputElements     ThroughputKind = "elements"
)

// Throughput is a tagged union of per-iteration throughput units.
type Throughput struct {
	Kind  ThroughputKind `cbor:"kind"`
	Count uint64         `cbor:"count"`
}

// JSONUnit returns the JSON-output unit label for this throughput kind: the
// wire format and machine-readable JSON distinguish only "bytes" and
// "elements" -- BytesDecimal is a formatting-time detail handled by the
// child's ValueFormatter, not a distinct JSON unit.
func (t Throughput) JSONUnit() string {
	if t.Kind == ThroughputElements {
		return "elements"
	}
	return "bytes"
}

// SamplingMethod describes how the child gathered its samples: Linear means
// (iters, times) pairs vary and support a regression fit; Flat means a
// fixed iteration count was used for every sample.
type SamplingMethod string

const (
	SamplingLinear SamplingMethod = "linear"
	SamplingFlat   SamplingMethod = "flat"
)

// IsLinear reports whether regression analysis applies to this sampling
// method.
func (m SamplingMethod) IsLinear() bool { return m == SamplingLinear }

// AxisScale selects linear or logarithmic axis scaling for plots.
type AxisScale string

const (
	AxisLinear AxisScale = "linear"
	AxisLog    AxisScale = "logarithmic"
)

// PlotConfiguration carries plotting hints from the child; the plotting
// backend is a stub in this implementation, so these fields are decoded but
// neither used nor persisted.
type PlotConfiguration struct {
	Summary          bool      `cbor:"summary"`
	XAxisScale       AxisScale `cbor:"x_axis_scale"`
}

// Duration mirrors a wall-clock duration as transmitted on the wire:
// seconds plus a nanosecond remainder.
type Duration struct {
	Secs  uint64 `cbor:"secs"`
	Nanos uint32 `cbor:"nanos"`
}

// Nanoseconds returns the duration as a float64 count of nanoseconds.
func (d Duration) Nanoseconds() float64 {
	return float64(d.Secs)*1e9 + float64(d.Nanos)
}

// BenchmarkConfig carries the statistical parameters the child negotiated
// for one benchmark run.
type BenchmarkConfig struct {
	ConfidenceLevel    float64  `cbor:"confidence_level"`
	MeasurementTime    Duration `cbor:"measurement_time"`
	NoiseThreshold     float64  `cbor:"noise_threshold"`
	Nresamples         uint64   `cbor:"nresamples"`
	SampleSize         uint64   `cbor:"sample_size"`
	SignificanceLevel  float64  `cbor:"significance_level"`
	WarmUpTime         Duration `cbor:"warm_up_time"`
}

// RawBenchmarkId is the wire representation of a benchmark identity, before
// derived fields (full_id, title, directory_name) are computed.
type RawBenchmarkId struct {
	GroupID    string      `cbor:"group_id"`
	FunctionID *string     `cbor:"function_id"`
	ValueStr   *string     `cbor:"value_str"`
	Throughput *Throughput `cbor:"throughput"`
}

// IncomingKind discriminates the tagged union of messages the child sends.
type IncomingKind string

const (
	InBeginningBenchmarkGroup IncomingKind = "BeginningBenchmarkGroup"
	InFinishedBenchmarkGroup  IncomingKind = "FinishedBenchmarkGroup"
	InBeginningBenchmark      IncomingKind = "BeginningBenchmark"
	InSkippingBenchmark       IncomingKind = "SkippingBenchmark"
	InWarmup                  IncomingKind = "Warmup"
	InMeasurementStart        IncomingKind = "MeasurementStart"
	InMeasurementComplete     IncomingKind = "MeasurementComplete"
	InFormattedValue          IncomingKind = "FormattedValue"
	InScaledValues            IncomingKind = "ScaledValues"
)

// IncomingMessage is the tagged union of messages received from the child.
// Exactly the fields relevant to Kind are populated; this mirrors the
// source's enum-of-structs shape as a single Go struct with a discriminator.
type IncomingMessage struct {
	Kind IncomingKind `cbor:"kind"`

	Group string `cbor:"group,omitempty"`

	ID *RawBenchmarkId `cbor:"id,omitempty"`

	WarmupNanos float64 `cbor:"warmup_ns,omitempty"`

	SampleCount uint64  `cbor:"sample_count,omitempty"`
	EstimateNs  float64 `cbor:"estimate_ns,omitempty"`
	IterCount   uint64  `cbor:"iter_count,omitempty"`

	Iters           []float64           `cbor:"iters,omitempty"`
	Times           []float64           `cbor:"times,omitempty"`
	PlotConfig      *PlotConfiguration  `cbor:"plot_config,omitempty"`
	SamplingMethod  SamplingMethod      `cbor:"sampling_method,omitempty"`
	BenchmarkConfig *BenchmarkConfig    `cbor:"benchmark_config,omitempty"`

	FormattedValue string `cbor:"formatted_value,omitempty"`

	ScaledValues []float64 `cbor:"scaled_values,omitempty"`
	Unit         string    `cbor:"unit,omitempty"`
}

// OutgoingKind discriminates the tagged union of messages the parent sends.
type OutgoingKind string

const (
	OutRunBenchmark       OutgoingKind = "RunBenchmark"
	OutSkipBenchmark      OutgoingKind = "SkipBenchmark"
	OutContinue           OutgoingKind = "Continue"
	OutFormatValue        OutgoingKind = "FormatValue"
	OutFormatThroughput   OutgoingKind = "FormatThroughput"
	OutScaleValues        OutgoingKind = "ScaleValues"
	OutScaleThroughputs   OutgoingKind = "ScaleThroughputs"
	OutScaleForMachines   OutgoingKind = "ScaleForMachines"
)

// OutgoingMessage is the tagged union of messages sent to the child.
type OutgoingMessage struct {
	Kind OutgoingKind `cbor:"kind"`

	Value         float64     `cbor:"value,omitempty"`
	Throughput    *Throughput `cbor:"throughput,omitempty"`
	TypicalValue  float64     `cbor:"typical_value,omitempty"`
	Values        []float64   `cbor:"values,omitempty"`
}
