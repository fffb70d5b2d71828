// Package valueformatter implements the ValueFormatter contract: the
// parent does not itself know how to render units, so it delegates
// formatting and scaling decisions back to the benchmark child over the
// live Connection.
package valueformatter

import (
	"fmt"

	"github.com/kvit-s/critbench/internal/protocol"
)

// Formatter is the contract reports use to render
// values and throughputs in the child's own units.
type Formatter interface {
	FormatValue(value float64) string
	FormatThroughput(throughput *protocol.Throughput, value float64) string
	ScaleValues(typicalValue float64, values []float64) (unit string)
	ScaleThroughputs(typicalValue float64, throughput *protocol.Throughput, values []float64) (unit string)
	ScaleForMachines(values []float64) (unit string)
}

// ConnectionFormatter round-trips every Formatter call through the live
// Connection. It lends the Connection for the duration of one
// measurement-complete callback; Finish must be called (via defer) before
// the driver issues its next protocol read, mirroring the reference tool's
// drop-based teardown in a language without destructors.
type ConnectionFormatter struct {
	conn conn
}

// conn is the minimal surface ConnectionFormatter needs from
// *protocol.Connection, kept as an interface so tests can substitute a
// fake without standing up a real socket.
type conn interface {
	Send(msg any) error
	Recv() (*protocol.IncomingMessage, error)
}

// NewConnectionFormatter wraps c for the duration of one callback.
func NewConnectionFormatter(c conn) *ConnectionFormatter {
	return &ConnectionFormatter{conn: c}
}

// Finish sends Continue to unblock the child. Errors are ignored on
// purpose: by the time teardown runs the child may already have exited or
// closed its socket, and a dead child must not panic the controller (see
// SPEC_FULL.md DESIGN NOTES, "Open questions").
func (f *ConnectionFormatter) Finish() {
	_ = f.conn.Send(protocol.OutgoingMessage{Kind: protocol.OutContinue})
}

func (f *ConnectionFormatter) roundTrip(out protocol.OutgoingMessage) (*protocol.IncomingMessage, error) {
	if err := f.conn.Send(out); err != nil {
		return nil, err
	}
	in, err := f.conn.Recv()
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("connection closed while awaiting a reply to %s", out.Kind)
	}
	return in, nil
}

// FormatValue asks the child to render value in its own units.
func (f *ConnectionFormatter) FormatValue(value float64) string {
	in, err := f.roundTrip(protocol.OutgoingMessage{Kind: protocol.OutFormatValue, Value: value})
	if err != nil {
		panic(fmt.Sprintf("value formatter round trip failed: %v", err))
	}
	if in.Kind != protocol.InFormattedValue {
		panic(fmt.Sprintf("unexpected reply kind %s to FormatValue", in.Kind))
	}
	return in.FormattedValue
}

// FormatThroughput asks the child to render value as the given throughput.
func (f *ConnectionFormatter) FormatThroughput(throughput *protocol.Throughput, value float64) string {
	in, err := f.roundTrip(protocol.OutgoingMessage{Kind: protocol.OutFormatThroughput, Value: value, Throughput: throughput})
	if err != nil {
		panic(fmt.Sprintf("value formatter round trip failed: %v", err))
	}
	if in.Kind != protocol.InFormattedValue {
		panic(fmt.Sprintf("unexpected reply kind %s to FormatThroughput", in.Kind))
	}
	return in.FormattedValue
}

// ScaleValues rewrites values in place to the child's scaled values and
// returns the unit label the child chose.
func (f *ConnectionFormatter) ScaleValues(typicalValue float64, values []float64) string {
	in, err := f.roundTrip(protocol.OutgoingMessage{Kind: protocol.OutScaleValues, TypicalValue: typicalValue, Values: values})
	if err != nil {
		panic(fmt.Sprintf("value formatter round trip failed: %v", err))
	}
	if in.Kind != protocol.InScaledValues {
		panic(fmt.Sprintf("unexpected reply kind %s to ScaleValues", in.Kind))
	}
	copy(values, in.ScaledValues)
	return in.Unit
}

// ScaleThroughputs rewrites values in place to throughput-scaled values.
func (f *ConnectionFormatter) ScaleThroughputs(typicalValue float64, throughput *protocol.Throughput, values []float64) string {
	in, err := f.roundTrip(protocol.OutgoingMessage{Kind: protocol.OutScaleThroughputs, TypicalValue: typicalValue, Throughput: throughput, Values: values})
	if err != nil {
		panic(fmt.Sprintf("value formatter round trip failed: %v", err))
	}
	if in.Kind != protocol.InScaledValues {
		panic(fmt.Sprintf("unexpected reply kind %s to ScaleThroughputs", in.Kind))
	}
	copy(values, in.ScaledValues)
	return in.Unit
}

// ScaleForMachines rewrites values in place to machine-readable scaled
// values (used by the JSON report sink).
func (f *ConnectionFormatter) ScaleForMachines(values []float64) string {
	in, err := f.roundTrip(protocol.OutgoingMessage{Kind: protocol.OutScaleForMachines, Values: values})
	if err != nil {
		panic(fmt.Sprintf("value formatter round trip failed: %v", err))
	}
	if in.Kind != protocol.InScaledValues {
		panic(fmt.Sprintf("unexpected reply kind %s to ScaleForMachines", in.Kind))
	}
	copy(values, in.ScaledValues)
	return in.Unit
}
