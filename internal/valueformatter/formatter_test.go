package valueformatter

import (
	"testing"

	"github.com/kvit-s/critbench/internal/protocol"
)

// fakeConn is a stub of the conn interface that plays back scripted
// replies and records every outgoing message.
type fakeConn struct {
	replies []protocol.IncomingMessage
	sent    []protocol.OutgoingMessage
	idx     int
}

func (f *fakeConn) Send(msg any) error {
	f.sent = append(f.sent, msg.(protocol.OutgoingMessage))
	return nil
}

func (f *fakeConn) Recv() (*protocol.IncomingMessage, error) {
	if f.idx >= len(f.replies) {
		return nil, nil
	}
	reply := f.replies[f.idx]
	f.idx++
	return &reply, nil
}

func TestFormatValueRoundTrips(t *testing.T) {
	fc := &fakeConn{replies: []protocol.IncomingMessage{
		{Kind: protocol.InFormattedValue, FormattedValue: "1.00 ms"},
	}}
	f := NewConnectionFormatter(fc)
	got := f.FormatValue(1_000_000)
	if got != "1.00 ms" {
		t.Errorf("expected '1.00 ms', got %q", got)
	}
	if len(fc.sent) != 1 || fc.sent[0].Kind != protocol.OutFormatValue {
		t.Errorf("expected one FormatValue request, got %+v", fc.sent)
	}
}

func TestScaleValuesOverwritesSlice(t *testing.T) {
	fc := &fakeConn{replies: []protocol.IncomingMessage{
		{Kind: protocol.InScaledValues, ScaledValues: []float64{1.0, 2.0}, Unit: "ms"},
	}}
	f := NewConnectionFormatter(fc)
	values := []float64{1_000_000, 2_000_000}
	unit := f.ScaleValues(1_000_000, values)
	if unit != "ms" {
		t.Errorf("expected unit 'ms', got %q", unit)
	}
	if values[0] != 1.0 || values[1] != 2.0 {
		t.Errorf("expected slice to be overwritten, got %v", values)
	}
}

func TestFormatThroughputPanicsOnUnexpectedReply(t *testing.T) {
	fc := &fakeConn{replies: []protocol.IncomingMessage{
		{Kind: protocol.InScaledValues},
	}}
	f := NewConnectionFormatter(fc)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic on unexpected reply kind")
		}
	}()
	f.FormatThroughput(&protocol.Throughput{Kind: protocol.ThroughputBytes, Count: 1024}, 1.0)
}

func TestFinishSendsContinueAndIgnoresError(t *testing.T) {
	fc := &fakeConn{}
	f := NewConnectionFormatter(fc)
	f.Finish()
	if len(fc.sent) != 1 || fc.sent[0].Kind != protocol.OutContinue {
		t.Errorf("expected Finish to send Continue, got %+v", fc.sent)
	}
}
