package target

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/report"
	"github.com/kvit-s/critbench/internal/stats"
)

// fakeChildConns dials a loopback listener to produce a connected pair,
// mirroring protocol's own connection_test.go helper.
func fakeChildConns(t *testing.T) (child, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	acceptCh := make(chan result, 1)
	go func() {
		c, err := ln.Accept()
		acceptCh <- result{c, err}
	}()

	child, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	res := <-acceptCh
	if res.err != nil {
		t.Fatalf("accept: %v", res.err)
	}
	return child, res.conn
}

func writeHandshake(t *testing.T, conn net.Conn) {
	t.Helper()
	buf := make([]byte, len(protocol.MagicNumber)+3+2+2)
	off := copy(buf, protocol.MagicNumber)
	off += copy(buf[off:], []byte{0, 3, 5})
	binary.BigEndian.PutUint16(buf[off:], protocol.ProtocolVersion)
	off += 2
	binary.BigEndian.PutUint16(buf[off:], protocol.FormatCBOR)
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
}

func sendIncoming(t *testing.T, conn net.Conn, msg protocol.IncomingMessage) {
	t.Helper()
	payload, err := cbor.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := conn.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
}

func recvOutgoing(t *testing.T, conn net.Conn) protocol.OutgoingMessage {
	t.Helper()
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	length := binary.BigEndian.Uint32(header)
	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	var msg protocol.OutgoingMessage
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

type recordingReport struct {
	report.BaseReport
	events []string
}

func (r *recordingReport) BenchmarkStart(*model.BenchmarkId, report.Context) {
	r.events = append(r.events, "benchmark_start")
}
func (r *recordingReport) Warmup(*model.BenchmarkId, report.Context, float64) {
	r.events = append(r.events, "warmup")
}
func (r *recordingReport) MeasurementStart(*model.BenchmarkId, report.Context, uint64, float64, uint64) {
	r.events = append(r.events, "measurement_start")
}
func (r *recordingReport) GroupSeparator() {
	r.events = append(r.events, "group_separator")
}

func TestDispatchRunsOneBenchmarkLifecycle(t *testing.T) {
	child, server := fakeChildConns(t)
	defer child.Close()

	writeHandshake(t, child)
	conn, err := protocol.Accept(server)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer conn.Close()

	home := t.TempDir()
	m := model.NewModel(home, "main")
	rec := &recordingReport{}

	driver := &Driver{
		Name:     "mybench",
		Model:    m,
		Reports:  report.Reports{rec},
		ReportCtx: report.Context{OutputDirectory: home},
		Analysis: analysis.Config{
			ConfidenceLevel:   0.95,
			NoiseThreshold:    0.01,
			Nresamples:        50,
			SignificanceLevel: 0.05,
		},
	}

	done := make(chan error, 1)
	go func() { done <- driver.dispatch(conn, stats.NewRand(1, 2)) }()

	sendIncoming(t, child, protocol.IncomingMessage{Kind: protocol.InBeginningBenchmarkGroup, Group: "g"})
	sendIncoming(t, child, protocol.IncomingMessage{Kind: protocol.InBeginningBenchmark, ID: &protocol.RawBenchmarkId{GroupID: "g"}})

	reply := recvOutgoing(t, child)
	if reply.Kind != protocol.OutRunBenchmark {
		t.Fatalf("expected RunBenchmark, got %s", reply.Kind)
	}

	sendIncoming(t, child, protocol.IncomingMessage{Kind: protocol.InWarmup, WarmupNanos: 1000})
	sendIncoming(t, child, protocol.IncomingMessage{Kind: protocol.InMeasurementStart, SampleCount: 10, EstimateNs: 50, IterCount: 100})
	sendIncoming(t, child, protocol.IncomingMessage{
		Kind:           protocol.InMeasurementComplete,
		Iters:          []float64{10, 10, 10, 10, 10},
		Times:          []float64{100, 110, 95, 105, 102},
		SamplingMethod: protocol.SamplingFlat,
	})

	cont := recvOutgoing(t, child)
	if cont.Kind != protocol.OutContinue {
		t.Fatalf("expected Continue, got %s", cont.Kind)
	}

	sendIncoming(t, child, protocol.IncomingMessage{Kind: protocol.InFinishedBenchmarkGroup, Group: "g"})
	child.Close()

	if err := <-done; err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}

	wantEvents := []string{"benchmark_start", "warmup", "measurement_start", "group_separator"}
	if len(rec.events) != len(wantEvents) {
		t.Fatalf("expected events %v, got %v", wantEvents, rec.events)
	}
	for i, e := range wantEvents {
		if rec.events[i] != e {
			t.Errorf("event %d: expected %q, got %q", i, e, rec.events[i])
		}
	}

	group, ok := m.Groups["g"]
	if !ok || len(group.Benchmarks) != 1 {
		t.Fatalf("expected one registered benchmark in group g, got %+v", m.Groups)
	}
}

func TestBuildChangeSummaryNilWithoutComparison(t *testing.T) {
	data := &analysis.MeasurementData{}
	if buildChangeSummary(data) != nil {
		t.Error("expected nil change summary with no comparison")
	}
}
