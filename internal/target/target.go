// Package target implements the bench target driver: binding a loopback
// listener, spawning the compiled benchmark child, driving the
// accept/child-exit poll loop, and then dispatching the protocol messages
// the child sends for the lifetime of one target. Grounded on
// original_source/src/bench_target.rs's BenchTarget::execute for the
// bind/spawn/poll shape; the indexed original_source stops at "Got
// connection!" without implementing the message dispatch loop (see
// DESIGN.md), so the dispatch loop itself is built from
// connection.rs's IncomingMessage/OutgoingMessage enums plus the
// Report/Model contracts already defined in this module.
package target

import (
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/kvit-s/critbench/internal/analysis"
	"github.com/kvit-s/critbench/internal/critbench"
	"github.com/kvit-s/critbench/internal/estimate"
	"github.com/kvit-s/critbench/internal/logging"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/report"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

// acceptPollInterval is how often the drive loop's select wakes when neither
// a connection nor the child's exit has arrived; together with the blocking
// Accept goroutine it stands in for the reference tool's
// non-blocking-listener-plus-yield_now spin, without a busy loop.
const acceptPollInterval = 50 * time.Millisecond

// Filter decides, for one canonicalised BenchmarkId, whether the target
// should actually run it (true) or reply SkipBenchmark (false). It
// implements the -bench NAME regex filter from the CLI surface.
type Filter func(id *model.BenchmarkId) bool

// Driver runs one compiled benchmark target to completion.
type Driver struct {
	Name           string
	Executable     string
	CriterionHome  string
	AdditionalArgs []string

	Analysis analysis.Config
	Reports  report.Reports
	ReportCtx report.Context
	Model    *model.Model
	Logger   *logging.Logger
	Filter   Filter

	// DoFailFast records the run's fail-fast setting. The driver does not
	// read it: every target-level error (IoError, TargetFailed, ...) is
	// returned to the caller, which decides fail-fast handling (see
	// SPEC_FULL.md 7).
	DoFailFast bool

	// SkipKeys, when non-nil, receives key events for the supplemental
	// Esc-to-skip feature. Left nil disables the feature (e.g. in
	// tests, or when stdin isn't a terminal).
	SkipKeys <-chan keyboard.KeyEvent
}

// Error wraps a target-level fault with the target name, mirroring
// TargetError from the reference implementation.
type Error struct {
	Target string
	Kind   critbench.Kind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("benchmark target %q: %s: %v", e.Target, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Run executes the target: bind, spawn, drive the accept loop, then
// dispatch protocol messages until the child closes its connection and
// exits.
func (d *Driver) Run(rng *rand.Rand) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return &Error{Target: d.Name, Kind: critbench.KindTargetIo, Err: err}
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port

	cmd := exec.Command(d.Executable, append([]string{"--bench"}, d.AdditionalArgs...)...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CRITERION_HOME=%s", d.CriterionHome),
		fmt.Sprintf("CARGO_CRITERION_PORT=%d", port),
	)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return &Error{Target: d.Name, Kind: critbench.KindTargetIo, Err: err}
	}
	if d.Logger != nil {
		d.Logger.TargetSpawned(d.Name, cmd.Process.Pid, port)
	}

	exitCh := make(chan error, 1)
	go func() { exitCh <- cmd.Wait() }()

	conn, err := d.acceptOrWaitExit(listener, exitCh)
	if err != nil {
		return err
	}
	if conn == nil {
		// Child exited before ever connecting; acceptOrWaitExit already
		// reaped it and reported success or TargetFailed.
		return nil
	}
	defer conn.Close()

	protoErr := d.dispatch(conn, rng)

	// Either way, the child must still be reaped.
	waitErr := <-exitCh
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	if d.Logger != nil {
		d.Logger.TargetExited(d.Name, exitCode, waitErr)
	}

	if protoErr != nil {
		return protoErr
	}
	if waitErr != nil {
		return &Error{Target: d.Name, Kind: critbench.KindTargetFailed, Err: waitErr}
	}
	return nil
}

// acceptOrWaitExit runs a blocking Accept in a goroutine and selects on its
// result, on exitCh, and on an acceptPollInterval timer, mirroring the reference tool's
// non-blocking-listener-plus-try_wait loop without busy-spinning the CPU.
// Returns (nil, nil) if the child exits cleanly before ever connecting.
func (d *Driver) acceptOrWaitExit(listener net.Listener, exitCh chan error) (*protocol.Connection, error) {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	acceptCh := make(chan acceptResult, 1)
	go func() {
		conn, err := listener.Accept()
		acceptCh <- acceptResult{conn, err}
	}()

	for {
		select {
		case res := <-acceptCh:
			if res.err != nil {
				return nil, &Error{Target: d.Name, Kind: critbench.KindTargetIo, Err: res.err}
			}
			conn, err := protocol.Accept(res.conn)
			if err != nil {
				res.conn.Close()
				return nil, &Error{Target: d.Name, Kind: critbench.KindHelloFailed, Err: err}
			}
			return conn, nil
		case waitErr := <-exitCh:
			exitCode := 0
			if waitErr != nil {
				if exitErr, ok := waitErr.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					exitCode = -1
				}
			}
			if d.Logger != nil {
				d.Logger.TargetExited(d.Name, exitCode, waitErr)
			}
			if waitErr != nil {
				return nil, &Error{Target: d.Name, Kind: critbench.KindTargetFailed, Err: waitErr}
			}
			return nil, nil
		case <-time.After(acceptPollInterval):
			// Neither ready; loop and check again.
		}
	}
}

// benchmarkSession tracks state scoped to one BeginningBenchmark..
// MeasurementComplete span: just the canonical id, since a target never has
// two benchmarks in flight at once.
type benchmarkSession struct {
	id *model.BenchmarkId
}

// dispatch runs the protocol loop for one accepted connection until the
// child closes it (clean EOF) or a fatal protocol error occurs.
func (d *Driver) dispatch(conn *protocol.Connection, rng *rand.Rand) error {
	skipRequested := d.pollSkipRequested()

	var session *benchmarkSession

	for {
		msg, err := conn.Recv()
		if err != nil {
			return &Error{Target: d.Name, Kind: critbench.KindMessageIo, Err: err}
		}
		if msg == nil {
			return nil // clean EOF: child closed its end.
		}

		switch msg.Kind {
		case protocol.InBeginningBenchmarkGroup:
			d.Model.AddBenchmarkGroup(msg.Group)

		case protocol.InFinishedBenchmarkGroup:
			group, ok := d.Model.Groups[msg.Group]
			if ok {
				formatter := valueformatter.NewConnectionFormatter(conn)
				d.Reports.Summarize(d.ReportCtx, msg.Group, group, formatter)
			}
			d.Reports.GroupSeparator()

		case protocol.InBeginningBenchmark:
			id := model.NewBenchmarkId(msg.ID.GroupID, msg.ID.FunctionID, msg.ID.ValueStr, msg.ID.Throughput)
			if warning := d.Model.AddBenchmarkId(d.Name, id); warning != "" && d.Logger != nil {
				d.Logger.Error("duplicate benchmark registration", fmt.Errorf("%s", warning))
			}
			if d.Logger != nil {
				d.Logger.BenchmarkRegistered(id.FullID, id.DirectoryName)
			}
			if err := d.Model.SaveBenchmarkID(id); err != nil && d.Logger != nil {
				d.Logger.Error("saving benchmark id", err)
			}

			run := d.Filter == nil || d.Filter(id)
			if run && skipRequested() {
				run = false
			}
			session = &benchmarkSession{id: id}

			d.Reports.BenchmarkStart(id, d.ReportCtx)

			kind := protocol.OutRunBenchmark
			if !run {
				kind = protocol.OutSkipBenchmark
			}
			if err := conn.Send(protocol.OutgoingMessage{Kind: kind}); err != nil {
				return &Error{Target: d.Name, Kind: critbench.KindMessageIo, Err: err}
			}

		case protocol.InWarmup:
			if session != nil {
				d.Reports.Warmup(session.id, d.ReportCtx, msg.WarmupNanos)
			}

		case protocol.InMeasurementStart:
			if session != nil {
				d.Reports.Analysis(session.id, d.ReportCtx)
				d.Reports.MeasurementStart(session.id, d.ReportCtx, msg.SampleCount, msg.EstimateNs, msg.IterCount)
			}

		case protocol.InMeasurementComplete:
			if session == nil {
				return &Error{Target: d.Name, Kind: critbench.KindUnexpectedMessage, Err: fmt.Errorf("MeasurementComplete with no active benchmark")}
			}
			if err := d.handleMeasurementComplete(conn, session, msg, rng); err != nil {
				return err
			}
			session = nil

		case protocol.InSkippingBenchmark:
			// The child skipped a benchmark on its own; no reply is expected.

		default:
			return &Error{Target: d.Name, Kind: critbench.KindUnexpectedMessage, Err: fmt.Errorf("unexpected message kind %s outside a value-formatter round trip", msg.Kind)}
		}
	}
}

// handleMeasurementComplete runs the analysis orchestrator over the raw
// samples the child just reported, persists the result, notifies reports,
// and replies Continue.
func (d *Driver) handleMeasurementComplete(conn *protocol.Connection, session *benchmarkSession, msg *protocol.IncomingMessage, rng *rand.Rand) error {
	id := session.id
	formatter := valueformatter.NewConnectionFormatter(conn)
	defer formatter.Finish()

	newSample := analysis.NewMeasuredValues(msg.Iters, msg.Times)

	var oldSample *analysis.MeasuredValues
	var oldEstimates *estimate.Estimates
	var pastRuns []model.SavedStatistics
	history, err := d.Model.LoadHistory(id)
	if err != nil && d.Logger != nil {
		d.Logger.Error("loading history", err)
	}
	for _, fileName := range history {
		measured, saved, err := d.Model.LoadMeasurement(id, fileName)
		if err != nil {
			if d.Logger != nil {
				d.Logger.Error("loading previous measurement", err)
			}
			continue
		}
		pastRuns = append(pastRuns, saved)
		if fileName == history[len(history)-1] {
			prev := analysis.NewMeasuredValues(measured.Iters, measured.Times)
			oldSample = &prev
			oldEstimates = &saved.Estimates
		}
	}

	// The throughput a benchmark reports is fixed at BeginningBenchmark
	// time and carried on the registered id; it is not re-sent on
	// MeasurementComplete.
	throughput := id.Throughput

	data := analysis.Analyze(
		d.analysisConfig(msg.BenchmarkConfig),
		throughput,
		newSample,
		oldSample,
		oldEstimates,
		msg.SamplingMethod,
		rng,
	)

	if d.Logger != nil {
		d.Logger.AnalysisComplete(id.FullID, data.Estimates.Typical().PointEstimate)
	}

	d.Reports.MeasurementComplete(id, d.ReportCtx, &data, formatter)
	if len(pastRuns) > 0 {
		d.Reports.History(d.ReportCtx, id, pastRuns, formatter)
	}

	change := buildChangeSummary(&data)
	saved := model.SavedStatistics{
		DatetimeUTC: time.Now().UTC().Format(time.RFC3339),
		Estimates:   data.Estimates,
		Change:      change,
	}
	if throughput != nil {
		saved.Throughput = &model.ThroughputRecord{Kind: string(throughput.Kind), Count: throughput.Count}
	}

	measured := model.MeasuredValuesRecord{Iters: msg.Iters, Times: msg.Times}
	if err := d.Model.SaveMeasurement(id, measured, saved, time.Now()); err != nil && d.Logger != nil {
		d.Logger.Error("saving measurement", err)
	}

	return nil
}

// analysisConfig derives the statistical parameters for one measurement
// from the child's negotiated BenchmarkConfig, falling back to the
// driver's default when the child didn't send one. The child is the
// source of truth for confidence_level, nresamples, noise_threshold, and
// significance_level, since these are per-benchmark settings the child
// negotiates from its own attributes, not fixed for the whole run.
func (d *Driver) analysisConfig(cfg *protocol.BenchmarkConfig) analysis.Config {
	if cfg == nil {
		return d.Analysis
	}
	return analysis.Config{
		ConfidenceLevel:   cfg.ConfidenceLevel,
		NoiseThreshold:    cfg.NoiseThreshold,
		Nresamples:        int(cfg.Nresamples),
		SignificanceLevel: cfg.SignificanceLevel,
	}
}

// pollSkipRequested returns a closure reporting whether Esc has been
// pressed since the driver started, draining any buffered key events
// non-blockingly. A nil SkipKeys channel disables the feature.
func (d *Driver) pollSkipRequested() func() bool {
	requested := false
	return func() bool {
		if d.SkipKeys == nil {
			return requested
		}
		for {
			select {
			case ev := <-d.SkipKeys:
				if ev.Key == keyboard.KeyEsc {
					requested = true
				}
			default:
				return requested
			}
		}
	}
}

func buildChangeSummary(data *analysis.MeasurementData) *model.ChangeSummary {
	if data.Comparison == nil {
		return nil
	}
	comp := data.Comparison
	var direction model.ChangeDirection
	if comp.PValue < comp.SignificanceThreshold {
		switch analysis.CompareToThreshold(comp.RelativeEstimates.Mean, comp.NoiseThreshold) {
		case analysis.Improved:
			direction = model.ChangeImproved
		case analysis.Regressed:
			direction = model.ChangeRegressed
		default:
			direction = model.ChangeNotSignificant
		}
	} else {
		direction = model.ChangeNone
	}
	return &model.ChangeSummary{
		Mean:      comp.RelativeEstimates.Mean.PointEstimate,
		Median:    comp.RelativeEstimates.Median.PointEstimate,
		Direction: direction,
	}
}
