// Package logging provides structured logging for one run, grounded on the
// teacher's internal/agent.Logger: an empty path disables logging entirely,
// otherwise a JSON (or console, in development mode) encoder writes to an
// append-mode file sink at InfoLevel (DebugLevel in development mode).
package logging

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.Logger with domain-specific call sites for the
// controller, compile driver, and bench target driver.
type Logger struct {
	zap   *zap.Logger
	runID string
}

// NewLogger creates a Logger that writes to logPath. If logPath is empty,
// logging is disabled (a no-op core). If development is true, uses a
// human-readable console encoder; otherwise JSON.
//
// Every Logger is stamped with a fresh run correlation ID so that log lines
// from concurrent critbench invocations sharing a log file (e.g. CI
// appending to one log) can be told apart.
func NewLogger(logPath string, development bool) (*Logger, error) {
	runID := uuid.NewString()

	if logPath == "" {
		return &Logger{zap: zap.NewNop(), runID: runID}, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	level := zapcore.InfoLevel
	if development {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(logFile), level)
	logger := zap.New(core).With(zap.String("run_id", runID))

	return &Logger{zap: logger, runID: runID}, nil
}

// RunID returns the correlation ID stamped on every line this Logger emits.
func (l *Logger) RunID() string { return l.runID }

// Close syncs the underlying zap core.
func (l *Logger) Close() error {
	return l.zap.Sync()
}

// TargetSpawned logs that a benchmark child process was started.
func (l *Logger) TargetSpawned(target string, pid int, port int) {
	l.zap.Info("target spawned",
		zap.String("target", target),
		zap.Int("pid", pid),
		zap.Int("port", port),
	)
}

// TargetExited logs that a benchmark child process exited.
func (l *Logger) TargetExited(target string, exitCode int, err error) {
	if err != nil {
		l.zap.Error("target exited",
			zap.String("target", target),
			zap.Int("exit_code", exitCode),
			zap.Error(err),
		)
		return
	}
	l.zap.Info("target exited",
		zap.String("target", target),
		zap.Int("exit_code", exitCode),
	)
}

// ProtocolError logs a fatal protocol-level fault for one target.
func (l *Logger) ProtocolError(target string, err error) {
	l.zap.Error("protocol error", zap.String("target", target), zap.Error(err))
}

// CompileDiagnostic logs one line of a build tool's streamed stderr.
func (l *Logger) CompileDiagnostic(target, line string) {
	l.zap.Debug("compiler diagnostic", zap.String("target", target), zap.String("line", line))
}

// AnalysisComplete logs the headline outcome of one benchmark's analysis.
func (l *Logger) AnalysisComplete(id string, typicalNanos float64) {
	l.zap.Info("analysis complete", zap.String("id", id), zap.Float64("typical_ns", typicalNanos))
}

// BenchmarkRegistered logs a newly registered benchmark id, including any
// uniquification that occurred.
func (l *Logger) BenchmarkRegistered(id, directoryName string) {
	l.zap.Debug("benchmark registered", zap.String("id", id), zap.String("directory", directoryName))
}

// Info logs an info message with structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Debug logs a debug message with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, err error) {
	l.zap.Error(msg, zap.Error(err))
}
