package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWithEmptyPathIsNoop(t *testing.T) {
	l, err := NewLogger("", false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Info("should not panic")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}

func TestNewLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := NewLogger(path, false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.TargetSpawned("bench_a", 1234, 9000)
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "target spawned") {
		t.Errorf("expected log line to mention target spawned, got: %s", data)
	}
	if !strings.Contains(string(data), "run_id") {
		t.Errorf("expected log line to carry a run_id field, got: %s", data)
	}
}

func TestEachLoggerGetsADistinctRunID(t *testing.T) {
	a, _ := NewLogger("", false)
	b, _ := NewLogger("", false)
	if a.RunID() == b.RunID() {
		t.Error("expected distinct run ids across Logger instances")
	}
}
