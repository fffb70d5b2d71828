package model

import (
	"testing"
	"time"
)

func TestAddBenchmarkIdUniquifiesOnCollision(t *testing.T) {
	m := NewModel(t.TempDir(), "main")

	fn := "f"
	first := NewBenchmarkId("g", &fn, nil, nil)
	if warn := m.AddBenchmarkId("target-a", first); warn != "" {
		t.Fatalf("unexpected warning on first registration: %s", warn)
	}

	second := NewBenchmarkId("g", &fn, nil, nil)
	warn := m.AddBenchmarkId("target-a", second)
	if warn == "" {
		t.Fatal("expected a duplicate-registration warning even when re-registered by the same target")
	}
	if second.DirectoryName != "g/f_2" {
		t.Errorf("expected second directory name 'g/f_2', got %q", second.DirectoryName)
	}
	if second.Title != "g/f #2" {
		t.Errorf("expected second title 'g/f #2', got %q", second.Title)
	}
}

func TestAddBenchmarkIdWarnsOnDuplicateIdentity(t *testing.T) {
	m := NewModel(t.TempDir(), "main")

	fn := "f"
	val := "v"
	first := NewBenchmarkId("g", &fn, &val, nil)
	m.AddBenchmarkId("target-a", first)

	// Same identity tuple (group, function, value, throughput) registered
	// under a different target name is a duplicate, not a fresh uniquified
	// entry.
	second := NewBenchmarkId("g", &fn, &val, nil)
	warn := m.AddBenchmarkId("target-b", second)
	if warn == "" {
		t.Fatal("expected a duplicate-registration warning")
	}
}

func TestSaveAndLoadMeasurementRoundTrips(t *testing.T) {
	m := NewModel(t.TempDir(), "main")
	id := NewBenchmarkId("g", nil, nil, nil)

	if err := m.SaveBenchmarkID(id); err != nil {
		t.Fatalf("SaveBenchmarkID: %v", err)
	}

	measured := MeasuredValuesRecord{Iters: []float64{1, 2, 3}, Times: []float64{100, 200, 300}}
	stats := SavedStatistics{DatetimeUTC: time.Now().UTC().Format(time.RFC3339)}
	if err := m.SaveMeasurement(id, measured, stats, time.Now()); err != nil {
		t.Fatalf("SaveMeasurement: %v", err)
	}

	history, err := m.LoadHistory(id)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected exactly one measurement file, got %d", len(history))
	}

	loadedMeasured, loadedStats, err := m.LoadMeasurement(id, history[0])
	if err != nil {
		t.Fatalf("LoadMeasurement: %v", err)
	}
	if len(loadedMeasured.Iters) != 3 {
		t.Errorf("expected 3 iters, got %d", len(loadedMeasured.Iters))
	}
	if loadedStats.DatetimeUTC != stats.DatetimeUTC {
		t.Errorf("expected datetime to round-trip, got %q", loadedStats.DatetimeUTC)
	}
}
