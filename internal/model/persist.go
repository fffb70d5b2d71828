package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// MeasuredValuesRecord is the on-disk form of one raw sample set, stored
// alongside its SavedStatistics in a measurement_<timestamp>.cbor file.
type MeasuredValuesRecord struct {
	Iters []float64 `cbor:"iters"`
	Times []float64 `cbor:"times"`
}

// measurementFile bundles a measurement with its derived statistics, the
// unit written to one measurement_<timestamp>.cbor file.
type measurementFile struct {
	Measured   MeasuredValuesRecord `cbor:"measured_values"`
	Statistics SavedStatistics      `cbor:"statistics"`
}

// idDir returns the on-disk directory for id under the model's timeline:
// <home>/data/<timeline>/<directory_name>/
func (m *Model) idDir(id *BenchmarkId) string {
	return filepath.Join(m.Home, "data", m.Timeline, filepath.FromSlash(id.DirectoryName))
}

// SaveBenchmarkID writes (or overwrites) the benchmark.cbor identity record
// for id. The record is immutable across runs in practice but is
// idempotent to write, since the identity itself does not change.
func (m *Model) SaveBenchmarkID(id *BenchmarkId) error {
	dir := m.idDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating benchmark directory: %w", err)
	}

	var functionID, valueStr string
	if id.FunctionID != nil {
		functionID = *id.FunctionID
	}
	if id.ValueStr != nil {
		valueStr = *id.ValueStr
	}

	record := struct {
		GroupID    string  `cbor:"group_id"`
		FunctionID *string `cbor:"function_id,omitempty"`
		ValueStr   *string `cbor:"value_str,omitempty"`
		FullID     string  `cbor:"full_id"`
		Title      string  `cbor:"title"`
	}{
		GroupID:    id.GroupID,
		FunctionID: nonEmptyPtr(functionID, id.FunctionID != nil),
		ValueStr:   nonEmptyPtr(valueStr, id.ValueStr != nil),
		FullID:     id.FullID,
		Title:      id.Title,
	}

	data, err := cbor.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding benchmark id: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "benchmark.cbor"), data, 0o644)
}

func nonEmptyPtr(s string, present bool) *string {
	if !present {
		return nil
	}
	return &s
}

// SaveMeasurement writes a new measurement_<timestamp>.cbor file under id's
// directory, named by now's Unix time in nanoseconds. Files are immutable once
// written; no suffix is added, so two saves with the same nanosecond
// timestamp write the same file.
func (m *Model) SaveMeasurement(id *BenchmarkId, measured MeasuredValuesRecord, stats SavedStatistics, now time.Time) error {
	dir := m.idDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating benchmark directory: %w", err)
	}

	data, err := cbor.Marshal(measurementFile{Measured: measured, Statistics: stats})
	if err != nil {
		return fmt.Errorf("encoding measurement: %w", err)
	}

	name := fmt.Sprintf("measurement_%d.cbor", now.UnixNano())
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// LoadHistory lists the measurement files under id's directory, ordered by
// timestamp ascending. The most recent entry (if any) is the base for
// comparison against the current run.
func (m *Model) LoadHistory(id *BenchmarkId) ([]string, error) {
	dir := m.idDir(id)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "measurement_") && strings.HasSuffix(e.Name(), ".cbor") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return measurementTimestamp(names[i]) < measurementTimestamp(names[j])
	})
	return names, nil
}

// LoadMeasurement decodes one measurement_<timestamp>.cbor file named in
// LoadHistory's output.
func (m *Model) LoadMeasurement(id *BenchmarkId, fileName string) (MeasuredValuesRecord, SavedStatistics, error) {
	data, err := os.ReadFile(filepath.Join(m.idDir(id), fileName))
	if err != nil {
		return MeasuredValuesRecord{}, SavedStatistics{}, fmt.Errorf("reading measurement: %w", err)
	}
	var mf measurementFile
	if err := cbor.Unmarshal(data, &mf); err != nil {
		return MeasuredValuesRecord{}, SavedStatistics{}, fmt.Errorf("decoding measurement: %w", err)
	}
	return mf.Measured, mf.Statistics, nil
}

func measurementTimestamp(fileName string) int64 {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(fileName, "measurement_"), ".cbor")
	ts, _ := strconv.ParseInt(trimmed, 10, 64)
	return ts
}
