// Package compile implements the compile driver: discovering bench targets
// with `go list -json -find` and building each with `go build` or
// `go test -c`, streaming diagnostics the way the controller's logger
// expects. This is an adaptation, not a transliteration, of the upstream
// `cargo --message-format json-render-diagnostics` driver -- Go has no
// direct equivalent, so the two-phase discover/build shape is kept and the
// message schema is reinterpreted around `go list`/`go build` (see
// SPEC_FULL.md 4.5).
package compile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kvit-s/critbench/internal/critbench"
	"github.com/kvit-s/critbench/internal/logging"
)

// Kind classifies a discovered package the way upstream classifies
// cargo targets: "bin" for an executable package main, "test" for a
// package built via `go test -c`, "lib" for a library package whose tests
// contain benchmarks.
type Kind string

const (
	KindBin  Kind = "bin"
	KindTest Kind = "test"
	KindLib  Kind = "lib"
)

// Target is one discovered, and eventually built, bench target.
type Target struct {
	Name       string
	ImportPath string
	Dir        string
	Kind       Kind
	Executable string
}

// goListPackage mirrors the subset of `go list -json` fields the discovery
// phase needs.
type goListPackage struct {
	ImportPath  string
	Name        string
	Dir         string
	GoFiles     []string
	TestGoFiles []string
}

// Discover runs `go list -json -find` over patterns (defaulting to ./...)
// and classifies each result as a bench target.
func Discover(dir string, patterns []string) ([]Target, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	args := append([]string{"list", "-json", "-find"}, patterns...)
	cmd := exec.Command("go", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, &critbench.Error{Kind: critbench.KindCompileFailed, Msg: "go list failed", Err: err}
	}

	var targets []Target
	dec := json.NewDecoder(strings.NewReader(string(out)))
	for dec.More() {
		var pkg goListPackage
		if err := dec.Decode(&pkg); err != nil {
			return nil, &critbench.Error{Kind: critbench.KindCompileFailed, Msg: "decoding go list output", Err: err}
		}

		hasBenchmark := containsBenchmarkFunc(pkg.Dir, pkg.TestGoFiles)
		switch {
		case pkg.Name == "main":
			targets = append(targets, Target{Name: filepath.Base(pkg.ImportPath), ImportPath: pkg.ImportPath, Dir: pkg.Dir, Kind: KindBin})
		case hasBenchmark:
			targets = append(targets, Target{Name: filepath.Base(pkg.ImportPath), ImportPath: pkg.ImportPath, Dir: pkg.Dir, Kind: KindTest})
		default:
			// Accepted as-is per the open question resolved in
			// SPEC_FULL.md 9: a library package with no package-main
			// entry point and no direct benchmark still becomes a
			// target if any _test.go file in its directory exposes one.
			if hasInternalBenchmark(pkg.Dir) {
				targets = append(targets, Target{Name: filepath.Base(pkg.ImportPath), ImportPath: pkg.ImportPath, Dir: pkg.Dir, Kind: KindLib})
			}
		}
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets, nil
}

// containsBenchmarkFunc scans the given test files of a package (go list's
// TestGoFiles, the in-package _test.go files) for a `func Benchmark`
// declaration.
func containsBenchmarkFunc(dir string, testFiles []string) bool {
	for _, f := range testFiles {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "func Benchmark") {
			return true
		}
	}
	return false
}

// hasInternalBenchmark re-scans the package directory directly for any
// _test.go file containing a benchmark, which also covers external
// (package x_test) test files that go list's TestGoFiles does not report.
func hasInternalBenchmark(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err == nil && strings.Contains(string(data), "func Benchmark") {
			return true
		}
	}
	return false
}

// Build compiles every target into outDir, streaming each child's stderr to
// logger line-by-line. debug enables unoptimised compilation
// (-gcflags=all=-l -N), standing in for upstream's debug benches.
func Build(targets []Target, outDir string, debug bool, logger *logging.Logger) ([]Target, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, &critbench.Error{Kind: critbench.KindCompileFailed, Msg: "creating build output dir", Err: err}
	}

	built := make([]Target, 0, len(targets))
	for _, t := range targets {
		exePath := filepath.Join(outDir, t.Name)

		var args []string
		switch t.Kind {
		case KindBin:
			args = []string{"build", "-o", exePath}
		case KindTest, KindLib:
			args = []string{"test", "-c", "-o", exePath}
		}
		if debug {
			args = append(args, "-gcflags=all=-l -N")
		}
		args = append(args, t.ImportPath)

		cmd := exec.Command("go", args...)
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, &critbench.Error{Kind: critbench.KindCompileFailed, Msg: fmt.Sprintf("building %s", t.Name), Err: err}
		}

		if err := cmd.Start(); err != nil {
			return nil, &critbench.Error{Kind: critbench.KindCompileFailed, Msg: fmt.Sprintf("starting build for %s", t.Name), Err: err}
		}

		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.CompileDiagnostic(t.Name, scanner.Text())
		}

		if err := cmd.Wait(); err != nil {
			exitCode := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
			return nil, &CompileFailed{Target: t.Name, ExitCode: exitCode, Err: err}
		}

		t.Executable = exePath
		built = append(built, t)
	}

	sort.Slice(built, func(i, j int) bool { return built[i].Name < built[j].Name })
	return built, nil
}

// CompileFailed is returned when a single target's build exits non-zero;
// any single failure is fatal to the whole compile phase.
type CompileFailed struct {
	Target   string
	ExitCode int
	Err      error
}

func (e *CompileFailed) Error() string {
	return fmt.Sprintf("build failed for target %q (exit %d): %v", e.Target, e.ExitCode, e.Err)
}

func (e *CompileFailed) Unwrap() error { return e.Err }
