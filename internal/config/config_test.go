package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoTomlPresent(t *testing.T) {
	dir := t.TempDir()
	os.Unsetenv("CRITERION_HOME")
	os.Unsetenv("CRITBENCH_TARGET_DIR")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "target", "criterion")
	if cfg.CriterionHome != want {
		t.Errorf("expected default home %q, got %q", want, cfg.CriterionHome)
	}
	if cfg.Timeline != "main" {
		t.Errorf("expected default timeline 'main', got %q", cfg.Timeline)
	}
}

func TestLoadReadsCriterionHomeFromToml(t *testing.T) {
	dir := t.TempDir()
	os.Unsetenv("CRITERION_HOME")
	os.Unsetenv("CRITBENCH_TARGET_DIR")

	tomlPath := filepath.Join(dir, "Criterion.toml")
	if err := os.WriteFile(tomlPath, []byte(`criterion_home = "custom-output"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, _ := filepath.Abs("custom-output")
	if cfg.CriterionHome != want {
		t.Errorf("expected home %q, got %q", want, cfg.CriterionHome)
	}
}

func TestLoadEnvOverridesToml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CRITERION_HOME", filepath.Join(dir, "from-env"))
	os.Unsetenv("CRITBENCH_TARGET_DIR")

	tomlPath := filepath.Join(dir, "Criterion.toml")
	if err := os.WriteFile(tomlPath, []byte(`criterion_home = "from-toml"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "from-env")
	if cfg.CriterionHome != want {
		t.Errorf("expected env override %q, got %q", want, cfg.CriterionHome)
	}
}

func TestLoadMalformedTomlIsConfigParseError(t *testing.T) {
	dir := t.TempDir()
	os.Unsetenv("CRITERION_HOME")

	tomlPath := filepath.Join(dir, "Criterion.toml")
	if err := os.WriteFile(tomlPath, []byte("not = valid = toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected an error for malformed toml")
	}
}
