// Package config loads Criterion.toml and resolves the output-home
// directory, mirroring the teacher's open-then-decode-then-fill-defaults
// shape translated from YAML to TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kvit-s/critbench/internal/critbench"
)

// TomlConfig is the decoded shape of Criterion.toml.
type TomlConfig struct {
	CriterionHome *string `toml:"criterion_home"`
}

// RootConfig is the fully resolved configuration for one run.
type RootConfig struct {
	// CriterionHome is the output root: data/, reports/ live under here.
	CriterionHome string

	// Debug enables verbose logging (CRITERION_DEBUG / CRITBENCH_DEBUG).
	Debug bool

	// Timeline names the history sub-tree; defaults to "main".
	Timeline string
}

// Load resolves a RootConfig for a run rooted at manifestDir. Resolution
// order for CriterionHome: CRITERION_HOME env var, Criterion.toml's
// criterion_home, $CRITBENCH_TARGET_DIR/criterion, ./target/criterion.
// A missing Criterion.toml is not an error; a malformed one is ConfigParse;
// an unreadable-but-present one is ConfigIo.
func Load(manifestDir string) (*RootConfig, error) {
	cfg := &RootConfig{Timeline: "main"}

	if v := os.Getenv("CRITERION_DEBUG"); v != "" {
		cfg.Debug = true
	}
	if v := os.Getenv("CRITBENCH_DEBUG"); v != "" {
		cfg.Debug = true
	}

	var tomlCfg TomlConfig
	tomlPath := filepath.Join(manifestDir, "Criterion.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, &tomlCfg); err != nil {
			return nil, &critbench.Error{Kind: critbench.KindConfigParse, Msg: "parsing Criterion.toml", Err: err}
		}
	} else if !os.IsNotExist(err) {
		return nil, &critbench.Error{Kind: critbench.KindConfigIo, Msg: "reading Criterion.toml", Err: err}
	}

	home, err := resolveHome(manifestDir, tomlCfg)
	if err != nil {
		return nil, err
	}
	absHome, err := filepath.Abs(home)
	if err != nil {
		return nil, &critbench.Error{Kind: critbench.KindConfigIo, Msg: "resolving criterion home", Err: err}
	}
	cfg.CriterionHome = absHome

	return cfg, nil
}

func resolveHome(manifestDir string, tomlCfg TomlConfig) (string, error) {
	if v := os.Getenv("CRITERION_HOME"); v != "" {
		return v, nil
	}
	if tomlCfg.CriterionHome != nil && *tomlCfg.CriterionHome != "" {
		return *tomlCfg.CriterionHome, nil
	}
	if targetDir := os.Getenv("CRITBENCH_TARGET_DIR"); targetDir != "" {
		return filepath.Join(targetDir, "criterion"), nil
	}
	return filepath.Join(manifestDir, "target", "criterion"), nil
}

// String renders cfg for debug logging.
func (c *RootConfig) String() string {
	return fmt.Sprintf("RootConfig{CriterionHome: %q, Debug: %v, Timeline: %q}", c.CriterionHome, c.Debug, c.Timeline)
}
