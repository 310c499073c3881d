// Package project reads the stitch.toml manifest: the on-disk form of the
// instrumentation configuration. The manifest is optional; flags override
// whatever it sets.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"stitch/internal/match"
)

// Manifest mirrors stitch.toml.
//
//	[defects]
//	if_conditions = true
//	loop_conditions = true
//	assignments = false
//	guards = false
//	ignore_trivial = true
//	observation = false
//	classes = ["if-conditions"]   # name form, unknown names select nothing
//
//	[instrument]
//	hook = "stitch_trace"
//	in_place = false
type Manifest struct {
	Defects    DefectsSection    `toml:"defects"`
	Instrument InstrumentSection `toml:"instrument"`
}

type DefectsSection struct {
	IfConditions   bool     `toml:"if_conditions"`
	LoopConditions bool     `toml:"loop_conditions"`
	Assignments    bool     `toml:"assignments"`
	Guards         bool     `toml:"guards"`
	IgnoreTrivial  bool     `toml:"ignore_trivial"`
	Observation    bool     `toml:"observation"`
	Classes        []string `toml:"classes"`
}

type InstrumentSection struct {
	Hook    string `toml:"hook"`
	InPlace bool   `toml:"in_place"`
}

// Load parses the manifest at path. A missing file is not an error: it
// yields a zero manifest and found=false.
func Load(path string) (Manifest, bool, error) {
	var m Manifest
	_, err := toml.DecodeFile(path, &m)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return m, true, nil
}

// Find walks up from startDir to locate stitch.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "stitch.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// MatchConfig translates the manifest into a selector configuration.
// Unknown class names in `classes` enable nothing.
func (m Manifest) MatchConfig() match.Config {
	cfg := match.Config{
		IfConditions:   m.Defects.IfConditions,
		LoopConditions: m.Defects.LoopConditions,
		Assignments:    m.Defects.Assignments,
		Guards:         m.Defects.Guards,
		IgnoreTrivial:  m.Defects.IgnoreTrivial,
		Observation:    m.Defects.Observation,
	}
	for _, class := range m.Defects.Classes {
		cfg.Enable(class)
	}
	return cfg
}

// Starter is the manifest `stitch init` writes.
const Starter = `# stitch instrumentation manifest

[defects]
if_conditions = true
loop_conditions = true
assignments = true
guards = false
ignore_trivial = true
observation = false

[instrument]
hook = "stitch_trace"
in_place = false
`
