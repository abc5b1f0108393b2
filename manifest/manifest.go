// Package manifest handles bfjit.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
)

// FileName is the name of the configuration file searched for.
const FileName = "bfjit.toml"

// Environment variables that override the file.
const (
	EnvBackend  = "BFJIT_BACKEND"
	EnvFallback = "BFJIT_FALLBACK"
	EnvOptimize = "BFJIT_OPTIMIZE"
)

// Manifest represents a bfjit.toml configuration.
type Manifest struct {
	Run  Run  `toml:"run"`
	Dump Dump `toml:"dump"`

	// Dir is the directory containing the bfjit.toml file (set at load
	// time). Empty for the built-in defaults.
	Dir string `toml:"-"`
}

// Run configures execution.
type Run struct {
	Backend  string `toml:"backend"`  // interp, jit or auto
	Fallback bool   `toml:"fallback"` // let auto fall back to the interpreter
	Optimize bool   `toml:"optimize"`
}

// Dump configures diagnostic output.
type Dump struct {
	Tape string `toml:"tape"` // path for the final tape snapshot
}

// Default returns the configuration used when no file is found.
func Default() *Manifest {
	return &Manifest{
		Run: Run{Backend: "auto", Optimize: true},
	}
}

// Load parses the bfjit.toml file in the given directory. Keys absent from
// the file keep their defaults; unknown keys are an error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Relative dump paths are relative to the file.
	if m.Dump.Tape != "" && !filepath.IsAbs(m.Dump.Tape) {
		m.Dump.Tape = filepath.Join(m.Dir, m.Dump.Tape)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a bfjit.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ApplyEnv overrides fields from BFJIT_* environment variables. Unset or
// empty variables leave the field alone. Booleans accept the spellings
// env.True and env.False recognize ("1", "yes", "no", "disabled" and so
// on); anything else is an error rather than a silent false.
func (m *Manifest) ApplyEnv() error {
	m.Run.Backend = env.Str(EnvBackend, m.Run.Backend)
	if err := envBool(EnvFallback, &m.Run.Fallback); err != nil {
		return err
	}
	return envBool(EnvOptimize, &m.Run.Optimize)
}

func envBool(name string, dst *bool) error {
	if !env.Has(name) {
		return nil
	}
	v := strings.TrimSpace(env.Str(name))
	switch {
	case env.AsBool(v):
		*dst = true
	case env.False(v):
		*dst = false
	default:
		return fmt.Errorf("%s=%q: not a boolean", name, v)
	}
	return nil
}

// Resolve finds the configuration for a program at path: the nearest
// bfjit.toml above it, or the defaults, with environment overrides
// applied.
func Resolve(path string) (*Manifest, error) {
	m, err := FindAndLoad(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = Default()
	}
	if err := m.ApplyEnv(); err != nil {
		return nil, err
	}
	return m, nil
}
