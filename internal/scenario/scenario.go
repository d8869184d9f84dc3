// Package scenario loads and runs scripted DAW command sequences.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chabad360/dawctl/internal/daw"
)

//go:embed scenarios/*.toml
var builtins embed.FS

// Scenario is a titled list of tests run against the DAW.
type Scenario struct {
	Name  string   `toml:"name"`
	Title string   `toml:"title"`
	Intro []string `toml:"intro"`
	Tests []Test   `toml:"tests"`

	// Success is printed when every test passed.
	Success   string   `toml:"success"`
	Checklist []string `toml:"checklist"`
	// Coverage names the tools the scenario exercises.
	Coverage        []string `toml:"coverage"`
	Troubleshooting []string `toml:"troubleshooting"`
}

// Test is one reported unit of a scenario.
type Test struct {
	Title string `toml:"title"`
	Steps []Step `toml:"steps"`
	// Result is the message printed when the test passes.
	Result string `toml:"result"`
	// Notes tell the operator what to look for in the DAW.
	Notes []string `toml:"notes"`
}

// Step sends one command.
type Step struct {
	Command string `toml:"command"`
	Track   int    `toml:"track"`
	Value   any    `toml:"value"`
	// Settle is how long to wait after sending, for actions the DAW does not acknowledge.
	Settle Duration `toml:"settle"`
	// Await makes the step wait for the reply of a query.
	Await bool `toml:"await"`
}

// Build returns the DAW command of the step.
func (s Step) Build() (daw.Command, error) {
	return daw.Build(s.Command, daw.Params{Track: s.Track, Value: s.Value})
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load decodes and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load scenario: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile loads the scenario stored at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	defer f.Close()

	sc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Builtin returns the embedded scenario called name.
func Builtin(name string) (*Scenario, error) {
	f, err := builtins.Open(path.Join("scenarios", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("no builtin scenario %q (have %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	defer f.Close()
	return Load(f)
}

// BuiltinNames lists the embedded scenarios.
func BuiltinNames() []string {
	entries, _ := builtins.ReadDir("scenarios")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks that sc has tests and that every step builds.
func (sc *Scenario) Validate() error {
	var errs []error
	if len(sc.Tests) == 0 {
		errs = append(errs, errors.New("no tests"))
	}
	for i, t := range sc.Tests {
		if strings.TrimSpace(t.Title) == "" {
			errs = append(errs, fmt.Errorf("test %d: missing title", i+1))
		}
		for j, s := range t.Steps {
			cmd, err := s.Build()
			if err != nil {
				errs = append(errs, fmt.Errorf("test %d step %d: %w", i+1, j+1, err))
				continue
			}
			if s.Await && !cmd.Awaitable() {
				errs = append(errs, fmt.Errorf("test %d step %d: %s has no reply to await", i+1, j+1, s.Command))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario %q: %w", sc.Name, errors.Join(errs...))
	}
	return nil
}

// Awaited counts the steps that wait for a reply.
func (sc *Scenario) Awaited() int {
	n := 0
	for _, t := range sc.Tests {
		for _, s := range t.Steps {
			if s.Await {
				n++
			}
		}
	}
	return n
}
