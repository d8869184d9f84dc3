package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chabad360/dawctl/internal/daw"
)

const small = `
name = "small"
title = "Small"

[[tests]]
title = "Make a track"
result = "Made it"
notes = ["Look at it"]

  [[tests.steps]]
  command = "insert_track"
  settle = "250ms"

  [[tests.steps]]
  command = "set_track_name"
  track = 0
  value = "Drums"

[[tests]]
title = "Ask"

  [[tests.steps]]
  command = "get_track_count"
  await = true
`

func TestLoad(t *testing.T) {
	sc, err := Load(strings.NewReader(small))
	require.NoError(t, err)

	assert.Equal(t, "small", sc.Name)
	require.Len(t, sc.Tests, 2)
	steps := sc.Tests[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, Duration(250*time.Millisecond), steps[0].Settle)
	assert.Equal(t, "Drums", steps[1].Value)
	assert.True(t, sc.Tests[1].Steps[0].Await)
	assert.Equal(t, 1, sc.Awaited())

	cmd, err := steps[1].Build()
	require.NoError(t, err)
	assert.Equal(t, "/track/0/name", cmd.Message.Address)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", `name = `, "load scenario"},
		{"no tests", `name = "x"`, "no tests"},
		{"unknown key", "name = \"x\"\ncolour = 1\n[[tests]]\ntitle = \"t\"", "unknown keys colour"},
		{"unknown command", "[[tests]]\ntitle = \"t\"\n[[tests.steps]]\ncommand = \"explode\"", "unknown command"},
		{"bad value", "[[tests]]\ntitle = \"t\"\n[[tests.steps]]\ncommand = \"set_track_volume\"\nvalue = \"loud\"", "invalid value"},
		{"bad track", "[[tests]]\ntitle = \"t\"\n[[tests.steps]]\ncommand = \"select_track\"\ntrack = 12", "invalid track"},
		{"await action", "[[tests]]\ntitle = \"t\"\n[[tests.steps]]\ncommand = \"insert_track\"\nawait = true", "no reply to await"},
		{"bad settle", "[[tests]]\ntitle = \"t\"\n[[tests.steps]]\ncommand = \"insert_track\"\nsettle = \"soon\"", "load scenario"},
		{"missing title", "[[tests]]\n[[tests.steps]]\ncommand = \"insert_track\"", "missing title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.toml")
	require.NoError(t, os.WriteFile(path, []byte(small), 0o600))

	sc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Small", sc.Title)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	assert.Equal(t, []string{"setup", "tools"}, BuiltinNames())

	setup, err := Builtin("setup")
	require.NoError(t, err)
	assert.Len(t, setup.Tests, 6)
	assert.Zero(t, setup.Awaited(), "setup only fires commands")

	var sent []string
	for _, test := range setup.Tests {
		for _, s := range test.Steps {
			cmd, err := s.Build()
			require.NoError(t, err)
			sent = append(sent, cmd.Message.String())
		}
	}
	assert.Equal(t, []string{
		"/action ,i 40023",
		"/action ,i 40001",
		`/track/0/name ,s "Test Track"`,
		"/action ,i 40001",
		`/track/1/name ,s "Drums"`,
		"/action ,i 40939",
		"/action ,i 40214",
	}, sent)

	tools, err := Builtin("tools")
	require.NoError(t, err)
	assert.Len(t, tools.Tests, 16)
	assert.Equal(t, 12, tools.Awaited())
	assert.NotEmpty(t, tools.Coverage)

	_, err = Builtin("nope")
	assert.ErrorContains(t, err, "setup, tools")
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1.5s ")))
	assert.Equal(t, Duration(1500*time.Millisecond), d)

	assert.Error(t, d.UnmarshalText([]byte("-1s")))

	b, err := Duration(time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1s", string(b))
}

func TestStep_Build(t *testing.T) {
	cmd, err := Step{Command: "set_track_mute", Track: 3, Value: true}.Build()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(1)}, cmd.Message.Arguments)

	_, err = Step{Command: "set_track_mute", Track: 3, Value: "yes"}.Build()
	assert.ErrorIs(t, err, daw.ErrInvalidValue)
}
