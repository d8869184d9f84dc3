package toolclient

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/chabad360/dawctl/internal/report"
)

// Defaults of a Walkthrough.
const (
	DefaultProjectName = "MCP Protocol Test Project"
	DefaultMIDITracks  = 3
)

// DefaultTracks are the tracks a Walkthrough creates by default.
var DefaultTracks = []string{"Piano", "Strings", "Brass", "Percussion"}

// Walkthrough lists the tools of a server and calls the DAW tools with fixed
// arguments, printing every result. Any error ends the run.
type Walkthrough struct {
	Reporter *report.Reporter
	Logger   *zap.Logger
	// Client identifies dawctl to the server.
	Client *mcp.Implementation

	ProjectName string
	Tracks      []string
	// MIDITracks is how many of the first Tracks get a MIDI note.
	MIDITracks int
	// Pause is the delay after calls that change the project.
	Pause time.Duration
}

// Run connects over t and performs the walkthrough.
func (w *Walkthrough) Run(ctx context.Context, t mcp.Transport) error {
	w.setDefaults()
	rep, log := w.Reporter, w.Logger

	rep.Info("Starting MCP client connection...")
	session, err := mcp.NewClient(w.Client, nil).Connect(ctx, t, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Close()
	rep.OK("Connected to MCP server")
	log.Debug("session initialized", zap.String("session", session.ID()))
	rep.OK("Session initialized")

	tools, err := ListTools(ctx, session)
	if err != nil {
		return err
	}
	w.section("Available MCP Tools:")
	for i, tool := range tools {
		rep.Line("%d. %s", i+1, tool.Name)
		rep.Line("   Description: %s", tool.Description)
		if len(tool.Params) > 0 {
			rep.Line("   Parameters: %s", strings.Join(tool.Params, ", "))
		}
		rep.Line("")
	}

	w.section("[Test 1] Calling 'get_project_info' tool")
	if err := w.call(ctx, session, "Result: ", "get_project_info", nil); err != nil {
		return err
	}

	w.section("[Test 2] Calling 'create_project' tool")
	if err := w.call(ctx, session, "Result: ", "create_project", map[string]any{
		"name":     w.ProjectName,
		"template": nil,
	}); err != nil {
		return err
	}
	if err := w.pause(ctx, 2*w.Pause); err != nil {
		return err
	}

	w.section("[Test 3] Calling 'create_track' tool (multiple tracks)")
	for _, name := range w.Tracks {
		if err := w.call(ctx, session, "  Created: "+name+" - ", "create_track", map[string]any{"name": name}); err != nil {
			return err
		}
		if err := w.pause(ctx, w.Pause); err != nil {
			return err
		}
	}

	w.section("[Test 4] Calling 'list_tracks' tool")
	if err := w.call(ctx, session, "Result: ", "list_tracks", nil); err != nil {
		return err
	}

	w.section("[Test 5] Calling 'add_midi_note' tool")
	for i, name := range w.Tracks[:w.MIDITracks] {
		args := map[string]any{
			"track_index": i,
			"note":        strconv.Itoa(60 + 2*i), // C4, D4, E4, ...
			"start_time":  "0.0",
			"duration":    "1.0",
			"velocity":    "100",
		}
		if err := w.call(ctx, session, fmt.Sprintf("  Track %d (%s): ", i, name), "add_midi_note", args); err != nil {
			return err
		}
		if err := w.pause(ctx, w.Pause); err != nil {
			return err
		}
	}

	w.section("[Test 6] Calling 'get_project_info' again (final state)")
	if err := w.call(ctx, session, "Result: ", "get_project_info", nil); err != nil {
		return err
	}

	w.summary()
	return nil
}

func (w *Walkthrough) setDefaults() {
	if w.Reporter == nil {
		w.Reporter = report.New(io.Discard)
	}
	if w.Logger == nil {
		w.Logger = zap.NewNop()
	}
	if w.Client == nil {
		w.Client = &mcp.Implementation{Name: "dawctl", Version: "v0.1.0"}
	}
	if w.ProjectName == "" {
		w.ProjectName = DefaultProjectName
	}
	if len(w.Tracks) == 0 {
		w.Tracks = DefaultTracks
	}
	if w.MIDITracks <= 0 {
		w.MIDITracks = DefaultMIDITracks
	}
	if w.MIDITracks > len(w.Tracks) {
		w.MIDITracks = len(w.Tracks)
	}
}

func (w *Walkthrough) section(title string) {
	w.Reporter.Line("")
	w.Reporter.Line("%s", strings.Repeat("-", 70))
	w.Reporter.Line("%s", title)
	w.Reporter.Line("%s", strings.Repeat("-", 70))
}

// call runs one tool and prints its text after prefix.
func (w *Walkthrough) call(ctx context.Context, session *mcp.ClientSession, prefix, name string, args map[string]any) error {
	start := time.Now()
	text, err := CallText(ctx, session, name, args)
	w.Logger.Debug("tool called", zap.String("tool", name), zap.Duration("took", time.Since(start)), zap.Error(err))
	if err != nil {
		return err
	}
	w.Reporter.Line("%s%s", prefix, text)
	return nil
}

func (w *Walkthrough) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Walkthrough) summary() {
	rep := w.Reporter
	rep.Header("Test Summary")
	rep.Success("All MCP protocol tests completed!")
	rep.List("MCP Tools Tested via Protocol", []string{
		"1. get_project_info - Retrieved project information",
		"2. create_project - Created new project",
		"3. create_track - Created multiple tracks",
		"4. list_tracks - Listed all tracks",
		"5. add_midi_note - Added MIDI items to tracks",
	})
	rep.List("Verification", []string{
		"Check REAPER for:",
		fmt.Sprintf("- Project named '%s'", w.ProjectName),
		fmt.Sprintf("- %d tracks: %s", len(w.Tracks), strings.Join(w.Tracks, ", ")),
		fmt.Sprintf("- MIDI items on the first %d tracks", w.MIDITracks),
	})
}
