package daw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chabad360/dawctl/osc"
)

var (
	ErrInvalidTrack   = errors.New("invalid track index")
	ErrInvalidValue   = errors.New("invalid value")
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is one OSC message for the DAW.
type Command struct {
	// Name identifies the command in logs and reports.
	Name    string
	Message *osc.Message
	// Reply is the feedback address that answers the command. Empty means
	// the DAW does not answer and the command is fire-and-forget.
	Reply string
}

// String implements the fmt.Stringer interface.
func (c Command) String() string {
	return c.Name + " " + c.Message.String()
}

// Awaitable reports whether the DAW answers this command.
func (c Command) Awaitable() bool {
	return c.Reply != ""
}

func action(name string, id int32) Command {
	return Command{Name: name, Message: osc.NewMessage(AddressAction, id)}
}

// NewProject opens a new, empty project.
func NewProject() Command {
	return action("new_project", ActionNewProject)
}

// InsertTrack inserts a track after the last touched one.
func InsertTrack() Command {
	return action("insert_track", ActionInsertTrack)
}

// InsertMIDIItem inserts an empty MIDI item on the selected track at the edit cursor.
func InsertMIDIItem() Command {
	return action("insert_midi_item", ActionInsertMIDIItem)
}

// SelectTrack selects the track at index, which must be at most MaxSelectableTrack.
func SelectTrack(index int) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	if index > MaxSelectableTrack {
		return Command{}, fmt.Errorf("%w: %d has no select action (max %d)", ErrInvalidTrack, index, MaxSelectableTrack)
	}
	return action("select_track", ActionSelectTrack1+int32(index)), nil
}

// SetTrackName renames the track at index.
func SetTrackName(index int, name string) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Command{}, fmt.Errorf("%w: track name is empty", ErrInvalidValue)
	}
	return trackCommand("set_track_name", index, FieldName, name), nil
}

// SetTrackVolume sets the fader of the track at index. v is the normalized
// fader position in [0, 1]; 0.5 is about -6dB.
func SetTrackVolume(index int, v float32) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	if v < 0 || v > 1 {
		return Command{}, fmt.Errorf("%w: volume %v outside [0, 1]", ErrInvalidValue, v)
	}
	return trackCommand("set_track_volume", index, FieldVolume, v), nil
}

// SetTrackPan pans the track at index. p is in [-1, 1], negative is left.
func SetTrackPan(index int, p float32) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	if p < -1 || p > 1 {
		return Command{}, fmt.Errorf("%w: pan %v outside [-1, 1]", ErrInvalidValue, p)
	}
	return trackCommand("set_track_pan", index, FieldPan, p), nil
}

// SetTrackMute mutes or unmutes the track at index.
func SetTrackMute(index int, on bool) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	return trackCommand("set_track_mute", index, FieldMute, flag(on)), nil
}

// SetTrackSolo solos or unsolos the track at index.
func SetTrackSolo(index int, on bool) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	return trackCommand("set_track_solo", index, FieldSolo, flag(on)), nil
}

// ProjectNameQuery asks for the project name.
func ProjectNameQuery() Command {
	return Command{Name: "get_project_name", Message: osc.NewMessage(AddressProjectNameGet), Reply: AddressProjectName}
}

// ProjectPathQuery asks for the project path.
func ProjectPathQuery() Command {
	return Command{Name: "get_project_path", Message: osc.NewMessage(AddressProjectPathGet), Reply: AddressProjectPath}
}

// TrackCountQuery asks for the number of tracks.
func TrackCountQuery() Command {
	return Command{Name: "get_track_count", Message: osc.NewMessage(AddressTrackCountGet), Reply: AddressTrackCount}
}

// TrackNameQuery asks for the name of the track at index.
func TrackNameQuery(index int) (Command, error) {
	if err := checkTrack(index); err != nil {
		return Command{}, err
	}
	return Command{
		Name:    "get_track_name",
		Message: osc.NewMessage(TrackAddress(index, FieldName) + "/get"),
		Reply:   TrackAddress(index, FieldName),
	}, nil
}

func trackCommand(name string, index int, field string, arg interface{}) Command {
	return Command{Name: name, Message: osc.NewMessage(TrackAddress(index, field), arg)}
}

func checkTrack(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrack, index)
	}
	return nil
}

// flag encodes a switch the way the control surface expects it.
func flag(on bool) int32 {
	if on {
		return 1
	}
	return 0
}
