package daw

import (
	"fmt"
	"sort"
)

// Params are the loosely typed arguments of a command named in a scenario file.
type Params struct {
	Track int
	Value any
}

type builder func(Params) (Command, error)

var builders = map[string]builder{
	"new_project":      func(Params) (Command, error) { return NewProject(), nil },
	"insert_track":     func(Params) (Command, error) { return InsertTrack(), nil },
	"insert_midi_item": func(Params) (Command, error) { return InsertMIDIItem(), nil },
	"get_project_name": func(Params) (Command, error) { return ProjectNameQuery(), nil },
	"get_project_path": func(Params) (Command, error) { return ProjectPathQuery(), nil },
	"get_track_count":  func(Params) (Command, error) { return TrackCountQuery(), nil },
	"get_track_name":   func(p Params) (Command, error) { return TrackNameQuery(p.Track) },
	"select_track":     func(p Params) (Command, error) { return SelectTrack(p.Track) },
	"set_track_name": func(p Params) (Command, error) {
		s, ok := p.Value.(string)
		if !ok {
			return Command{}, valueTypeError("set_track_name", "string", p.Value)
		}
		return SetTrackName(p.Track, s)
	},
	"set_track_volume": func(p Params) (Command, error) {
		v, err := toFloat32("set_track_volume", p.Value)
		if err != nil {
			return Command{}, err
		}
		return SetTrackVolume(p.Track, v)
	},
	"set_track_pan": func(p Params) (Command, error) {
		v, err := toFloat32("set_track_pan", p.Value)
		if err != nil {
			return Command{}, err
		}
		return SetTrackPan(p.Track, v)
	},
	"set_track_mute": func(p Params) (Command, error) {
		on, err := toBool("set_track_mute", p.Value)
		if err != nil {
			return Command{}, err
		}
		return SetTrackMute(p.Track, on)
	},
	"set_track_solo": func(p Params) (Command, error) {
		on, err := toBool("set_track_solo", p.Value)
		if err != nil {
			return Command{}, err
		}
		return SetTrackSolo(p.Track, on)
	},
}

// Build returns the command registered under name.
func Build(name string, p Params) (Command, error) {
	b, ok := builders[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return b(p)
}

// Known reports whether name is a registered command.
func Known(name string) bool {
	_, ok := builders[name]
	return ok
}

// CommandNames lists the registered command names in sorted order.
func CommandNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toFloat32(cmd string, v any) (float32, error) {
	switch t := v.(type) {
	case float64:
		return float32(t), nil
	case float32:
		return t, nil
	case int64:
		return float32(t), nil
	case int:
		return float32(t), nil
	case int32:
		return float32(t), nil
	default:
		return 0, valueTypeError(cmd, "number", v)
	}
}

func toBool(cmd string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case int32:
		return t != 0, nil
	default:
		return false, valueTypeError(cmd, "bool", v)
	}
}

func valueTypeError(cmd, want string, got any) error {
	return fmt.Errorf("%w: %s wants a %s value, got %T", ErrInvalidValue, cmd, want, got)
}
