package daw

import (
	"sync"

	"github.com/chabad360/dawctl/osc"
)

// Track is the observed state of one track.
type Track struct {
	Name   string
	Volume float32
	Pan    float32
	Mute   bool
	Solo   bool
}

// Snapshot is a copy of the observed DAW state.
type Snapshot struct {
	ProjectName string
	ProjectPath string
	// TrackCount is -1 until the DAW reports it.
	TrackCount int
	Tracks     map[int]Track
}

// State tracks the DAW through its feedback messages. It is safe for concurrent use.
type State struct {
	mu   sync.RWMutex
	snap Snapshot

	dispatcher *osc.Dispatcher
}

// NewState returns an empty State.
func NewState() *State {
	s := &State{snap: Snapshot{TrackCount: -1, Tracks: make(map[int]Track)}}

	d := &osc.Dispatcher{}
	// The addresses are constants; registration cannot fail.
	_ = d.AddMethodFunc(AddressProjectName, s.onProjectName)
	_ = d.AddMethodFunc(AddressProjectPath, s.onProjectPath)
	_ = d.AddMethodFunc(AddressTrackCount, s.onTrackCount)
	_ = d.AddPatternMethodFunc("/track/*/{"+FieldName+","+FieldVolume+","+FieldPan+","+FieldMute+","+FieldSolo+"}", s.onTrack)
	s.dispatcher = d
	return s
}

// Apply updates the state from one feedback message.
func (s *State) Apply(msg *osc.Message) {
	s.dispatcher.Dispatch(msg, nil)
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	out.Tracks = make(map[int]Track, len(s.snap.Tracks))
	for i, t := range s.snap.Tracks {
		out.Tracks[i] = t
	}
	return out
}

// TrackCount returns the last reported track count, or -1.
func (s *State) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.TrackCount
}

func (s *State) onProjectName(msg *osc.Message) {
	if v, ok := stringArg(msg); ok {
		s.mu.Lock()
		s.snap.ProjectName = v
		s.mu.Unlock()
	}
}

func (s *State) onProjectPath(msg *osc.Message) {
	if v, ok := stringArg(msg); ok {
		s.mu.Lock()
		s.snap.ProjectPath = v
		s.mu.Unlock()
	}
}

func (s *State) onTrackCount(msg *osc.Message) {
	if v, ok := numberArg(msg); ok {
		s.mu.Lock()
		s.snap.TrackCount = int(v)
		s.mu.Unlock()
	}
}

func (s *State) onTrack(msg *osc.Message) {
	index, field, err := ParseTrackAddress(msg.Address)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.snap.Tracks[index]
	switch field {
	case FieldName:
		v, ok := stringArg(msg)
		if !ok {
			return
		}
		t.Name = v
	case FieldVolume:
		v, ok := numberArg(msg)
		if !ok {
			return
		}
		t.Volume = float32(v)
	case FieldPan:
		v, ok := numberArg(msg)
		if !ok {
			return
		}
		t.Pan = float32(v)
	case FieldMute:
		v, ok := numberArg(msg)
		if !ok {
			return
		}
		t.Mute = v != 0
	case FieldSolo:
		v, ok := numberArg(msg)
		if !ok {
			return
		}
		t.Solo = v != 0
	}
	s.snap.Tracks[index] = t
}

func stringArg(msg *osc.Message) (string, bool) {
	if len(msg.Arguments) == 0 {
		return "", false
	}
	v, ok := msg.Arguments[0].(string)
	return v, ok
}

// numberArg reads the first argument as a number. Switches may arrive as booleans.
func numberArg(msg *osc.Message) (float64, bool) {
	if len(msg.Arguments) == 0 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
