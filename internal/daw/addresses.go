// Package daw describes the OSC control surface of the DAW: the addresses it
// listens on, the actions it runs, and the feedback it sends back.
package daw

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	AddressAction = "/action"

	AddressProjectName    = "/project/name"
	AddressProjectNameGet = "/project/name/get"
	AddressProjectPath    = "/project/path"
	AddressProjectPathGet = "/project/path/get"

	AddressTrackCount    = "/track/count"
	AddressTrackCountGet = "/track/count/get"
)

// Track fields addressed as /track/{n}/{field}.
const (
	FieldName   = "name"
	FieldVolume = "volume"
	FieldPan    = "pan"
	FieldMute   = "mute"
	FieldSolo   = "solo"
)

// Action IDs understood by /action.
const (
	ActionNewProject     int32 = 40023
	ActionInsertTrack    int32 = 40001
	ActionSelectTrack1   int32 = 40939
	ActionInsertMIDIItem int32 = 40214
)

// MaxSelectableTrack is the highest index with a dedicated select action.
const MaxSelectableTrack = 9

// TrackAddress returns /track/{index}/{field}.
func TrackAddress(index int, field string) string {
	return "/track/" + strconv.Itoa(index) + "/" + field
}

// ParseTrackAddress splits /track/{index}/{field} feedback addresses.
func ParseTrackAddress(addr string) (index int, field string, err error) {
	parts := strings.Split(strings.TrimPrefix(addr, "/"), "/")
	if len(parts) != 3 || parts[0] != "track" {
		return 0, "", fmt.Errorf("not a track address: %q", addr)
	}
	index, err = strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return 0, "", fmt.Errorf("bad track index in %q", addr)
	}
	return index, parts[2], nil
}
