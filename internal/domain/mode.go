package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is a named lighting/audio preset applied to the model house.
// The set is closed: a Mode outside Modes() cannot be produced by ParseMode
// or by the input dispatcher.
type Mode int

const (
	ModeOff Mode = iota
	ModeFirstFloorLight
	ModeSecondFloorLight
	ModeAllLights
	ModeMusic
	ModeParty
)

var modeNames = [...]string{
	ModeOff:              "off",
	ModeFirstFloorLight:  "first_floor_light",
	ModeSecondFloorLight: "second_floor_light",
	ModeAllLights:        "all_lights",
	ModeMusic:            "music",
	ModeParty:            "party",
}

var modePresets = [...]Preset{
	ModeOff:              {},
	ModeFirstFloorLight:  {FirstFloor: true},
	ModeSecondFloorLight: {SecondFloor: true},
	ModeAllLights:        {FirstFloor: true, SecondFloor: true},
	ModeMusic:            {Music: true},
	ModeParty:            {FirstFloor: true, SecondFloor: true, Music: true},
}

// Preset is the device configuration a Mode maps to.
type Preset struct {
	FirstFloor  bool `json:"first_floor"`
	SecondFloor bool `json:"second_floor"`
	Music       bool `json:"music"`
}

func Modes() []Mode {
	return []Mode{ModeOff, ModeFirstFloorLight, ModeSecondFloorLight, ModeAllLights, ModeMusic, ModeParty}
}

func (m Mode) Valid() bool {
	return m >= ModeOff && m <= ModeParty
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Token is the key that selects this mode from the keyboard or remote.
func (m Mode) Token() string {
	return strconv.Itoa(int(m))
}

func (m Mode) Preset() Preset {
	if !m.Valid() {
		return Preset{}
	}
	return modePresets[m]
}

// ParseMode accepts either a mode name ("first_floor_light") or its token ("1").
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if key == m.String() || key == m.Token() {
			return m, nil
		}
	}
	return ModeOff, fmt.Errorf("unknown mode %q", s)
}

// VolumeRange bounds the audio level. Min and Max are inclusive.
type VolumeRange struct {
	Min int
	Max int
}

func (r VolumeRange) Clamp(level int) int {
	if level < r.Min {
		return r.Min
	}
	if level > r.Max {
		return r.Max
	}
	return level
}

func (r VolumeRange) Valid() bool {
	return r.Min <= r.Max
}
