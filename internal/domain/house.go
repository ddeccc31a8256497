package domain

import "time"

// HouseRequest is a pending persistence action on the model house placement.
type HouseRequest int

const (
	HouseRequestNone HouseRequest = iota
	HouseRequestSave
	HouseRequestLoad
	HouseRequestMove
)

func (r HouseRequest) String() string {
	switch r {
	case HouseRequestSave:
		return "save"
	case HouseRequestLoad:
		return "load"
	case HouseRequestMove:
		return "move"
	default:
		return "none"
	}
}

// HouseLocation is where the house overlay sits in screen space.
type HouseLocation struct {
	X       float64
	Y       float64
	SavedAt time.Time
}
