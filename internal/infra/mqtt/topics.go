package mqtt

import "lego-house/internal/domain"

// Topics builds the installation's topic names under a common prefix.
//
//	legohouse/device/light    mode presets (JSON domain.Command)
//	legohouse/device/audio    volume levels (JSON domain.Command)
//	legohouse/tracking/points tracked point groups from the tracker
//	legohouse/status          retained online/offline status
type Topics struct {
	Prefix string
}

func (t Topics) Device(target domain.Target) string {
	return t.Prefix + "/device/" + string(target)
}

func (t Topics) TrackingPoints() string {
	return t.Prefix + "/tracking/points"
}

func (t Topics) Status() string {
	return t.Prefix + "/status"
}
