package audio

import (
	"sync"

	"lego-house/internal/domain"
)

const (
	ambienceHz = 220.0
	maxGain    = 0.5
)

// gainFor maps a volume level to a linear output gain in [0, maxGain].
func gainFor(level int, r domain.VolumeRange) float32 {
	span := r.Max - r.Min
	if span <= 0 {
		return 0
	}
	return maxGain * float32(r.Clamp(level)-r.Min) / float32(span)
}

// mixer is the speaker's output state. Light commands switch the ambience
// on and off with the preset's music flag; audio commands set the gain.
type mixer struct {
	volume domain.VolumeRange

	mu      sync.Mutex
	gain    float32
	playing bool
}

func (m *mixer) apply(cmd domain.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch cmd.Target {
	case domain.TargetLight:
		m.playing = cmd.Preset.Music
	case domain.TargetAudio:
		m.gain = gainFor(cmd.Level, m.volume)
	}
}

// output is the gain to play with right now, zero when muted.
func (m *mixer) output() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return 0
	}
	return m.gain
}
