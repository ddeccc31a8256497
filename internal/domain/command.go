package domain

import (
	"time"

	"github.com/google/uuid"
)

type Target string

const (
	TargetLight Target = "light"
	TargetAudio Target = "audio"
)

// Command is one outbound instruction for the devices inside the model.
// Light commands carry Mode and Preset; audio commands carry Level.
type Command struct {
	ID       uuid.UUID `json:"id"`
	Target   Target    `json:"target"`
	Mode     Mode      `json:"-"`
	ModeName string    `json:"mode,omitempty"`
	Preset   Preset    `json:"preset"`
	Level    int       `json:"level"`
	IssuedAt time.Time `json:"issued_at"`
}

func NewModeCommand(m Mode) Command {
	return Command{
		ID:       uuid.New(),
		Target:   TargetLight,
		Mode:     m,
		ModeName: m.String(),
		Preset:   m.Preset(),
		IssuedAt: time.Now(),
	}
}

func NewVolumeCommand(level int) Command {
	return Command{
		ID:       uuid.New(),
		Target:   TargetAudio,
		Level:    level,
		IssuedAt: time.Now(),
	}
}
