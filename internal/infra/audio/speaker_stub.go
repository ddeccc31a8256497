//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"lego-house/internal/domain"
)

// Speaker stub when portaudio is not available
type Speaker struct {
	logger *slog.Logger
}

func NewSpeaker(sampleRate int, volume domain.VolumeRange, logger *slog.Logger) *Speaker {
	return &Speaker{logger: logger}
}

func (s *Speaker) Start(_ context.Context) error {
	return fmt.Errorf("speaker not available: rebuild with -tags portaudio")
}

func (s *Speaker) Stop() error {
	return nil
}

func (s *Speaker) Send(_ context.Context, _ domain.Command) error {
	return fmt.Errorf("speaker not available")
}
