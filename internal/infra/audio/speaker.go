//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/gordonklaus/portaudio"

	"lego-house/internal/domain"
)

// Speaker plays the house's ambience loop through the default output device.
// It needs both light commands (music on or off) and audio commands (gain),
// so it is wired with Router.AudioFollowsMode.
type Speaker struct {
	sampleRate int
	volume     domain.VolumeRange
	logger     *slog.Logger

	stream *portaudio.Stream
	phase  float64
	mixer  *mixer
}

func NewSpeaker(sampleRate int, volume domain.VolumeRange, logger *slog.Logger) *Speaker {
	return &Speaker{
		sampleRate: sampleRate,
		volume:     volume,
		logger:     logger,
		mixer:      &mixer{volume: volume},
	}
}

func (s *Speaker) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(s.sampleRate), 0, s.fill)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	s.logger.Info("speaker started", "sampleRate", s.sampleRate)
	return nil
}

func (s *Speaker) Stop() error {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

func (s *Speaker) Send(_ context.Context, cmd domain.Command) error {
	s.mixer.apply(cmd)
	return nil
}

// fill runs on PortAudio's callback thread.
func (s *Speaker) fill(out []float32) {
	gain := s.mixer.output()

	step := 2 * math.Pi * ambienceHz / float64(s.sampleRate)
	for i := range out {
		if gain == 0 {
			out[i] = 0
			continue
		}
		out[i] = gain * float32(math.Sin(s.phase))
		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}
