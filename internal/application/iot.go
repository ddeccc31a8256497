package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lego-house/internal/domain"
)

// Transport delivers device commands to the hardware inside the model.
// Delivery is best effort; implementations must not block the caller on
// acknowledgement.
type Transport interface {
	Send(ctx context.Context, cmd domain.Command) error
}

// Router sends light and audio commands to separate backends. With
// AudioFollowsMode the audio backend also gets light commands, so a speaker
// can start and stop with the mode's music flag.
type Router struct {
	Lights           Transport
	Audio            Transport
	AudioFollowsMode bool
}

func (r *Router) Send(ctx context.Context, cmd domain.Command) error {
	switch cmd.Target {
	case domain.TargetLight:
		err := deliver(ctx, r.Lights, cmd)
		if r.AudioFollowsMode {
			err = errors.Join(err, deliver(ctx, r.Audio, cmd))
		}
		return err
	case domain.TargetAudio:
		return deliver(ctx, r.Audio, cmd)
	default:
		return fmt.Errorf("unknown command target: %s", cmd.Target)
	}
}

func deliver(ctx context.Context, t Transport, cmd domain.Command) error {
	if t == nil {
		return fmt.Errorf("no transport for target %s", cmd.Target)
	}
	return t.Send(ctx, cmd)
}

// LogTransport only logs commands. Used for the preview rig and dry runs.
type LogTransport struct {
	Logger *slog.Logger
}

func (l *LogTransport) Send(_ context.Context, cmd domain.Command) error {
	l.Logger.Info("device command",
		"id", cmd.ID,
		"target", cmd.Target,
		"mode", cmd.ModeName,
		"level", cmd.Level,
	)
	return nil
}
