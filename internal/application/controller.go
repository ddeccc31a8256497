package application

import (
	"context"
	"log/slog"
	"sync"

	"lego-house/internal/domain"
)

// DeviceController owns mode and volume changes. Every mutating call emits
// exactly one command to the transport and never waits for acknowledgement.
type DeviceController struct {
	state     *InstallationState
	transport Transport
	volume    domain.VolumeRange
	logger    *slog.Logger

	mu sync.Mutex
}

func NewDeviceController(
	state *InstallationState,
	transport Transport,
	volume domain.VolumeRange,
	logger *slog.Logger,
) *DeviceController {
	return &DeviceController{
		state:     state,
		transport: transport,
		volume:    volume,
		logger:    logger,
	}
}

// SetMode switches the active mode. Setting the current mode again leaves
// the state untouched but still re-sends the preset.
func (c *DeviceController) SetMode(ctx context.Context, m domain.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if changed := c.state.setMode(m); changed {
		c.logger.Info("mode changed", "mode", m)
	}
	c.emit(ctx, domain.NewModeCommand(m))
}

func (c *DeviceController) VolumeUp(ctx context.Context) {
	c.adjustVolume(ctx, 1)
}

func (c *DeviceController) VolumeDown(ctx context.Context) {
	c.adjustVolume(ctx, -1)
}

// ApplyCurrent re-sends the current mode and volume so the devices match
// the in-memory state.
func (c *DeviceController) ApplyCurrent(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emit(ctx, domain.NewModeCommand(c.state.Mode()))
	c.emit(ctx, domain.NewVolumeCommand(c.state.Volume()))
}

func (c *DeviceController) adjustVolume(ctx context.Context, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	level := c.volume.Clamp(c.state.Volume() + delta)
	c.state.setVolume(level)
	c.logger.Debug("volume set", "level", level)
	// sent even when saturated so the device's reported level stays authoritative
	c.emit(ctx, domain.NewVolumeCommand(level))
}

func (c *DeviceController) emit(ctx context.Context, cmd domain.Command) {
	if err := c.transport.Send(ctx, cmd); err != nil {
		c.logger.Warn("device command dropped", "target", cmd.Target, "id", cmd.ID, "error", err)
	}
}
