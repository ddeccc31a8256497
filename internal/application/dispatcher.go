package application

import (
	"context"
	"log/slog"

	"lego-house/internal/domain"
)

// InputDispatcher turns one key press into house requests or device
// changes. Rules run in a fixed order and every matching rule fires, so a
// later rule wins when two touch the same state.
type InputDispatcher struct {
	state      *InstallationState
	controller *DeviceController
	logger     *slog.Logger
}

func NewInputDispatcher(state *InstallationState, controller *DeviceController, logger *slog.Logger) *InputDispatcher {
	return &InputDispatcher{
		state:      state,
		controller: controller,
		logger:     logger,
	}
}

// Handle processes a single key. It reports whether any rule matched.
func (d *InputDispatcher) Handle(ctx context.Context, key rune) bool {
	matched := false

	switch key {
	case 'h':
		d.state.RequestHouse(domain.HouseRequestSave)
		matched = true
	case 'H':
		d.state.RequestHouse(domain.HouseRequestLoad)
		matched = true
	case 'm':
		d.state.RequestHouse(domain.HouseRequestMove)
		matched = true
	}

	if key == 'a' {
		d.controller.SetMode(ctx, domain.ModeFirstFloorLight)
		matched = true
	}

	for _, m := range domain.Modes() {
		if string(key) == m.Token() {
			d.controller.SetMode(ctx, m)
			matched = true
		}
	}

	switch key {
	case '+':
		d.controller.VolumeUp(ctx)
		matched = true
	case '-':
		d.controller.VolumeDown(ctx)
		matched = true
	}

	if !matched {
		d.logger.Debug("key ignored", "key", string(key))
	}
	return matched
}
