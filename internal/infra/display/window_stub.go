//go:build headless || !cgo

package display

import (
	"context"
	"errors"
)

func RunWindow(_ context.Context, _ Sketch, _ WindowConfig) error {
	return errors.New("window mode is not built in (rebuild with cgo and without the headless tag)")
}
