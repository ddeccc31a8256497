package display

import (
	"context"
	"image"
)

// Sketch is the per-frame callback surface a host drives. It matches
// application.Sketch.
type Sketch interface {
	OnTick(ctx context.Context) image.Image
	OnKey(ctx context.Context, key rune)
}

// WindowConfig is fixed for the lifetime of the window.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	TPS        int
}
