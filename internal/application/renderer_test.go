package application_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/internal/application"
	"lego-house/internal/domain"
	"lego-house/internal/infra/display"
)

var projectedBlue = color.RGBA{B: 0xff, A: 0xff}

func TestOverlayRenderer_EmptySetPaintsContentAndFrame(t *testing.T) {
	surface := &recordingSurface{bounds: image.Rect(0, 0, 640, 480)}
	r := application.NewOverlayRenderer(application.DefaultRenderOptions())

	r.Compose(surface, domain.TrackedPointSet{}, solidImage(4, 4, projectedBlue))

	require.Len(t, surface.ops, 6)
	assert.Equal(t, "clear", surface.ops[0].kind)
	assert.Equal(t, paintOp{kind: "image", x: 0, y: 0, w: 640, h: 480}, surface.ops[1])
	for _, op := range surface.ops[2:] {
		assert.Equal(t, "rect", op.kind)
		assert.True(t, op.w == 2 || op.h == 2, "frame edges are strokes: %+v", op)
	}
}

func TestOverlayRenderer_PaintOrder(t *testing.T) {
	surface := &recordingSurface{bounds: image.Rect(0, 0, 640, 480)}
	r := application.NewOverlayRenderer(application.DefaultRenderOptions())
	tracked := domain.TrackedPointSet{{{X: 50, Y: 60}, {X: 200, Y: 220}}}

	r.Compose(surface, tracked, solidImage(4, 4, projectedBlue))

	require.Len(t, surface.ops, 8)
	assert.Equal(t, "clear", surface.ops[0].kind)
	assert.Equal(t, "image", surface.ops[1].kind)
	assert.Equal(t, paintOp{kind: "rect", x: 50, y: 60, w: 12, h: 12}, surface.ops[2])
	assert.Equal(t, paintOp{kind: "rect", x: 200, y: 220, w: 12, h: 12}, surface.ops[3])
}

func TestOverlayRenderer_MarkersOpaqueOverProjectedContent(t *testing.T) {
	canvas := display.NewCanvas(400, 400)
	r := application.NewOverlayRenderer(application.DefaultRenderOptions())
	tracked := domain.TrackedPointSet{{{X: 50, Y: 60}, {X: 200, Y: 220}}}

	r.Compose(canvas, tracked, solidImage(400, 400, projectedBlue))

	img := canvas.RGBA()
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	assert.Equal(t, white, img.RGBAAt(50, 60))
	assert.Equal(t, white, img.RGBAAt(61, 71))
	assert.Equal(t, white, img.RGBAAt(200, 220))
	assert.Equal(t, white, img.RGBAAt(211, 231))

	assert.Equal(t, projectedBlue, img.RGBAAt(62, 72))
	assert.Equal(t, projectedBlue, img.RGBAAt(120, 120))
	assert.Equal(t, projectedBlue, img.RGBAAt(350, 350))

	frame := application.DefaultRenderOptions().FrameColor
	assert.Equal(t, frame, img.RGBAAt(0, 150))
	assert.Equal(t, frame, img.RGBAAt(150, 299))
	assert.Equal(t, frame, img.RGBAAt(299, 10))
}

func TestOverlayRenderer_FrameOverwritesMarker(t *testing.T) {
	canvas := display.NewCanvas(400, 400)
	r := application.NewOverlayRenderer(application.DefaultRenderOptions())

	r.Compose(canvas, domain.TrackedPointSet{{{X: 0, Y: 100}}}, nil)

	img := canvas.RGBA()
	assert.Equal(t, application.DefaultRenderOptions().FrameColor, img.RGBAAt(1, 105))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(5, 105))
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(380, 380))
}
