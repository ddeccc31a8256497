package application

import (
	"image"
	"image/color"

	"lego-house/internal/domain"
)

// Surface is the frame buffer the overlay is painted into.
type Surface interface {
	Bounds() image.Rectangle
	Clear()
	DrawRect(x, y, w, h float64, c color.Color)
	DrawImage(img image.Image, x, y, w, h float64)
}

type RenderOptions struct {
	MarkerSize  float64
	MarkerColor color.Color
	FrameSize   float64
	FrameStroke float64
	FrameColor  color.Color
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		MarkerSize:  12,
		MarkerColor: color.White,
		FrameSize:   300,
		FrameStroke: 2,
		FrameColor:  color.RGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff},
	}
}

// OverlayRenderer paints, in order: background, projected content, one
// marker per tracked point, frame border. Each layer overwrites the pixels
// below it.
type OverlayRenderer struct {
	opts RenderOptions
}

func NewOverlayRenderer(opts RenderOptions) *OverlayRenderer {
	return &OverlayRenderer{opts: opts}
}

func (r *OverlayRenderer) Compose(buf Surface, tracked domain.TrackedPointSet, projected image.Image) {
	buf.Clear()

	b := buf.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if projected != nil {
		// centered on the buffer at full extent
		cx, cy := float64(b.Min.X)+w/2, float64(b.Min.Y)+h/2
		buf.DrawImage(projected, cx-w/2, cy-h/2, w, h)
	}

	size := r.opts.MarkerSize
	for p := range tracked.Points() {
		buf.DrawRect(p.X, p.Y, size, size, r.opts.MarkerColor)
	}

	r.drawFrame(buf)
}

func (r *OverlayRenderer) drawFrame(buf Surface) {
	s, t, c := r.opts.FrameSize, r.opts.FrameStroke, r.opts.FrameColor
	if s <= 0 || t <= 0 {
		return
	}
	buf.DrawRect(0, 0, s, t, c)
	buf.DrawRect(0, s-t, s, t, c)
	buf.DrawRect(0, 0, t, s, c)
	buf.DrawRect(s-t, 0, t, s, c)
}
