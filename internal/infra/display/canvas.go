package display

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Canvas is an in-memory frame buffer. Coordinates are pixels with the
// origin at the top-left corner.
type Canvas struct {
	img        *image.RGBA
	background color.Color
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: color.Black,
	}
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *Canvas) Image() image.Image {
	return c.img
}

// RGBA exposes the backing pixels for hosts that upload them directly.
func (c *Canvas) RGBA() *image.RGBA {
	return c.img
}

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
}

func (c *Canvas) DrawRect(x, y, w, h float64, col color.Color) {
	r := toRect(x, y, w, h).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) DrawImage(src image.Image, x, y, w, h float64) {
	if src == nil {
		return
	}
	r := toRect(x, y, w, h)
	if r.Empty() {
		return
	}
	if r.Size() == src.Bounds().Size() {
		draw.Draw(c.img, r, src, src.Bounds().Min, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(c.img, r, src, src.Bounds(), xdraw.Over, nil)
}

func toRect(x, y, w, h float64) image.Rectangle {
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}
