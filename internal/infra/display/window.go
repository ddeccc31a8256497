//go:build !headless && cgo

package display

import (
	"context"
	"image"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens the projector (full screen) or preview window and drives
// the sketch once per ebiten update. It blocks until the window closes or
// ctx is cancelled.
func RunWindow(ctx context.Context, sketch Sketch, cfg WindowConfig) error {
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetTPS(cfg.TPS)
	if cfg.Fullscreen {
		ebiten.SetFullscreen(true)
	} else {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}

	g := &windowGame{ctx: ctx, sketch: sketch, width: cfg.Width, height: cfg.Height}
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

type windowGame struct {
	ctx    context.Context
	sketch Sketch
	width  int
	height int

	chars   []rune
	frame   image.Image
	scratch *image.RGBA
	screen  *ebiten.Image
}

func (g *windowGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		g.sketch.OnKey(g.ctx, r)
	}
	g.frame = g.sketch.OnTick(g.ctx)
	return nil
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		return
	}
	b := g.frame.Bounds()
	if g.screen == nil || g.scratch.Bounds().Size() != b.Size() {
		if g.screen != nil {
			g.screen.Deallocate()
		}
		g.screen = ebiten.NewImage(b.Dx(), b.Dy())
		g.scratch = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}

	pix := g.scratch.Pix
	if rgba, ok := g.frame.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && rgba.Rect.Min == (image.Point{}) {
		pix = rgba.Pix
	} else {
		draw.Draw(g.scratch, g.scratch.Bounds(), g.frame, b.Min, draw.Src)
	}
	g.screen.WritePixels(pix)
	screen.DrawImage(g.screen, nil)
}

func (g *windowGame) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
