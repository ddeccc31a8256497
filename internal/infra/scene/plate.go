package scene

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"lego-house/internal/domain"
	"lego-house/internal/infra/display"
)

// PlateSize is the edge length of the house plate in pixels.
const PlateSize = 60

var (
	litColor   = color.RGBA{R: 0xff, G: 0xd2, B: 0x6e, A: 0xff}
	darkColor  = color.RGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xff}
	musicColor = color.RGBA{R: 0x8a, G: 0x4f, B: 0xff, A: 0xff}
)

type Locator interface {
	Location() domain.HouseLocation
}

type ModeReader interface {
	Mode() domain.Mode
}

// Plate draws the content projected onto the model: an optional backdrop
// and a plate over the house whose floors light up with the active mode.
type Plate struct {
	canvas     *display.Canvas
	background image.Image
	house      Locator
	modes      ModeReader
}

func NewPlate(width, height int, house Locator, modes ModeReader) *Plate {
	return &Plate{
		canvas: display.NewCanvas(width, height),
		house:  house,
		modes:  modes,
	}
}

// LoadBackground decodes a PNG or JPEG drawn behind the plate.
func (p *Plate) LoadBackground(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening background: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding background %s: %w", path, err)
	}
	p.background = img
	return nil
}

func (p *Plate) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := p.canvas.Bounds()
	p.canvas.Clear()
	if p.background != nil {
		p.canvas.DrawImage(p.background, 0, 0, float64(b.Dx()), float64(b.Dy()))
	}

	loc := p.house.Location()
	preset := p.modes.Mode().Preset()
	x := loc.X - PlateSize/2
	y := loc.Y - PlateSize/2
	half := float64(PlateSize) / 2

	if preset.Music {
		p.canvas.DrawRect(x-2, y-2, PlateSize+4, PlateSize+4, musicColor)
	}
	p.canvas.DrawRect(x, y, PlateSize, half, floorColor(preset.SecondFloor))
	p.canvas.DrawRect(x, y+half, PlateSize, half, floorColor(preset.FirstFloor))

	return p.canvas.Image(), nil
}

func floorColor(lit bool) color.Color {
	if lit {
		return litColor
	}
	return darkColor
}
