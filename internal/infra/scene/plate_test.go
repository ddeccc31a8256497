package scene_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/internal/domain"
	"lego-house/internal/infra/scene"
)

type fixedHouse domain.HouseLocation

func (h fixedHouse) Location() domain.HouseLocation { return domain.HouseLocation(h) }

type fixedMode domain.Mode

func (m fixedMode) Mode() domain.Mode { return domain.Mode(m) }

func rgba(t *testing.T, img image.Image, x, y int) color.RGBA {
	t.Helper()
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestPlate_FloorsFollowMode(t *testing.T) {
	tests := []struct {
		name        string
		mode        domain.Mode
		upperLit    bool
		lowerLit    bool
		musicBorder bool
	}{
		{"off", domain.ModeOff, false, false, false},
		{"first floor", domain.ModeFirstFloorLight, false, true, false},
		{"second floor", domain.ModeSecondFloorLight, true, false, false},
		{"party", domain.ModeParty, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plate := scene.NewPlate(200, 200, fixedHouse{X: 100, Y: 100}, fixedMode(tt.mode))

			img, err := plate.Frame(context.Background())
			require.NoError(t, err)

			upper := rgba(t, img, 100, 80)
			lower := rgba(t, img, 100, 120)
			border := rgba(t, img, 69, 100)

			assert.Equal(t, tt.upperLit, upper.R == 0xff, "upper floor")
			assert.Equal(t, tt.lowerLit, lower.R == 0xff, "lower floor")
			assert.Equal(t, tt.musicBorder, border.B == 0xff, "music border")
		})
	}
}

func TestPlate_FollowsHouseLocation(t *testing.T) {
	plate := scene.NewPlate(200, 200, fixedHouse{X: 40, Y: 40}, fixedMode(domain.ModeAllLights))

	img, err := plate.Frame(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint8(0xff), rgba(t, img, 40, 40).R)
	assert.Equal(t, uint8(0), rgba(t, img, 150, 150).R)
}

func TestPlate_Background(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			bg.Set(x, y, color.RGBA{G: 0xff, A: 0xff})
		}
	}
	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, bg))
	require.NoError(t, f.Close())

	plate := scene.NewPlate(100, 100, fixedHouse{X: 500, Y: 500}, fixedMode(domain.ModeOff))
	require.NoError(t, plate.LoadBackground(path))

	img, err := plate.Frame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), rgba(t, img, 50, 50).G)
}

func TestPlate_LoadBackgroundMissing(t *testing.T) {
	plate := scene.NewPlate(10, 10, fixedHouse{}, fixedMode(domain.ModeOff))
	assert.Error(t, plate.LoadBackground(filepath.Join(t.TempDir(), "missing.png")))
}

func TestPlate_CancelledContext(t *testing.T) {
	plate := scene.NewPlate(10, 10, fixedHouse{}, fixedMode(domain.ModeOff))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := plate.Frame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
