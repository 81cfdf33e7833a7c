package canvas

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{255, 0, 0, 255}

func TestNewFillsBackground(t *testing.T) {
	c := New(10, 10, color.White)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c.Image().RGBAAt(5, 5))

	clear := New(4, 4, color.Transparent)
	assert.Equal(t, color.RGBA{}, clear.Image().RGBAAt(1, 1))
}

func TestLinePaintsAlongSegment(t *testing.T) {
	c := New(100, 100, color.White)
	c.Line(10, 50, 90, 50, 4, red)

	assert.Equal(t, red, c.Image().RGBAAt(50, 50))
	assert.Equal(t, red, c.Image().RGBAAt(20, 50))
	// Well away from the stroke stays background.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c.Image().RGBAAt(50, 20))
}

func TestDiscFillsInterior(t *testing.T) {
	c := New(50, 50, color.Transparent)
	c.Disc(25, 25, 6, red)

	assert.Equal(t, red, c.Image().RGBAAt(25, 25))
	assert.Equal(t, red, c.Image().RGBAAt(28, 24))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(40, 40))

	before := append([]uint8(nil), c.Image().Pix...)
	c.Disc(10, 10, 0, red)
	assert.Equal(t, before, c.Image().Pix)
}

func TestRingLeavesCenterEmpty(t *testing.T) {
	c := New(50, 50, color.Transparent)
	c.Ring(25, 25, 15, 2, red)

	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(25, 25))
	assert.Equal(t, red, c.Image().RGBAAt(39, 25))
}

func TestTextDrawsInk(t *testing.T) {
	c := New(200, 50, color.White)
	c.Text(10, 30, "Pose Skeleton", 20, color.Black)

	dark := 0
	img := c.Image()
	for y := 0; y < 50; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 50)

	// Glyphs sit above the baseline.
	for x := 0; x < 200; x++ {
		assert.Equal(t, uint8(255), img.RGBAAt(x, 45).R)
	}
}

func TestFaceIsUsable(t *testing.T) {
	f := Face(16)
	require.NotNil(t, f)
	defer f.Close()
	assert.Positive(t, f.Metrics().Height.Ceil())
}
