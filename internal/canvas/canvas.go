// Package canvas draws anti-aliased strokes, discs and captions onto RGBA
// images. Both the skeleton overlay and the scene renderer draw through it.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/freetype/raster"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// discSegments is the polygon resolution used for discs.
const discSegments = 32

// Canvas is an RGBA image with a reusable rasterizer.
type Canvas struct {
	img     *image.RGBA
	r       *raster.Rasterizer
	painter *raster.RGBAPainter
}

// New creates a w x h canvas filled with bg. A transparent bg yields a
// transparent canvas.
func New(w, h int, bg color.Color) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	r := raster.NewRasterizer(w, h)
	r.UseNonZeroWinding = true
	return &Canvas{img: img, r: r, painter: raster.NewRGBAPainter(img)}
}

// Image returns the underlying image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Line strokes a round-capped segment of the given pixel width.
func (c *Canvas) Line(x0, y0, x1, y1, width float64, col color.Color) {
	var p raster.Path
	p.Start(pt(x0, y0))
	p.Add1(pt(x1, y1))

	c.r.Clear()
	raster.Stroke(c.r, p, fix(width), raster.RoundCapper, raster.RoundJoiner)
	c.paint(col)
}

// Disc fills a circle of radius rad centered on (x, y).
func (c *Canvas) Disc(x, y, rad float64, col color.Color) {
	if rad <= 0 {
		return
	}
	var p raster.Path
	p.Start(pt(x+rad, y))
	for i := 1; i <= discSegments; i++ {
		a := 2 * math.Pi * float64(i) / discSegments
		p.Add1(pt(x+rad*math.Cos(a), y+rad*math.Sin(a)))
	}

	c.r.Clear()
	c.r.AddPath(p)
	c.paint(col)
}

// Ring draws a circle outline.
func (c *Canvas) Ring(x, y, rad, width float64, col color.Color) {
	if rad <= 0 {
		return
	}
	var p raster.Path
	p.Start(pt(x+rad, y))
	for i := 1; i <= discSegments; i++ {
		a := 2 * math.Pi * float64(i) / discSegments
		p.Add1(pt(x+rad*math.Cos(a), y+rad*math.Sin(a)))
	}

	c.r.Clear()
	raster.Stroke(c.r, p, fix(width), raster.RoundCapper, raster.RoundJoiner)
	c.paint(col)
}

// Text draws s with its baseline starting at (x, y).
func (c *Canvas) Text(x, y int, s string, size float64, col color.Color) {
	face := Face(size)
	if face == nil {
		return
	}
	defer face.Close()
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *Canvas) paint(col color.Color) {
	c.painter.SetColor(col)
	c.r.Rasterize(c.painter)
}

var (
	fontOnce sync.Once
	sansFont *opentype.Font
)

// Face returns a new face of the built-in sans font at size points (72 DPI),
// or nil if the embedded font cannot be parsed. Faces are not safe for
// concurrent use, so each caller gets its own.
func Face(size float64) font.Face {
	fontOnce.Do(func() {
		if f, err := opentype.Parse(goregular.TTF); err == nil {
			sansFont = f
		}
	})
	if sansFont == nil {
		return nil
	}
	face, err := opentype.NewFace(sansFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	return face
}

func fix(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func pt(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fix(x), Y: fix(y)}
}
