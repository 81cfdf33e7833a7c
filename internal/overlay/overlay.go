// Package overlay renders detected landmarks as a 2D skeleton image.
package overlay

import (
	"image"
	"image/color"

	"github.com/f3rmion/posekit/internal/canvas"
	"github.com/f3rmion/posekit/internal/pose"
)

// Style controls how the skeleton is drawn.
type Style struct {
	Size       int
	Background color.RGBA
	Connection color.RGBA
	Left       color.RGBA
	Right      color.RGBA
	Center     color.RGBA
	LineWidth  float64
	DotRadius  float64

	Caption      string
	CaptionX     int
	CaptionY     int
	CaptionSize  float64
	CaptionColor color.RGBA
}

// DefaultStyle is a 512x512 white canvas with side-colored joints and a
// "Pose Skeleton" caption.
func DefaultStyle() Style {
	return Style{
		Size:         512,
		Background:   color.RGBA{255, 255, 255, 255},
		Connection:   color.RGBA{128, 128, 128, 255},
		Left:         color.RGBA{255, 138, 0, 255},
		Right:        color.RGBA{0, 217, 231, 255},
		Center:       color.RGBA{176, 176, 176, 255},
		LineWidth:    2,
		DotRadius:    3,
		Caption:      "Pose Skeleton",
		CaptionX:     10,
		CaptionY:     30,
		CaptionSize:  28,
		CaptionColor: color.RGBA{0, 0, 0, 255},
	}
}

// Drawable reports whether a landmark is confident enough and inside the frame.
func Drawable(l pose.Landmark) bool {
	return l.Visible() && l.X >= 0 && l.X <= 1 && l.Y >= 0 && l.Y <= 1
}

// Render draws connections, then joints, then the caption.
func Render(landmarks []pose.Landmark, st Style) *image.RGBA {
	c := canvas.New(st.Size, st.Size, st.Background)
	size := float64(st.Size)

	drawable := func(i int) bool {
		return i >= 0 && i < len(landmarks) && Drawable(landmarks[i])
	}

	for _, conn := range pose.Connections {
		a, b := conn[0], conn[1]
		if !drawable(a) || !drawable(b) {
			continue
		}
		la, lb := landmarks[a], landmarks[b]
		c.Line(la.X*size, la.Y*size, lb.X*size, lb.Y*size, st.LineWidth, st.Connection)
	}

	for i, l := range landmarks {
		if !drawable(i) {
			continue
		}
		c.Disc(l.X*size, l.Y*size, st.DotRadius, st.sideColor(pose.LandmarkSide(i)))
	}

	if st.Caption != "" {
		c.Text(st.CaptionX, st.CaptionY, st.Caption, st.CaptionSize, st.CaptionColor)
	}
	return c.Image()
}

func (st Style) sideColor(side pose.Side) color.RGBA {
	switch side {
	case pose.SideLeft:
		return st.Left
	case pose.SideRight:
		return st.Right
	default:
		return st.Center
	}
}
