// Package render draws a scene's armatures from its active camera.
//
// It is a wireframe rasterizer: bones become stroked segments colored by
// body side and joints become discs. Output is deterministic for a given
// scene.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/canvas"
	"github.com/f3rmion/posekit/internal/imageio"
	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

const (
	nearClip = 0.01
	farClip  = 1000.0
)

// Style holds the palette and stroke sizes, relative to a 512 pixel frame.
type Style struct {
	Background color.RGBA
	Left       color.RGBA
	Right      color.RGBA
	Center     color.RGBA
	Joint      color.RGBA
	Empty      color.RGBA
	BoneWidth  float64
	JointSize  float64
}

// DefaultStyle matches the skeleton overlay palette on a dark gray film.
func DefaultStyle() Style {
	return Style{
		Background: color.RGBA{64, 64, 64, 255},
		Left:       color.RGBA{255, 138, 0, 255},
		Right:      color.RGBA{0, 217, 231, 255},
		Center:     color.RGBA{176, 176, 176, 255},
		Joint:      color.RGBA{240, 240, 240, 255},
		Empty:      color.RGBA{255, 255, 0, 255},
		BoneWidth:  3,
		JointSize:  2.5,
	}
}

// Renderer implements scene.Renderer.
type Renderer struct {
	style  Style
	logger *zap.Logger
}

// New returns a renderer using DefaultStyle.
func New(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{style: DefaultStyle(), logger: logger}
}

// WithStyle returns a copy of r drawing with st.
func (r *Renderer) WithStyle(st Style) *Renderer {
	return &Renderer{style: st, logger: r.logger}
}

// Render draws s and writes it to path in the scene's file format.
func (r *Renderer) Render(ctx context.Context, s *scene.Scene, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f := strings.ToUpper(s.Settings.FileFormat); f != "" && f != "PNG" {
		return fmt.Errorf("unsupported file format %q", s.Settings.FileFormat)
	}
	img, err := r.Draw(s)
	if err != nil {
		return err
	}
	if err := imageio.WritePNG(path, img); err != nil {
		return err
	}
	r.logger.Debug("scene rendered",
		zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return nil
}

// Draw rasterizes s without writing it.
func (r *Renderer) Draw(s *scene.Scene) (*image.RGBA, error) {
	cam, err := s.ActiveCamera()
	if err != nil {
		return nil, err
	}
	if cam.Type != scene.TypeCamera {
		return nil, fmt.Errorf("active camera %q is a %s", cam.Name, cam.Type)
	}
	w, h := s.Settings.ResolutionX, s.Settings.ResolutionY
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", w, h)
	}

	bg := r.style.Background
	if s.Settings.FilmTransparent {
		bg = color.RGBA{}
	}
	c := canvas.New(w, h, bg)
	proj := NewProjection(cam, w, h)
	scale := math.Min(float64(w), float64(h)) / 512

	var segs []segment
	var joints []projected
	var empties []projected
	for _, obj := range s.Objects() {
		world := obj.WorldMatrix()
		switch obj.Type {
		case scene.TypeArmature:
			if obj.Armature == nil {
				continue
			}
			for _, pb := range obj.Armature.Pose() {
				head, hok := proj.project(world, pb.Head)
				tail, tok := proj.project(world, pb.Tail)
				if !hok || !tok {
					continue
				}
				segs = append(segs, segment{head: head, tail: tail, side: pose.BoneSide(pb.Name)})
				joints = append(joints, head)
			}
		case scene.TypeEmpty:
			if p, ok := proj.project(world, scene.Vec3{}); ok {
				empties = append(empties, p)
			}
		}
	}

	// Far bones first so nearer ones paint over them.
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].depth() > segs[j].depth() })

	for _, sg := range segs {
		c.Line(sg.head.X, sg.head.Y, sg.tail.X, sg.tail.Y, r.style.BoneWidth*scale, r.sideColor(sg.side))
	}
	for _, j := range joints {
		c.Disc(j.X, j.Y, r.style.JointSize*scale, r.style.Joint)
	}
	for _, e := range empties {
		c.Ring(e.X, e.Y, 6*scale, 1.5*scale, r.style.Empty)
	}
	return c.Image(), nil
}

func (r *Renderer) sideColor(side pose.Side) color.RGBA {
	switch side {
	case pose.SideLeft:
		return r.style.Left
	case pose.SideRight:
		return r.style.Right
	default:
		return r.style.Center
	}
}

type segment struct {
	head, tail projected
	side       pose.Side
}

func (s segment) depth() float64 { return (s.head.Depth + s.tail.Depth) / 2 }

type projected struct {
	X, Y  float64
	Depth float64
}

// Projection maps world points to pixel coordinates for one camera.
type Projection struct {
	viewProj      mgl64.Mat4
	view          mgl64.Mat4
	width, height float64
}

// NewProjection builds a perspective projection for cam. The lens field of
// view spans the longer image side.
func NewProjection(cam *scene.Object, width, height int) *Projection {
	aspect := float64(width) / float64(height)
	fov := cam.FieldOfView()
	fovY := fov
	if aspect >= 1 {
		fovY = 2 * math.Atan(math.Tan(fov/2)/aspect)
	}
	view := cam.WorldMatrix().Inv()
	persp := mgl64.Perspective(fovY, aspect, nearClip, farClip)
	return &Projection{
		viewProj: persp.Mul4(view),
		view:     view,
		width:    float64(width),
		height:   float64(height),
	}
}

// project returns the pixel position of the local point pt under the object
// transform world. ok is false for points behind the camera.
func (p *Projection) project(world mgl64.Mat4, pt scene.Vec3) (projected, bool) {
	wp := world.Mul4x1(mgl64.Vec4{pt[0], pt[1], pt[2], 1})
	clip := p.viewProj.Mul4x1(wp)
	if clip.W() <= nearClip {
		return projected{}, false
	}
	ndcX, ndcY := clip.X()/clip.W(), clip.Y()/clip.W()
	depth := -p.view.Mul4x1(wp).Z()
	return projected{
		X:     (ndcX + 1) / 2 * p.width,
		Y:     (1 - ndcY) / 2 * p.height,
		Depth: depth,
	}, true
}

// Point projects a world-space point to pixel coordinates.
func (p *Projection) Point(pt scene.Vec3) (x, y float64, ok bool) {
	pr, ok := p.project(mgl64.Ident4(), pt)
	return pr.X, pr.Y, ok
}
