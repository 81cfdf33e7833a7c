package render

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/imageio"
	"github.com/f3rmion/posekit/internal/scene"
)

func testScene(t *testing.T, transparent bool) *scene.Scene {
	t.Helper()
	def := &scene.Definition{
		Camera: "camera",
		Render: &scene.RenderSettings{
			ResolutionX:     512,
			ResolutionY:     512,
			FileFormat:      "PNG",
			FilmTransparent: transparent,
			Filepath:        "//out.png",
		},
		Objects: []scene.ObjectDef{
			{
				Name: "rig",
				Type: scene.TypeArmature,
				Bones: []scene.BoneDef{
					{Name: "spine", Head: scene.Vec3{0, 0, 1.2}, Tail: scene.Vec3{0, 0, 2.2}},
					{Name: "arm.L", Head: scene.Vec3{0.5, 0, 1.7}, Tail: scene.Vec3{1.0, 0, 1.7}},
				},
			},
			{
				Name:        "camera",
				Type:        scene.TypeCamera,
				Location:    scene.Vec3{0, -5, 1.7},
				Rotation:    scene.Vec3{1.5708, 0, 0},
				Lens:        50,
				SensorWidth: 36,
			},
		},
	}
	s, err := scene.Build(def, filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	return s
}

func TestProjectionCentersOpticalAxis(t *testing.T) {
	s := testScene(t, true)
	cam, err := s.ActiveCamera()
	require.NoError(t, err)
	p := NewProjection(cam, 512, 512)

	x, y, ok := p.Point(scene.Vec3{0, 0, 1.7})
	require.True(t, ok)
	assert.InDelta(t, 256, x, 0.05)
	assert.InDelta(t, 256, y, 0.05)

	// tan(fov/2) = 18/50, so one unit at distance 5 is 1/1.8 of the half-width.
	x, y, ok = p.Point(scene.Vec3{1, 0, 1.7})
	require.True(t, ok)
	assert.InDelta(t, 256+256/1.8, x, 0.05)
	assert.InDelta(t, 256, y, 0.05)

	// Up in the world is up in the image.
	_, y, ok = p.Point(scene.Vec3{0, 0, 2.7})
	require.True(t, ok)
	assert.Less(t, y, 256.0)

	_, _, ok = p.Point(scene.Vec3{0, -10, 1.7})
	assert.False(t, ok, "points behind the camera are clipped")
}

func TestDrawColorsBonesBySide(t *testing.T) {
	r := New(nil)
	img, err := r.Draw(testScene(t, true))
	require.NoError(t, err)

	st := DefaultStyle()
	assert.Equal(t, image.Rect(0, 0, 512, 512), img.Bounds())
	assert.Equal(t, st.Center, img.RGBAAt(256, 256))
	assert.Equal(t, st.Left, img.RGBAAt(360, 256))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}

func TestDrawOpaqueFilm(t *testing.T) {
	img, err := New(nil).Draw(testScene(t, false))
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle().Background, img.RGBAAt(5, 5))
}

func TestDrawFollowsPose(t *testing.T) {
	s := testScene(t, true)
	rig, err := s.Object("rig")
	require.NoError(t, err)
	arm, ok := rig.Armature.Bone("arm.L")
	require.True(t, ok)

	before, err := New(nil).Draw(s)
	require.NoError(t, err)

	// Swing the arm a quarter turn about the view axis.
	arm.Quaternion = scene.Quat{0.7071068, 0.7071068, 0, 0}
	after, err := New(nil).Draw(s)
	require.NoError(t, err)

	assert.NotEqual(t, before.Pix, after.Pix)
	assert.Equal(t, color.RGBA{}, after.RGBAAt(360, 256))
}

func TestRenderWritesPNG(t *testing.T) {
	s := testScene(t, true)
	s.SetRenderer(New(nil))

	out, err := s.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(s.Path), "out.png"), out)

	decoded, err := imageio.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "png", decoded.Format)
	assert.Equal(t, 512, decoded.Image.Bounds().Dx())
}

func TestRenderErrors(t *testing.T) {
	r := New(nil)
	dir := t.TempDir()

	s := testScene(t, true)
	s.Settings.FileFormat = "OPEN_EXR"
	assert.Error(t, r.Render(context.Background(), s, filepath.Join(dir, "a.exr")))

	s = testScene(t, true)
	s.Camera = "rig"
	assert.Error(t, r.Render(context.Background(), s, filepath.Join(dir, "b.png")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Render(ctx, testScene(t, true), filepath.Join(dir, "c.png")), context.Canceled)
}

func TestDrawDefaultRig(t *testing.T) {
	s, err := scene.Build(config.DefaultRigDefinition(), filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)

	img, err := New(nil).Draw(s)
	require.NoError(t, err)

	inked := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			inked++
		}
	}
	assert.Greater(t, inked, 500, "the T-pose rig should cover a visible area")
}
