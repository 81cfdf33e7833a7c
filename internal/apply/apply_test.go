package apply

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

type fakeRenderer struct {
	paths    []string
	settings []scene.RenderSettings
	err      error
}

func (r *fakeRenderer) Render(_ context.Context, s *scene.Scene, path string) error {
	r.paths = append(r.paths, path)
	r.settings = append(r.settings, s.Settings)
	return r.err
}

type fakeSaver struct {
	saved int
	err   error
}

func (s *fakeSaver) Save(context.Context, *scene.Scene) error {
	s.saved++
	return s.err
}

func defaultScene(t *testing.T) (*scene.Scene, *fakeRenderer) {
	t.Helper()
	s, err := scene.Build(config.DefaultRigDefinition(), filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	r := &fakeRenderer{}
	s.SetRenderer(r)
	return s, r
}

type boneState struct {
	RotationMode scene.RotationMode
	Location     scene.Vec3
	Quaternion   scene.Quat
	Euler        scene.Vec3
	Scale        scene.Vec3
}

func transforms(t *testing.T, s *scene.Scene) map[string]boneState {
	t.Helper()
	rig, err := s.Object(RigName)
	require.NoError(t, err)
	out := make(map[string]boneState)
	for _, b := range rig.Armature.Bones() {
		out[b.Name] = boneState{b.RotationMode, b.Location, b.Quaternion, b.Euler, b.Scale}
	}
	return out
}

func docA() *pose.Document {
	d := pose.NewDocument()
	d.SetRotation("spine1", pose.Rotation{0.9, 0.1, 0.3, 0.3})
	d.SetRotation("head", pose.Rotation{0, 1, 0, 0})
	d.SetLocation("foot.L", pose.Location{1, 2, 3})
	return d
}

func docB() *pose.Document {
	d := pose.NewDocument()
	d.SetRotation("upperarm.L", pose.Rotation{0.5, 0.5, 0.5, 0.5})
	d.SetLocation("hand.R", pose.Location{-1, 0, 1.5})
	return d
}

func TestApplySetsValuesVerbatim(t *testing.T) {
	s, r := defaultScene(t)
	saver := &fakeSaver{}

	res, err := New(s, saver, Options{}, nil).Apply(context.Background(), docA(), "")
	require.NoError(t, err)

	rig, _ := s.Object(RigName)
	spine, _ := rig.Armature.Bone("spine1")
	assert.Equal(t, scene.Quat{0.9, 0.1, 0.3, 0.3}, spine.Quaternion)

	head, _ := rig.Armature.Bone("head")
	assert.Equal(t, scene.ModeQuaternion, head.RotationMode)
	assert.Equal(t, scene.Quat{0, 1, 0, 0}, head.Quaternion)

	foot, _ := rig.Armature.Bone("foot.L")
	assert.Equal(t, scene.Vec3{1, 2, 3}, foot.Location)
	assert.Equal(t, scene.IdentityQuat, foot.Quaternion)

	assert.Equal(t, []string{"spine1", "head", "foot.L_location"}, res.Applied)
	assert.Empty(t, res.Ignored)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, saver.saved)

	require.Len(t, r.paths, 1)
	assert.Equal(t, filepath.Join(filepath.Dir(s.Path), "rendered_pose.png"), r.paths[0])
	assert.Equal(t, res.OutputPath, r.paths[0])
	assert.Equal(t, scene.RenderSettings{
		ResolutionX:     512,
		ResolutionY:     512,
		FileFormat:      "PNG",
		FilmTransparent: true,
		Filepath:        DefaultOutput,
	}, r.settings[0])

	cam, _ := s.Object(CameraName)
	assert.Equal(t, CameraLocation, cam.Location)
	assert.Equal(t, CameraRotation, cam.Rotation)
}

func TestApplyResetsPreviousPose(t *testing.T) {
	s1, _ := defaultScene(t)
	a := New(s1, nil, Options{}, nil)
	_, err := a.Apply(context.Background(), docA(), "//a.png")
	require.NoError(t, err)
	_, err = a.Apply(context.Background(), docB(), "//b.png")
	require.NoError(t, err)

	s2, _ := defaultScene(t)
	_, err = New(s2, nil, Options{}, nil).Apply(context.Background(), docB(), "//b.png")
	require.NoError(t, err)

	ignoreMode := cmpopts.IgnoreFields(boneState{}, "RotationMode")
	if diff := cmp.Diff(transforms(t, s2), transforms(t, s1), ignoreMode); diff != "" {
		t.Errorf("A then B differs from B alone (-want +got):\n%s", diff)
	}
}

// Clearing transforms leaves rotation modes alone, so a bone rotated by an
// earlier document stays in QUATERNION mode with an identity rotation.
func TestApplyKeepsRotationModeOfEarlierDocument(t *testing.T) {
	earlier := pose.NewDocument()
	earlier.SetRotation("upperarm-fk.L", pose.Rotation{0.5, 0.5, 0.5, 0.5})

	s1, _ := defaultScene(t)
	a := New(s1, nil, Options{}, nil)
	_, err := a.Apply(context.Background(), earlier, "//a.png")
	require.NoError(t, err)
	_, err = a.Apply(context.Background(), docB(), "//b.png")
	require.NoError(t, err)

	s2, _ := defaultScene(t)
	_, err = New(s2, nil, Options{}, nil).Apply(context.Background(), docB(), "//b.png")
	require.NoError(t, err)

	after := transforms(t, s1)["upperarm-fk.L"]
	alone := transforms(t, s2)["upperarm-fk.L"]

	assert.Equal(t, scene.ModeXYZ, alone.RotationMode)
	assert.Equal(t, scene.ModeQuaternion, after.RotationMode)
	assert.Equal(t, scene.IdentityQuat, after.Quaternion)
	assert.Equal(t, alone.Euler, after.Euler)
	assert.Equal(t, alone.Location, after.Location)
	assert.Equal(t, alone.Scale, after.Scale)
}

func TestApplyEmptyDocumentRendersRest(t *testing.T) {
	s, r := defaultScene(t)
	before := transforms(t, s)

	res, err := New(s, nil, Options{}, nil).Apply(context.Background(), pose.NewDocument(), "//rest.png")
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	assert.Len(t, r.paths, 1)
	assert.Equal(t, before, transforms(t, s))
}

func TestApplyIgnoresUnknownBones(t *testing.T) {
	s, _ := defaultScene(t)
	d := pose.NewDocument()
	d.SetRotation("tail", pose.Rotation{1, 0, 0, 0})
	d.SetLocation("wing.L", pose.Location{1, 1, 1})
	d.SetRotation("spine2", pose.Rotation{0, 0, 1, 0})

	res, err := New(s, nil, Options{}, nil).Apply(context.Background(), d, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"tail", "wing.L_location"}, res.Ignored)
	assert.Equal(t, []string{"spine2"}, res.Applied)
}

func TestApplyStrictRejectsUnknownBonesBeforeMutation(t *testing.T) {
	s, r := defaultScene(t)
	rig, _ := s.Object(RigName)
	spine, _ := rig.Armature.Bone("spine1")
	spine.Quaternion = scene.Quat{0, 0, 0, 1}

	d := pose.NewDocument()
	d.SetRotation("tail", pose.Rotation{1, 0, 0, 0})

	_, err := New(s, nil, Options{Strict: true}, nil).Apply(context.Background(), d, "")
	require.ErrorIs(t, err, ErrUnknownBones)
	assert.Equal(t, scene.Quat{0, 0, 0, 1}, spine.Quaternion)
	assert.Empty(t, r.paths)
}

func TestApplyRequiresRigAndCamera(t *testing.T) {
	for _, missing := range []string{RigName, CameraName} {
		t.Run(missing, func(t *testing.T) {
			def := config.DefaultRigDefinition()
			kept := def.Objects[:0]
			for _, od := range def.Objects {
				if od.Name != missing {
					kept = append(kept, od)
				}
			}
			def.Objects = kept

			s, err := scene.Build(def, filepath.Join(t.TempDir(), "scene.db"))
			require.NoError(t, err)
			r := &fakeRenderer{}
			s.SetRenderer(r)

			_, err = New(s, nil, Options{}, nil).Apply(context.Background(), docA(), "")
			require.ErrorIs(t, err, scene.ErrObjectNotFound)
			assert.Empty(t, r.paths)

			if rig, err := s.Object(RigName); err == nil {
				spine, _ := rig.Armature.Bone("spine1")
				assert.Equal(t, scene.IdentityQuat, spine.Quaternion)
			}
		})
	}
}

func TestApplyPropagatesFailures(t *testing.T) {
	s, r := defaultScene(t)
	r.err = errors.New("gpu on fire")
	saver := &fakeSaver{}

	_, err := New(s, saver, Options{}, nil).Apply(context.Background(), docA(), "")
	require.Error(t, err)
	assert.Zero(t, saver.saved)

	r.err = nil
	saver.err = errors.New("disk full")
	_, err = New(s, saver, Options{}, nil).Apply(context.Background(), docA(), "")
	require.ErrorContains(t, err, "disk full")
}
