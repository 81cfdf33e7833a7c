package introspect

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/posekit/internal/apply"
	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/scene"
)

type orderRenderer struct {
	jsonPath string
	sawJSON  bool
	paths    []string
}

func (r *orderRenderer) Render(_ context.Context, _ *scene.Scene, path string) error {
	_, err := os.Stat(r.jsonPath)
	r.sawJSON = err == nil
	r.paths = append(r.paths, path)
	return nil
}

func defaultScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Build(config.DefaultRigDefinition(), filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	return s
}

func TestRunRendersThenWritesSnapshot(t *testing.T) {
	s := defaultScene(t)
	dir := filepath.Dir(s.Path)
	r := &orderRenderer{jsonPath: filepath.Join(dir, "rig_data.json")}
	s.SetRenderer(r)

	rig, _ := s.Object(apply.RigName)
	spine, _ := rig.Armature.Bone("spine1")
	spine.Quaternion = scene.Quat{0, 1, 0, 0}

	res, err := New(s, nil, nil).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "t_pose_render.png")}, r.paths)
	assert.False(t, r.sawJSON, "render happens before the snapshot is written")
	assert.Equal(t, filepath.Join(dir, "rig_data.json"), res.JSONPath)
	assert.Equal(t, scene.IdentityQuat, spine.Quaternion)

	cam, _ := s.Object(apply.CameraName)
	assert.Equal(t, apply.CameraLocation, cam.Location)
	assert.True(t, s.Settings.FilmTransparent)

	data, err := os.ReadFile(res.JSONPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"name\": \"rig\""))

	var back RigSnapshot
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(res.Snapshot.Bones, back.Bones); diff != "" {
		t.Errorf("bones round trip (-want +got):\n%s", diff)
	}
	var again bytes.Buffer
	require.NoError(t, back.Encode(&again))
	assert.Equal(t, string(data), again.String())
}

func TestSnapshotContents(t *testing.T) {
	s := defaultScene(t)
	rig, _ := s.Object(apply.RigName)
	snap, err := Snapshot(rig)
	require.NoError(t, err)

	assert.Equal(t, "rig", snap.Name)
	assert.Contains(t, snap.CustomProperties, "rig_id")
	assert.NotContains(t, snap.CustomProperties, "_RNA_UI")
	assert.NotContains(t, snap.CustomProperties, "_generator")

	require.Len(t, snap.Bones, rig.Armature.Len())
	for i, b := range rig.Armature.Bones() {
		assert.Equal(t, b.Name, snap.Bones[i].Name)
	}

	root, ok := snap.Bone("root")
	require.True(t, ok)
	assert.Nil(t, root.Parent)
	assert.Equal(t, "/rig/Pose/root/root", root.FullPath)
	assert.Equal(t, []float64{1, 0, 0, 0}, root.Rotation)
	assert.NotNil(t, root.Constraints)

	head, ok := snap.Bone("head")
	require.True(t, ok)
	require.NotNil(t, head.Parent)
	assert.Equal(t, "spine4", *head.Parent)
	assert.Equal(t, scene.ModeXYZ, head.RotationMode)
	assert.Len(t, head.Rotation, 3)
	assert.True(t, strings.HasPrefix(head.FullPath, "/rig/Pose/root/root/"))
	assert.True(t, strings.HasSuffix(head.FullPath, "/spine4/head"))
	assert.InDeltaSlice(t, []float64{0, 0, 1.55}, head.Head[:], 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 1.8}, head.Tail[:], 1e-9)

	arm, ok := snap.Bone("arm.L")
	require.True(t, ok)
	require.NotEmpty(t, arm.Constraints)
	assert.Equal(t, "IK", arm.Constraints[0].Type)
}

func TestBonesEncodeInArmatureOrder(t *testing.T) {
	parent := "a"
	bones := Bones{
		{Name: "z", Rotation: []float64{1, 0, 0, 0}},
		{Name: "a", Parent: nil},
		{Name: "m", Parent: &parent},
	}
	data, err := json.Marshal(bones)
	require.NoError(t, err)

	iz := bytes.Index(data, []byte(`"z":`))
	ia := bytes.Index(data, []byte(`"a":`))
	im := bytes.Index(data, []byte(`"m":`))
	assert.True(t, iz < ia && ia < im, string(data))

	var back Bones
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"z", "a", "m"}, []string{back[0].Name, back[1].Name, back[2].Name})
	assert.Equal(t, "a", *back[2].Parent)

	assert.Error(t, json.Unmarshal([]byte(`[]`), &back))
}

func TestPublicProperties(t *testing.T) {
	got := PublicProperties(scene.Properties{
		"_RNA_UI":  map[string]any{},
		"_private": 1,
		"ik_fk":    0.5,
	})
	assert.Equal(t, scene.Properties{"ik_fk": 0.5}, got)
	assert.NotNil(t, PublicProperties(nil))
}

func TestRunRequiresRigAndCamera(t *testing.T) {
	def := config.DefaultRigDefinition()
	def.Objects = def.Objects[:1]
	noCam, err := scene.Build(def, filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	noCam.SetRenderer(&orderRenderer{})

	_, err = New(noCam, nil, nil).Run(context.Background(), Options{})
	require.ErrorIs(t, err, scene.ErrObjectNotFound)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(noCam.Path), "rig_data.json"))
}

func TestRunHonorsCustomPaths(t *testing.T) {
	s := defaultScene(t)
	out := t.TempDir()
	r := &orderRenderer{}
	s.SetRenderer(r)

	res, err := New(s, nil, nil).Run(context.Background(), Options{
		RenderPath: filepath.Join(out, "t.png"),
		JSONPath:   filepath.Join(out, "rig.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "t.png")}, r.paths)
	assert.FileExists(t, res.JSONPath)
}
