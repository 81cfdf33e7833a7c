package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/posekit/internal/imageio"
	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "sidecar", cfg.Detector.Kind)
	assert.Equal(t, 30*time.Second, cfg.Detector.Timeout)
	assert.Equal(t, 0.5, cfg.Detector.MinConfidence)
	assert.Equal(t, "similarity", cfg.Extract.Rotation)
	assert.Equal(t, "scene.db", cfg.Scene.Path)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Contains(t, cfg.Batch.Extensions, ".webp")
	assert.False(t, cfg.Apply.Strict)
}

func TestBatchExtensionsMatchDecoder(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.ElementsMatch(t, imageio.Extensions, cfg.Batch.Extensions)
	assert.Contains(t, cfg.Batch.Extensions, ".gif")
}

func TestApplyStrictFromFile(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(writeTempFile(t, "posekit.yaml", "apply:\n  strict: true\n"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Apply.Strict)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad log format", "logger.format", "xml"},
		{"bad detector kind", "detector.kind", "gpu"},
		{"http without endpoint", "detector.kind", "http"},
		{"zero timeout", "detector.timeout", "0s"},
		{"confidence above one", "detector.min_confidence", 1.5},
		{"bad rotation mode", "extract.rotation", "euler"},
		{"no scene path", "scene.path", ""},
		{"no workers", "batch.workers", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	path := writeTempFile(t, "posekit.yaml", `
detector:
  kind: http
  endpoint: http://localhost:9000/landmarks
  timeout: 5s
extract:
  rotation: aligned
  strict: true
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Detector.Kind)
	assert.Equal(t, 5*time.Second, cfg.Detector.Timeout)
	assert.Equal(t, "aligned", cfg.Extract.Rotation)
	assert.True(t, cfg.Extract.Strict)
	assert.Equal(t, ".landmarks.json", cfg.Detector.SidecarSuffix)
}

func TestEmbeddedConfigTemplateLoads(t *testing.T) {
	data, err := Template(ConfigFile)
	require.NoError(t, err)
	path := writeTempFile(t, ConfigFile, string(data))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	_, err = Load(v)
	require.NoError(t, err)
}

func TestDefaultBoneTable(t *testing.T) {
	table := DefaultBoneTable()

	assert.Len(t, table.Bones, 33)
	assert.Len(t, table.IKTargets, 4)
	assert.Equal(t, pose.DefaultLocationRemap(), table.LocationRemap())

	spine1, ok := table.Bone("spine1")
	require.True(t, ok)
	assert.Equal(t, [3]int{23, 11, 12}, spine1.Landmarks)

	foot, ok := table.Bone("foot.R")
	require.True(t, ok)
	assert.Equal(t, [3]int{28, 32, 30}, foot.Landmarks)

	assert.Equal(t, "root", table.Bones[0].Name)
	assert.Equal(t, "leg-fk.R", table.Bones[32].Name)

	assert.Equal(t, []pose.IKTarget{
		{Bone: "foot.L", Landmark: pose.LeftAnkle},
		{Bone: "foot.R", Landmark: pose.RightAnkle},
		{Bone: "hand.L", Landmark: pose.LeftWrist},
		{Bone: "hand.R", Landmark: pose.RightWrist},
	}, table.IKTargets)
}

func TestBoneTableSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bones.yaml")
	table := &pose.BoneTable{
		Bones:     []pose.BoneMapping{{Name: "spine1", Landmarks: [3]int{23, 11, 12}}},
		IKTargets: []pose.IKTarget{{Bone: "hand.L", Landmark: 15}},
	}
	require.NoError(t, SaveBoneTable(path, table))

	loaded, err := LoadBoneTable(path)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)
}

func TestLoadBoneTableErrors(t *testing.T) {
	_, err := LoadBoneTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading bone table")

	bad := writeTempFile(t, "bones.yaml", "bones:\n  - name: spine1\n    landmarks: [1, 2, 99]\n")
	_, err = LoadBoneTable(bad)
	assert.ErrorContains(t, err, "invalid bone table")

	garbage := writeTempFile(t, "bones.yaml", "bones: [")
	_, err = LoadBoneTable(garbage)
	assert.ErrorContains(t, err, "parsing bone table")
}

func TestBoneTableOrDefault(t *testing.T) {
	table, err := BoneTableOrDefault("")
	require.NoError(t, err)
	assert.Len(t, table.Bones, 33)
}

func TestDefaultRigBuildsWithEveryTableBone(t *testing.T) {
	def := DefaultRigDefinition()
	sc, err := scene.Build(def, "scene.db")
	require.NoError(t, err)

	rig, err := sc.Object("rig")
	require.NoError(t, err)
	require.NotNil(t, rig.Armature)
	assert.Equal(t, 33, rig.Armature.Len())

	for _, b := range DefaultBoneTable().Bones {
		_, ok := rig.Armature.Bone(b.Name)
		assert.True(t, ok, "rig is missing %s", b.Name)
	}

	cam, err := sc.Object("camera")
	require.NoError(t, err)
	assert.Equal(t, scene.Vec3{0, -5, 1.7}, cam.Location)
	assert.Equal(t, 512, sc.Settings.ResolutionX)
	assert.True(t, sc.Settings.FilmTransparent)
}

func TestLoadRigDefinition(t *testing.T) {
	path := writeTempFile(t, "rig.yaml", `
objects:
  - name: rig
    type: ARMATURE
    bones:
      - name: root
        head: [0, 0, 0]
        tail: [0, 0, 1]
`)
	def, err := LoadRigDefinition(path)
	require.NoError(t, err)
	require.Len(t, def.Objects, 1)
	assert.Equal(t, scene.Vec3{0, 0, 1}, def.Objects[0].Bones[0].Tail)

	empty := writeTempFile(t, "rig.yaml", "camera: camera\n")
	_, err = LoadRigDefinition(empty)
	assert.ErrorContains(t, err, "no objects")
}

func TestWriteTemplates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")

	written, err := WriteTemplates(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	_, err = LoadBoneTable(filepath.Join(dir, BonesFile))
	require.NoError(t, err)
	_, err = LoadRigDefinition(filepath.Join(dir, RigFile))
	require.NoError(t, err)

	_, err = WriteTemplates(dir, false)
	assert.ErrorContains(t, err, "already exists")

	_, err = WriteTemplates(dir, true)
	assert.NoError(t, err)
}
