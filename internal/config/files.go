package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// Template file names written by `posekit init`.
const (
	ConfigFile = "posekit.yaml"
	BonesFile  = "bones.yaml"
	RigFile    = "rig.yaml"
)

// Templates lists the files `posekit init` writes, in order.
var Templates = []string{ConfigFile, BonesFile, RigFile}

// Template returns the built-in contents of a template file.
func Template(name string) ([]byte, error) {
	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("unknown template: %s", name)
	}
	return data, nil
}

// LoadBoneTable loads and validates a bone table from a YAML file.
func LoadBoneTable(path string) (*pose.BoneTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bone table: %w", err)
	}
	table, err := parseBoneTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// DefaultBoneTable returns the built-in bone table.
func DefaultBoneTable() *pose.BoneTable {
	data, err := Template(BonesFile)
	if err != nil {
		panic(err)
	}
	table, err := parseBoneTable(data)
	if err != nil {
		panic(fmt.Sprintf("built-in bone table: %v", err))
	}
	return table
}

// BoneTableOrDefault loads path, or returns the built-in table when path is empty.
func BoneTableOrDefault(path string) (*pose.BoneTable, error) {
	if path == "" {
		return DefaultBoneTable(), nil
	}
	return LoadBoneTable(path)
}

func parseBoneTable(data []byte) (*pose.BoneTable, error) {
	var table pose.BoneTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing bone table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bone table: %w", err)
	}
	return &table, nil
}

// SaveBoneTable writes a bone table to a YAML file.
func SaveBoneTable(path string, table *pose.BoneTable) error {
	out, err := yaml.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling bone table: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing bone table: %w", err)
	}
	return nil
}

// LoadRigDefinition loads a rig definition from a YAML file.
func LoadRigDefinition(path string) (*scene.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rig definition: %w", err)
	}
	def, err := parseRigDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// DefaultRigDefinition returns the built-in rig and camera.
func DefaultRigDefinition() *scene.Definition {
	data, err := Template(RigFile)
	if err != nil {
		panic(err)
	}
	def, err := parseRigDefinition(data)
	if err != nil {
		panic(fmt.Sprintf("built-in rig definition: %v", err))
	}
	return def
}

// RigDefinitionOrDefault loads path, or returns the built-in rig when path is empty.
func RigDefinitionOrDefault(path string) (*scene.Definition, error) {
	if path == "" {
		return DefaultRigDefinition(), nil
	}
	return LoadRigDefinition(path)
}

func parseRigDefinition(data []byte) (*scene.Definition, error) {
	var def scene.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing rig definition: %w", err)
	}
	if len(def.Objects) == 0 {
		return nil, fmt.Errorf("rig definition has no objects")
	}
	return &def, nil
}

// WriteTemplates writes the built-in templates into dir. Existing files are
// kept unless force is set. It returns the paths written.
func WriteTemplates(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	var written []string
	for _, name := range Templates {
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil && !force {
			return written, fmt.Errorf("%s already exists\nUse --force to overwrite", dest)
		}
		data, err := Template(name)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, dest)
	}
	return written, nil
}
