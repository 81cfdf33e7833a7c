package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/pose"
)

// Sidecar reads landmarks precomputed by an external model run, stored
// next to the image as <image><suffix>.
type Sidecar struct {
	suffix string
	logger *zap.Logger
}

// NewSidecar creates a sidecar detector. An empty suffix uses ".landmarks.json".
func NewSidecar(suffix string, logger *zap.Logger) *Sidecar {
	if suffix == "" {
		suffix = DefaultConfig().SidecarSuffix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sidecar{suffix: suffix, logger: logger}
}

// PathFor returns the sidecar file consulted for an image.
func (s *Sidecar) PathFor(imagePath string) string {
	return imagePath + s.suffix
}

// Detect loads the sidecar for in.Path. A missing sidecar means no pose.
func (s *Sidecar) Detect(ctx context.Context, in Input) ([]pose.Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.PathFor(in.Path)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no landmark sidecar", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading landmark sidecar: %w", err)
	}

	landmarks, err := ParseLandmarks(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s.logger.Debug("loaded landmarks", zap.String("path", path), zap.Int("count", len(landmarks)))
	return landmarks, nil
}

// Close is a no-op.
func (s *Sidecar) Close() error { return nil }

// ParseLandmarks accepts three layouts:
//
//	[{"x":..,"y":..,"z":..,"visibility":..}, ...]
//	{"landmarks": [ ... ]}
//	{"left_wrist": {"x":..}, "nose": {...}, ...}
//
// Named landmarks absent from a map are returned with zero visibility.
func ParseLandmarks(data []byte) ([]pose.Landmark, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty landmark data")
	}

	switch trimmed[0] {
	case '[':
		return decodeList(trimmed)
	case '{':
	default:
		return nil, fmt.Errorf("landmark data must be a JSON array or object")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("decoding landmarks: %w", err)
	}
	if raw, ok := obj["landmarks"]; ok {
		return decodeList(raw)
	}
	if len(obj) == 0 {
		return nil, nil
	}

	landmarks := make([]pose.Landmark, pose.LandmarkCount)
	for name, raw := range obj {
		idx, ok := pose.LandmarkIndex(name)
		if !ok {
			return nil, fmt.Errorf("unknown landmark %q", name)
		}
		if err := json.Unmarshal(raw, &landmarks[idx]); err != nil {
			return nil, fmt.Errorf("decoding landmark %s: %w", name, err)
		}
	}
	return landmarks, nil
}

func decodeList(raw []byte) ([]pose.Landmark, error) {
	var landmarks []pose.Landmark
	if err := json.Unmarshal(raw, &landmarks); err != nil {
		return nil, fmt.Errorf("decoding landmarks: %w", err)
	}
	if len(landmarks) > pose.LandmarkCount {
		return nil, fmt.Errorf("got %d landmarks, expected at most %d", len(landmarks), pose.LandmarkCount)
	}
	return landmarks, nil
}
