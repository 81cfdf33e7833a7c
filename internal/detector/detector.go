// Package detector turns an image into body landmarks. The pretrained model
// itself lives outside this repository; implementations here reach it
// through precomputed sidecar files or an HTTP inference endpoint.
package detector

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/pose"
)

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect returns the landmarks found in the input, indexed by the body
	// topology. Returns an empty slice if no pose is detected.
	Detect(ctx context.Context, in Input) ([]pose.Landmark, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Input is one image handed to a detector.
type Input struct {
	Path  string
	Data  []byte
	MIME  string
	Image image.Image
}

// Kinds of detector.
const (
	KindSidecar = "sidecar"
	KindHTTP    = "http"
)

// Config holds configuration options for landmark detection.
type Config struct {
	Kind string

	// SidecarSuffix is appended to the image path to find precomputed landmarks.
	SidecarSuffix string

	// Endpoint, Token and Timeout configure the HTTP detector.
	Endpoint string
	Token    string
	Timeout  time.Duration

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0),
	// forwarded to the inference service.
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Kind:          KindSidecar,
		SidecarSuffix: ".landmarks.json",
		Timeout:       30 * time.Second,
		MinConfidence: 0.5,
	}
}

// New creates the detector selected by cfg.Kind.
func New(cfg Config, logger *zap.Logger) (Detector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Kind {
	case KindSidecar, "":
		return NewSidecar(cfg.SidecarSuffix, logger), nil
	case KindHTTP:
		return NewHTTP(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
	}
}
