// Package extract turns an image into a pose document and a skeleton overlay.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/detector"
	"github.com/f3rmion/posekit/internal/fsutil"
	"github.com/f3rmion/posekit/internal/imageio"
	"github.com/f3rmion/posekit/internal/orient"
	"github.com/f3rmion/posekit/internal/overlay"
	"github.com/f3rmion/posekit/internal/pose"
)

var (
	// ErrDecode is returned when the input image cannot be read or decoded.
	ErrDecode = errors.New("could not read image")
	// ErrNoPose is returned when the detector finds no landmarks.
	ErrNoPose = errors.New("no pose detected in the image")
	// ErrOmitted is returned in strict mode when any bone or IK target is skipped.
	ErrOmitted = errors.New("pose entries omitted")
)

// SkeletonSuffix replaces the document's extension to name the overlay image.
const SkeletonSuffix = "_skeleton.png"

// Options configure an Extractor.
type Options struct {
	Table  *pose.BoneTable
	Mode   orient.Mode
	Strict bool
	Style  *overlay.Style
}

// Extractor runs detection and writes pose documents.
type Extractor struct {
	detector detector.Detector
	table    *pose.BoneTable
	mode     orient.Mode
	strict   bool
	style    overlay.Style
	logger   *zap.Logger
}

// Result describes one extraction.
type Result struct {
	ImagePath    string
	JSONPath     string
	SkeletonPath string
	Document     *pose.Document
	Landmarks    []pose.Landmark
	Omitted      []Omission
}

// New creates an Extractor. A nil table is rejected; an empty mode selects
// the similarity heuristic.
func New(det detector.Detector, opts Options, logger *zap.Logger) (*Extractor, error) {
	if det == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if opts.Table == nil {
		return nil, fmt.Errorf("bone table is required")
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bone table: %w", err)
	}
	mode, err := orient.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	style := overlay.DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		detector: det,
		table:    opts.Table,
		mode:     mode,
		strict:   opts.Strict,
		style:    style,
		logger:   logger,
	}, nil
}

// Extract detects the pose in imagePath and writes the document to
// outputJSON and the overlay next to it. Nothing is written on failure.
func (e *Extractor) Extract(ctx context.Context, imagePath, outputJSON string) (*Result, error) {
	img, err := imageio.Decode(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrDecode, imagePath, err)
	}

	landmarks, err := e.detector.Detect(ctx, detector.Input{
		Path:  img.Path,
		Data:  img.Data,
		MIME:  img.MIME(),
		Image: img.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("detecting landmarks in %s: %w", imagePath, err)
	}
	if len(landmarks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPose, imagePath)
	}

	doc, omitted := BuildDocument(e.table, e.mode, landmarks)
	for _, o := range omitted {
		e.logger.Debug("pose entry omitted", zap.String("key", o.Key), zap.String("reason", o.Reason))
	}
	if e.strict && len(omitted) > 0 {
		return nil, fmt.Errorf("%w: %d entries, first %s", ErrOmitted, len(omitted), omitted[0])
	}

	var encoded bytes.Buffer
	if err := doc.Encode(&encoded); err != nil {
		return nil, fmt.Errorf("encoding pose document: %w", err)
	}
	skeleton := overlay.Render(landmarks, e.style)

	res := &Result{
		ImagePath:    imagePath,
		JSONPath:     outputJSON,
		SkeletonPath: fsutil.SiblingPath(outputJSON, SkeletonSuffix),
		Document:     doc,
		Landmarks:    landmarks,
		Omitted:      omitted,
	}

	if err := imageio.WritePNG(res.SkeletonPath, skeleton); err != nil {
		return nil, fmt.Errorf("writing skeleton overlay: %w", err)
	}
	if err := fsutil.WriteAtomic(outputJSON, func(w io.Writer) error {
		_, err := w.Write(encoded.Bytes())
		return err
	}); err != nil {
		return nil, fmt.Errorf("writing pose document: %w", err)
	}

	e.logger.Info("pose extracted",
		zap.String("image", imagePath),
		zap.String("document", outputJSON),
		zap.Int("keys", doc.Len()),
		zap.Int("omitted", len(omitted)))
	return res, nil
}
