package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f3rmion/posekit/internal/imageio"
)

// BatchOptions configure Batch.
type BatchOptions struct {
	// OutDir receives <name>.json and <name>_skeleton.png per image.
	// Empty writes next to the inputs.
	OutDir     string
	Workers    int
	Extensions []string
	// KeepGoing records per-image failures instead of cancelling the run.
	KeepGoing bool
}

// BatchItem is the outcome for one image. Exactly one of Result and Err is set.
type BatchItem struct {
	Image  string
	Result *Result
	Err    error
}

// Images lists the image files directly inside dir, sorted by name.
func Images(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = imageio.Extensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if imageio.HasImageExt(e.Name(), exts) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// OutputPath maps an input image to its document path inside outDir.
func OutputPath(image, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(image)
	}
	base := filepath.Base(image)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// Batch extracts every image in dir with a bounded worker pool. Items come
// back in input order. Without KeepGoing the first failure cancels the rest
// and is returned.
func (e *Extractor) Batch(ctx context.Context, dir string, opts BatchOptions) ([]BatchItem, error) {
	images, err := Images(dir, opts.Extensions)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(images))
	for _, img := range images {
		out := OutputPath(img, opts.OutDir)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", filepath.Base(prev), filepath.Base(img), out)
		}
		seen[out] = img
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	items := make([]BatchItem, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, img := range images {
		items[i].Image = img
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			res, err := e.Extract(gctx, img, OutputPath(img, opts.OutDir))
			if err != nil {
				items[i].Err = err
				if opts.KeepGoing {
					e.logger.Warn("extraction failed", zap.String("image", img), zap.Error(err))
					return nil
				}
				return err
			}
			items[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	e.logger.Info("batch complete", zap.String("dir", dir), zap.Int("images", len(images)))
	return items, nil
}
