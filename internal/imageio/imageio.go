// Package imageio decodes input photos and encodes rendered stills.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/f3rmion/posekit/internal/fsutil"
)

// ErrUnsupported is returned when the bytes are not a known image format.
var ErrUnsupported = errors.New("unsupported image format")

// Decoded is an input image with the bytes it was decoded from.
type Decoded struct {
	Path   string
	Data   []byte
	Format string
	Image  image.Image
}

// MIME returns the media type of the source bytes.
func (d *Decoded) MIME() string {
	return "image/" + d.Format
}

// Decode reads and decodes the image at path.
func Decode(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return &Decoded{Path: path, Data: data, Format: format, Image: img}, nil
}

// Extensions lists the file extensions Decode understands.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// HasImageExt reports whether path ends in one of exts (case-insensitive).
func HasImageExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// WritePNG encodes img atomically to path.
func WritePNG(path string, img image.Image) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
		return nil
	})
}
