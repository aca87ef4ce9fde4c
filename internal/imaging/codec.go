package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/valyala/bytebufferpool"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultJPEGQuality is used by EncodeFile when no quality is given.
const DefaultJPEGQuality = 95

// ErrUnsupportedFormat is returned when a file's contents match no registered
// decoder, or when a path's extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode reads and decodes the image file at path.
//
// EXIF orientation in JPEG files is applied so the returned pixels are
// upright. Supported inputs are PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// # Errors
//
//   - wraps ErrUnsupportedFormat if no decoder recognizes the file
//   - wraps the underlying error if the file cannot be opened or is corrupt
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FormatFor returns the encoder format implied by path's extension.
// Extensions without an encoder, including ".webp", wrap ErrUnsupportedFormat.
func FormatFor(path string) (imaging.Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return f, nil
}

// EncodeFile encodes img in the format implied by path and writes it out.
//
// The image is encoded into a pooled buffer first so that an encoder failure
// never leaves a truncated file behind. jpegQuality <= 0 selects
// DefaultJPEGQuality; it is ignored for other formats.
func EncodeFile(path string, img image.Image, jpegQuality int) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if jpegQuality <= 0 {
		jpegQuality = DefaultJPEGQuality
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := imaging.Encode(buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := os.WriteFile(path, buf.B, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is derived from the extension: "png", "jpeg", "gif", "bmp",
	// "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// HasAlpha reports whether the decoded color model carries alpha.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Inspect decodes the file at path and reports its metadata.
func Inspect(path string) (*ImageInfo, image.Image, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        formatName(path),
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, img, nil
}

func formatName(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}
