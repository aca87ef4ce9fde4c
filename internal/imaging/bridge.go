package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// BytesPerPixel is the size of one canonical RGBA8 pixel.
const BytesPerPixel = 4

// ErrMalformedBuffer is returned when a canonical buffer is empty or its
// length does not match its dimensions.
var ErrMalformedBuffer = errors.New("malformed canonical buffer")

// CanonicalLen returns width*height*4 and reports whether it fits in an int.
// Zero dimensions yield (0, true).
func CanonicalLen(width, height uint32) (int, bool) {
	pixels := uint64(width) * uint64(height)
	if pixels > uint64(maxInt)/BytesPerPixel {
		return 0, false
	}
	return int(pixels * BytesPerPixel), true
}

const maxInt = int(^uint(0) >> 1)

// FromCanonical wraps buf as an NRGBA image of the given size.
//
// The returned image shares memory with buf. Callers must not let it outlive
// the buffer's owner, and operations applied to it must not write into it.
func FromCanonical(buf []byte, width, height uint32) (*image.NRGBA, error) {
	if len(buf) == 0 || width == 0 || height == 0 {
		return nil, ErrMalformedBuffer
	}
	n, ok := CanonicalLen(width, height)
	if !ok || n != len(buf) {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrMalformedBuffer, len(buf), width, height)
	}

	return &image.NRGBA{
		Pix:    buf[:n:n],
		Stride: int(width) * BytesPerPixel,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}, nil
}

// ToCanonical converts img to a tight-stride NRGBA anchored at the origin.
//
// When img already has that shape it is returned as-is; otherwise the pixels
// are converted into a new image. Single-channel images expand to R=G=B with
// an opaque alpha.
func ToCanonical(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && isTight(n) {
		return n
	}
	return imaging.Clone(img)
}

func isTight(img *image.NRGBA) bool {
	r := img.Rect
	return r.Min == image.Point{} &&
		img.Stride == r.Dx()*BytesPerPixel &&
		len(img.Pix) == r.Dx()*r.Dy()*BytesPerPixel
}

// Dimensions returns img's size as unsigned pixel counts.
func Dimensions(img image.Image) (width, height uint32) {
	b := img.Bounds()
	return uint32(b.Dx()), uint32(b.Dy())
}
