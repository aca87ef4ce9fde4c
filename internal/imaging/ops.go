package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ErrUnknownOp is returned by Apply for a nil or foreign Op.
var ErrUnknownOp = errors.New("unknown image operation")

// Op is one pixel operation together with its parameters.
//
// The set of operations is closed: only the types declared in this file
// implement Op, and Apply handles every one of them.
type Op interface {
	// Name is the operation's stable identifier, used in logs and recipes.
	Name() string
	isOp()
}

// Rotate90 rotates the image 90 degrees clockwise.
type Rotate90 struct{}

// Rotate180 rotates the image 180 degrees.
type Rotate180 struct{}

// Rotate270 rotates the image 270 degrees clockwise (90 counter-clockwise).
type Rotate270 struct{}

// FlipHorizontal mirrors the image left to right.
type FlipHorizontal struct{}

// FlipVertical mirrors the image top to bottom.
type FlipVertical struct{}

// Resize scales the image to fit inside Width x Height, preserving the
// aspect ratio. Each output side is at least one pixel.
type Resize struct {
	Width  uint32
	Height uint32
	Filter Filter
}

// Brightness adds Delta to the R, G and B channels, saturating at 0 and 255.
type Brightness struct {
	Delta int32
}

// Contrast scales channel distance from mid-grey by ((100+Amount)/100)^2.
type Contrast struct {
	Amount float32
}

// Blur applies a Gaussian blur. Sigma <= 0 leaves the pixels unchanged.
type Blur struct {
	Sigma float32
}

// Grayscale converts the image to single-channel luma. Alpha is dropped:
// every pixel of the result is opaque.
type Grayscale struct{}

// Invert inverts the R, G and B channels, keeping alpha.
type Invert struct{}

func (Rotate90) Name() string       { return "rotate90" }
func (Rotate180) Name() string      { return "rotate180" }
func (Rotate270) Name() string      { return "rotate270" }
func (FlipHorizontal) Name() string { return "flip_horizontal" }
func (FlipVertical) Name() string   { return "flip_vertical" }
func (Resize) Name() string         { return "resize" }
func (Brightness) Name() string     { return "brightness" }
func (Contrast) Name() string       { return "contrast" }
func (Blur) Name() string           { return "blur" }
func (Grayscale) Name() string      { return "grayscale" }
func (Invert) Name() string         { return "invert" }

func (Rotate90) isOp()       {}
func (Rotate180) isOp()      {}
func (Rotate270) isOp()      {}
func (FlipHorizontal) isOp() {}
func (FlipVertical) isOp()   {}
func (Resize) isOp()         {}
func (Brightness) isOp()     {}
func (Contrast) isOp()       {}
func (Blur) isOp()           {}
func (Grayscale) isOp()      {}
func (Invert) isOp()         {}

// Apply runs op on img and returns a new image.
//
// img is only read. The result may be a different concrete type than the
// input (Grayscale yields *image.Gray); pass it through ToCanonical to get
// back to RGBA8.
func Apply(img image.Image, op Op) (image.Image, error) {
	switch o := op.(type) {
	case Rotate90:
		// imaging rotates counter-clockwise.
		return imaging.Rotate270(img), nil
	case Rotate180:
		return imaging.Rotate180(img), nil
	case Rotate270:
		return imaging.Rotate90(img), nil
	case FlipHorizontal:
		return imaging.FlipH(img), nil
	case FlipVertical:
		return imaging.FlipV(img), nil
	case Resize:
		return resize(img, o), nil
	case Brightness:
		return brighten(img, o.Delta), nil
	case Contrast:
		return adjustContrast(img, o.Amount), nil
	case Blur:
		return imaging.Blur(img, float64(o.Sigma)), nil
	case Grayscale:
		return grayscale(img), nil
	case Invert:
		return imaging.Invert(img), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOp, op)
	}
}

// OutputSize returns the dimensions Apply(img, op) produces for an image of
// width x height, without doing the work. Unknown ops keep the input size.
func OutputSize(width, height uint32, op Op) (uint32, uint32) {
	switch o := op.(type) {
	case Rotate90, Rotate270:
		return height, width
	case Resize:
		if width == 0 || height == 0 {
			return width, height
		}
		return fitDimensions(width, height, o.Width, o.Height)
	}
	return width, height
}

func resize(img image.Image, o Resize) *image.NRGBA {
	b := img.Bounds()
	w, h := fitDimensions(uint32(b.Dx()), uint32(b.Dy()), o.Width, o.Height)
	return imaging.Resize(img, int(w), int(h), o.Filter.resampleFilter())
}

// fitDimensions returns the largest size with the source aspect ratio that
// fits in dstW x dstH, with each side clamped to at least 1.
func fitDimensions(srcW, srcH, dstW, dstH uint32) (uint32, uint32) {
	wRatio := float64(dstW) / float64(srcW)
	hRatio := float64(dstH) / float64(srcH)
	ratio := math.Min(wRatio, hRatio)

	w := math.Max(math.Round(float64(srcW)*ratio), 1)
	h := math.Max(math.Round(float64(srcH)*ratio), 1)

	if w > math.MaxUint32 {
		ratio = math.MaxUint32 / float64(srcW)
		return math.MaxUint32, uint32(math.Max(math.Round(float64(srcH)*ratio), 1))
	}
	if h > math.MaxUint32 {
		ratio = math.MaxUint32 / float64(srcH)
		return uint32(math.Max(math.Round(float64(srcW)*ratio), 1)), math.MaxUint32
	}
	return uint32(w), uint32(h)
}

func brighten(img image.Image, delta int32) *image.NRGBA {
	d := int64(delta)
	shift := func(v uint8) uint8 {
		n := int64(v) + d
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return uint8(n)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: c.A}
	})
}

func adjustContrast(img image.Image, amount float32) *image.NRGBA {
	const maxChannel = float32(255)
	percent := (100 + amount) / 100
	percent *= percent

	scale := func(v uint8) uint8 {
		d := ((float32(v)/maxChannel-0.5)*percent + 0.5) * maxChannel
		switch {
		case math.IsNaN(float64(d)), d < 0:
			return 0
		case d > maxChannel:
			return 255
		}
		return uint8(d)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

// grayscale computes luma on the straight colour channels, ignoring alpha,
// and keeps only that channel.
func grayscale(img image.Image) *image.Gray {
	opaque := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = 0xff
		return c
	})
	lum := effect.Grayscale(opaque)

	b := lum.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride:]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*BytesPerPixel]
		}
	}
	return out
}
