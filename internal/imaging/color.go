package imaging

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = opaque
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains one color in several representations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// SampleColor returns the color of the pixel at (x, y).
//
// Coordinates are 0-based relative to the image bounds' origin. Non-8-bit
// images are scaled down by dropping the low byte of each component.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	px, py := bounds.Min.X+x, bounds.Min.Y+y
	if !(image.Point{X: px, Y: py}.In(bounds)) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, a := img.At(px, py).RGBA()
	return newColorResult(unpremultiply(r, g, b, a)), nil
}

// MeanColor returns the average non-premultiplied color over every pixel.
// It returns nil for an empty image.
func MeanColor(img image.Image) *ColorResult {
	bounds := img.Bounds()
	total := uint64(bounds.Dx()) * uint64(bounds.Dy())
	if total == 0 {
		return nil
	}

	var sr, sg, sb, sa uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := unpremultiply(img.At(x, y).RGBA())
			sr += uint64(c.R)
			sg += uint64(c.G)
			sb += uint64(c.B)
			sa += uint64(c.A)
		}
	}

	return newColorResult(RGBAColor{
		R: uint8((sr + total/2) / total),
		G: uint8((sg + total/2) / total),
		B: uint8((sb + total/2) / total),
		A: uint8((sa + total/2) / total),
	})
}

// ColorFrequency is a quantized color and its share of the image.
type ColorFrequency struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"` // 0-100
}

// DominantColors returns up to count of the most common colors in img.
//
// Components are quantized to multiples of 16 before counting so that
// near-identical shades are grouped together. Results are sorted by
// descending frequency, ties broken by hex value.
func DominantColors(img image.Image, count int) []ColorFrequency {
	bounds := img.Bounds()
	counts := make(map[string]int)
	total := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := unpremultiply(img.At(x, y).RGBA())
			q := RGBAColor{R: c.R / 16 * 16, G: c.G / 16 * 16, B: c.B / 16 * 16}
			counts[toColorful(q).Hex()]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for hex, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        strings.ToUpper(hex),
			Percentage: float64(n) / float64(total) * 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count >= 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

func newColorResult(c RGBAColor) *ColorResult {
	cf := toColorful(c)
	h, s, l := cf.Hsl()
	return &ColorResult{
		Hex:  strings.ToUpper(cf.Hex()),
		RGBA: c,
		HSL:  HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}

func toColorful(c RGBAColor) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// unpremultiply converts the 16-bit premultiplied values returned by
// color.Color.RGBA to 8-bit straight alpha.
func unpremultiply(r, g, b, a uint32) RGBAColor {
	if a == 0 {
		return RGBAColor{}
	}
	if a == 0xffff {
		return RGBAColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
	}
	return RGBAColor{
		R: uint8((r * 0xffff / a) >> 8),
		G: uint8((g * 0xffff / a) >> 8),
		B: uint8((b * 0xffff / a) >> 8),
		A: uint8(a >> 8),
	}
}
