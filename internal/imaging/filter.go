package imaging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Filter is the small integer code a caller uses to pick a resampling kernel.
type Filter uint32

const (
	FilterNearest    Filter = 0
	FilterTriangle   Filter = 1
	FilterCatmullRom Filter = 2
	FilterGaussian   Filter = 3
	FilterLanczos3   Filter = 4
)

// Normalize maps unrecognized codes to FilterNearest.
func (f Filter) Normalize() Filter {
	if f > FilterLanczos3 {
		return FilterNearest
	}
	return f
}

// String returns the kernel's display name.
func (f Filter) String() string {
	switch f.Normalize() {
	case FilterTriangle:
		return "bilinear"
	case FilterCatmullRom:
		return "bicubic"
	case FilterGaussian:
		return "gaussian"
	case FilterLanczos3:
		return "lanczos3"
	default:
		return "nearest"
	}
}

// ParseFilter accepts a numeric code or a kernel name. Numeric codes are
// taken as-is, so an out-of-range number still resizes with nearest.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Filter(n), nil
	}
	switch s {
	case "nearest", "nearestneighbor", "box":
		return FilterNearest, nil
	case "bilinear", "linear", "triangle":
		return FilterTriangle, nil
	case "bicubic", "catmullrom", "catmull-rom", "cubic":
		return FilterCatmullRom, nil
	case "gaussian":
		return FilterGaussian, nil
	case "lanczos3", "lanczos":
		return FilterLanczos3, nil
	}
	return FilterNearest, fmt.Errorf("unknown filter %q", s)
}

// resampleFilter returns the imaging kernel for f. Unknown codes resample
// with nearest-neighbour rather than failing.
func (f Filter) resampleFilter() imaging.ResampleFilter {
	switch f.Normalize() {
	case FilterTriangle:
		return imaging.Linear
	case FilterCatmullRom:
		return imaging.CatmullRom
	case FilterGaussian:
		return imaging.Gaussian
	case FilterLanczos3:
		return imaging.Lanczos
	default:
		return imaging.NearestNeighbor
	}
}
