package imaging

import (
	"image"
	"math"
)

// diffThreshold is the mean per-channel difference above which a pixel
// counts as different.
const diffThreshold = 10

// CompareResult summarizes how far apart two images are.
type CompareResult struct {
	Identical        bool    `json:"identical"`
	SameSize         bool    `json:"same_size"`
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"`
	MaxChannelDiff   int     `json:"max_channel_diff"`
}

// Compare compares a and b pixel by pixel over their overlapping area,
// including alpha. Identical is true only for equal sizes and equal pixels.
func Compare(a, b image.Image) *CompareResult {
	na, nb := ToCanonical(a), ToCanonical(b)
	wa, ha := na.Rect.Dx(), na.Rect.Dy()
	wb, hb := nb.Rect.Dx(), nb.Rect.Dy()

	res := &CompareResult{SameSize: wa == wb && ha == hb}

	w, h := min(wa, wb), min(ha, hb)
	res.TotalPixels = w * h
	if res.TotalPixels == 0 {
		res.Identical = res.SameSize
		if res.Identical {
			res.SimilarityScore = 1
		}
		return res
	}

	var total float64
	for y := 0; y < h; y++ {
		rowA := na.Pix[y*na.Stride : y*na.Stride+w*BytesPerPixel]
		rowB := nb.Pix[y*nb.Stride : y*nb.Stride+w*BytesPerPixel]
		for i := 0; i < len(rowA); i += BytesPerPixel {
			sum := 0
			for c := 0; c < BytesPerPixel; c++ {
				d := absDiff(rowA[i+c], rowB[i+c])
				sum += d
				res.MaxChannelDiff = max(res.MaxChannelDiff, d)
			}
			diff := float64(sum) / BytesPerPixel
			total += diff
			if diff > diffThreshold {
				res.PixelsDifferent++
			}
		}
	}

	res.Identical = res.SameSize && res.MaxChannelDiff == 0
	res.SimilarityScore = math.Round((1-float64(res.PixelsDifferent)/float64(res.TotalPixels))*1000) / 1000
	res.AverageColorDiff = math.Round(total/float64(res.TotalPixels)*100) / 100
	return res
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
