package sketch

import (
	"image"
	"math"
)

// gaussianKernel returns a normalized 1D Gaussian kernel with size taps.
// A non-positive sigma is derived from the size as 0.3*((size-1)*0.5-1)+0.8,
// which keeps results in line with OpenCV's GaussianBlur for the same arguments.
func gaussianKernel(size int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	half := size / 2
	twoSigmaSq := 2 * sigma * sigma

	kernel := make([]float64, size)
	sum := 0.0
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / twoSigmaSq)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur runs a separable two-pass Gaussian over src. Samples past the
// border repeat the edge pixel.
func gaussianBlur(src *image.Gray, size int, sigma float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(size, sigma)
	half := len(kernel) / 2

	// Horizontal pass into a float buffer to avoid rounding twice.
	tmp := make([]float64, w*h)
	parallelFor(h, func(y int) {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		out := tmp[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += float64(row[clampInt(x+k-half, 0, w-1)]) * weight
			}
			out[x] = acc
		}
	})

	dst := image.NewGray(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += tmp[clampInt(y+k-half, 0, h-1)*w+x] * weight
			}
			out[x] = clampUint8(math.Round(acc))
		}
	})
	return dst
}
