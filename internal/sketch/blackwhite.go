package sketch

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// BlackWhiteVariant selects how much work the black & white filter does.
type BlackWhiteVariant string

const (
	// VariantEdges keeps dark outlines from an adaptive threshold on top of a
	// bilaterally smoothed grayscale image.
	VariantEdges BlackWhiteVariant = "edges"
	// VariantGrayscale is a plain luma conversion.
	VariantGrayscale BlackWhiteVariant = "grayscale"
)

// BlackWhiteParams tunes the black & white sketch filter.
type BlackWhiteParams struct {
	Variant BlackWhiteVariant
	// MedianKernel is the odd window width of the denoising median blur.
	MedianKernel int
	// BlockSize is the odd neighbourhood width for the adaptive threshold.
	BlockSize int
	// C is subtracted from the neighbourhood mean to form the threshold.
	C float64
	// Diameter is the bilateral filter window width.
	Diameter int
	// SigmaColor and SigmaSpace are the bilateral range (0..255) and spatial (px) sigmas.
	SigmaColor float64
	SigmaSpace float64
}

// DefaultBlackWhiteParams returns the outlined variant with its usual tuning.
func DefaultBlackWhiteParams() BlackWhiteParams {
	return BlackWhiteParams{
		Variant:      VariantEdges,
		MedianKernel: 5,
		BlockSize:    9,
		C:            9,
		Diameter:     9,
		SigmaColor:   75,
		SigmaSpace:   75,
	}
}

// Validate checks the parameters are usable.
func (p BlackWhiteParams) Validate() error {
	switch p.Variant {
	case VariantGrayscale:
		return nil
	case VariantEdges:
	default:
		return fmt.Errorf("unknown variant %q (must be %q or %q)", p.Variant, VariantEdges, VariantGrayscale)
	}
	if p.MedianKernel <= 0 || p.MedianKernel%2 == 0 {
		return fmt.Errorf("median kernel must be a positive odd number, got %d", p.MedianKernel)
	}
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return fmt.Errorf("block size must be an odd number >= 3, got %d", p.BlockSize)
	}
	if p.Diameter <= 0 {
		return fmt.Errorf("diameter must be positive, got %d", p.Diameter)
	}
	if p.SigmaColor <= 0 || p.SigmaSpace <= 0 {
		return fmt.Errorf("bilateral sigmas must be positive, got color=%f space=%f", p.SigmaColor, p.SigmaSpace)
	}
	return nil
}

// BlackAndWhite converts img to a grayscale sketch. With VariantEdges, pixels
// darker than their neighbourhood mean by more than C are forced to black and
// everything else takes the edge-preserving smoothed tone.
func BlackAndWhite(img image.Image, params BlackWhiteParams) (*image.Gray, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid black and white parameters: %w", err)
	}

	gray, err := ToGray(img)
	if err != nil {
		return nil, err
	}
	if params.Variant == VariantGrayscale {
		return gray, nil
	}

	slog.Debug("BlackAndWhite: applying filter",
		"width", gray.Rect.Dx(),
		"height", gray.Rect.Dy(),
		"median_kernel", params.MedianKernel,
		"block_size", params.BlockSize,
		"c", params.C)

	denoised := gray
	if params.MedianKernel > 1 {
		denoised = grayFromRGBA(effect.Median(gray, float64(params.MedianKernel/2)))
	}
	mask := adaptiveMeanThreshold(denoised, params.BlockSize, params.C)
	smooth := bilateralFilter(denoised, params.Diameter, params.SigmaColor, params.SigmaSpace)

	for i, m := range mask.Pix {
		if m == 0 {
			smooth.Pix[i] = 0
		}
	}
	return smooth, nil
}

// adaptiveMeanThreshold marks pixels brighter than mean(block) - c with 255
// and the rest with 0.
func adaptiveMeanThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	mean := boxMean(src, blockSize)
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		if float64(v)-float64(mean.Pix[i]) > -c {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// boxMean averages each blockSize x blockSize window, repeating edge pixels
// past the border. The 0.5 bias turns the convolution's truncation into
// rounding.
func boxMean(src *image.Gray, blockSize int) *image.Gray {
	k := convolution.NewKernel(blockSize, blockSize)
	for i := range k.Matrix {
		k.Matrix[i] = 1
	}
	return grayFromRGBA(convolution.Convolve(src, k.Normalized(), &convolution.Options{Bias: 0.5}))
}

// bilateralFilter smooths src over a circular window of the given diameter,
// weighting neighbours by both distance and tone difference so hard edges
// survive.
func bilateralFilter(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	type tap struct {
		dx, dy int
		weight float64
	}

	radius := diameter / 2
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := dx*dx + dy*dy
			if r2 > radius*radius {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(-float64(r2) / (2 * sigmaSpace * sigmaSpace))})
		}
	}

	var colorWeight [256]float64
	for d := range colorWeight {
		colorWeight[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			center := int(src.Pix[y*src.Stride+x])
			var sum, wsum float64
			for _, t := range taps {
				sx := clampInt(x+t.dx, 0, w-1)
				sy := clampInt(y+t.dy, 0, h-1)
				v := int(src.Pix[sy*src.Stride+sx])
				d := v - center
				if d < 0 {
					d = -d
				}
				weight := t.weight * colorWeight[d]
				sum += float64(v) * weight
				wsum += weight
			}
			dst.Pix[y*dst.Stride+x] = clampUint8(math.Round(sum / wsum))
		}
	})
	return dst
}
