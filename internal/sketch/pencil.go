package sketch

import (
	"fmt"
	"image"
	"log/slog"
	"math"
)

// PencilParams tunes the pencil sketch filter.
type PencilParams struct {
	// KernelSize is the odd Gaussian kernel width in pixels.
	KernelSize int
	// Sigma is the Gaussian standard deviation; 0 derives it from KernelSize.
	Sigma float64
	// Gamma scales the dodged result; values below 1 give a softer, greyer sketch.
	Gamma float64
}

// DefaultPencilParams returns a 21px kernel with derived sigma and no gamma.
func DefaultPencilParams() PencilParams {
	return PencilParams{
		KernelSize: 21,
		Sigma:      0,
		Gamma:      1.0,
	}
}

// Validate checks the parameters are usable.
func (p PencilParams) Validate() error {
	if p.KernelSize <= 0 || p.KernelSize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d", p.KernelSize)
	}
	if p.Sigma < 0 {
		return fmt.Errorf("sigma must not be negative, got %f", p.Sigma)
	}
	if p.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", p.Gamma)
	}
	return nil
}

// Pencil turns img into a pencil drawing: the grayscale image is color-dodged
// with a blurred copy of its own negative, which flattens even areas to white
// and keeps strokes where the brightness changes.
func Pencil(img image.Image, params PencilParams) (*image.Gray, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pencil parameters: %w", err)
	}

	gray, err := ToGray(img)
	if err != nil {
		return nil, err
	}

	slog.Debug("Pencil: applying filter",
		"width", gray.Rect.Dx(),
		"height", gray.Rect.Dy(),
		"kernel_size", params.KernelSize,
		"sigma", params.Sigma,
		"gamma", params.Gamma)

	blurred := gaussianBlur(invert(gray), params.KernelSize, params.Sigma)
	return dodge(gray, invert(blurred), params.Gamma), nil
}

// dodge computes base*256/blend per pixel, saturating at 255. A zero blend
// sample yields 0.
func dodge(base, blend *image.Gray, gamma float64) *image.Gray {
	dst := image.NewGray(base.Rect)
	for i, b := range base.Pix {
		d := blend.Pix[i]
		if d == 0 {
			continue
		}
		v := math.Min(math.Round(float64(b)*256/float64(d)), 255)
		if gamma != 1 {
			v = math.Floor(v * gamma)
		}
		dst.Pix[i] = clampUint8(v)
	}
	return dst
}
