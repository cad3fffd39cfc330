package sketch

import (
	"fmt"
	"image"
	"image/color"
)

// Channels reports how many samples per pixel the image's color model carries:
// 1 for grayscale, 3 for opaque color, 4 for color with alpha. Alpha-only
// models report 0 because they carry no luminance.
func Channels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.AlphaModel, color.Alpha16Model:
		return 0
	case color.YCbCrModel, color.CMYKModel:
		return 3
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return 4
	}
	if p, ok := img.ColorModel().(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	return 4
}

// ToGray converts img to an 8-bit single channel image anchored at the origin.
// Translucent pixels are composited over white before the Rec. 601 luma
// conversion, so transparent areas come out white instead of black.
func ToGray(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImageFormat)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrInvalidImageFormat)
	}
	if Channels(img) == 0 {
		return nil, fmt.Errorf("%w: alpha-only image has no luminance", ErrInvalidImageFormat)
	}

	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[srcOff:srcOff+w])
		}
		return dst, nil
	}

	parallelFor(h, func(y int) {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			bg := 0xffff - a
			r += bg
			g += bg
			b += bg
			// Same weights as color.GrayModel: 0.299, 0.587, 0.114.
			row[x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
		}
	})
	return dst, nil
}

func invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// grayFromRGBA takes the red channel of an RGBA produced from a gray source,
// where all three color channels are equal.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = src.Pix[srcOff+x*4]
		}
	}
	return dst
}
