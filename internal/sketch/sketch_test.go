package sketch

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// squareImage draws a size x size square of the given gray level centered on
// a white canvas.
func squareImage(canvas, size int, level uint8) *image.RGBA {
	img := solidImage(canvas, canvas, color.White)
	start := (canvas - size) / 2
	for y := start; y < start+size; y++ {
		for x := start; x < start+size; x++ {
			img.Set(x, y, color.RGBA{level, level, level, 255})
		}
	}
	return img
}

// gradientImage is a horizontal ramp with a dark block in the middle.
func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(40 + (x*175)/width)
			if x > width/4 && x < 3*width/4 && y > height/4 && y < 3*height/4 {
				v = 60
			}
			img.Set(x, y, color.RGBA{v, v / 2, 255 - v, 255})
		}
	}
	return img
}

func shapeTestImages() map[string]image.Image {
	rect := image.Rect(0, 0, 37, 23)

	nrgba := image.NewNRGBA(rect)
	for i := range nrgba.Pix {
		nrgba.Pix[i] = uint8(i * 7)
	}

	ycbcr := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
	for i := range ycbcr.Y {
		ycbcr.Y[i] = uint8(i)
	}
	for i := range ycbcr.Cb {
		ycbcr.Cb[i] = 128
		ycbcr.Cr[i] = 128
	}

	paletted := image.NewPaletted(rect, color.Palette{color.Black, color.White})
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % 2)
	}

	offset := gradientImage(60, 40).SubImage(image.Rect(10, 5, 47, 28))

	return map[string]image.Image{
		"RGBA":     gradientImage(37, 23),
		"NRGBA":    nrgba,
		"YCbCr":    ycbcr,
		"Paletted": paletted,
		"SubImage": offset,
		"Gray":     image.NewGray(rect),
	}
}

func TestPencil_OutputShape(t *testing.T) {
	for name, img := range shapeTestImages() {
		t.Run(name, func(t *testing.T) {
			out, err := Pencil(img, DefaultPencilParams())
			if err != nil {
				t.Fatalf("Pencil failed: %v", err)
			}
			if out.Bounds().Dx() != img.Bounds().Dx() || out.Bounds().Dy() != img.Bounds().Dy() {
				t.Errorf("Expected %dx%d output, got %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), out.Bounds().Dx(), out.Bounds().Dy())
			}
			if Channels(out) != 1 {
				t.Errorf("Expected 1 channel, got %d", Channels(out))
			}
		})
	}
}

func TestPencil_SolidGrayIsBright(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{128, 128, 128, 255})

	out, err := Pencil(img, DefaultPencilParams())
	if err != nil {
		t.Fatalf("Pencil failed: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("Expected 100x100 output, got %v", out.Bounds())
	}
	for i, v := range out.Pix {
		if v < 250 {
			t.Fatalf("Expected values close to 255, got %d at index %d", v, i)
		}
	}
}

func TestPencil_FlatColorIsUniform(t *testing.T) {
	img := solidImage(64, 48, color.RGBA{200, 120, 40, 255})

	out, err := Pencil(img, DefaultPencilParams())
	if err != nil {
		t.Fatalf("Pencil failed: %v", err)
	}
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi-lo > 2 {
		t.Errorf("Expected near-uniform output, got range [%d, %d]", lo, hi)
	}
}

func TestPencil_IsNotIdempotent(t *testing.T) {
	img := gradientImage(64, 64)

	once, err := Pencil(img, DefaultPencilParams())
	if err != nil {
		t.Fatalf("first Pencil failed: %v", err)
	}
	twice, err := Pencil(once, DefaultPencilParams())
	if err != nil {
		t.Fatalf("second Pencil failed: %v", err)
	}

	differing := 0
	for i := range once.Pix {
		if once.Pix[i] != twice.Pix[i] {
			differing++
		}
	}
	if differing == 0 {
		t.Error("Expected applying the filter twice to differ from applying it once")
	}
}

func TestPencil_GammaDarkens(t *testing.T) {
	img := solidImage(20, 20, color.RGBA{128, 128, 128, 255})
	params := DefaultPencilParams()
	params.Gamma = 0.65

	out, err := Pencil(img, params)
	if err != nil {
		t.Fatalf("Pencil failed: %v", err)
	}
	if out.Pix[0] != 165 {
		t.Errorf("Expected 165 (255 * 0.65), got %d", out.Pix[0])
	}
}

func TestPencil_BlackStaysBlack(t *testing.T) {
	out, err := Pencil(solidImage(10, 10, color.Black), DefaultPencilParams())
	if err != nil {
		t.Fatalf("Pencil failed: %v", err)
	}
	for _, v := range out.Pix {
		if v != 0 {
			t.Fatalf("Expected black input to stay 0, got %d", v)
		}
	}
}

func TestPencil_InvalidParams(t *testing.T) {
	testCases := []struct {
		name   string
		params PencilParams
	}{
		{"even kernel", PencilParams{KernelSize: 20, Gamma: 1}},
		{"zero kernel", PencilParams{KernelSize: 0, Gamma: 1}},
		{"negative sigma", PencilParams{KernelSize: 21, Sigma: -1, Gamma: 1}},
		{"zero gamma", PencilParams{KernelSize: 21}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Pencil(solidImage(4, 4, color.White), tc.params); err == nil {
				t.Error("Expected error for invalid parameters")
			}
		})
	}
}

func TestFilters_InvalidImageFormat(t *testing.T) {
	testCases := []struct {
		name string
		img  image.Image
	}{
		{"alpha only", image.NewAlpha(image.Rect(0, 0, 8, 8))},
		{"alpha16 only", image.NewAlpha16(image.Rect(0, 0, 8, 8))},
		{"empty", image.NewRGBA(image.Rect(0, 0, 0, 0))},
		{"nil", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Pencil(tc.img, DefaultPencilParams()); !errors.Is(err, ErrInvalidImageFormat) {
				t.Errorf("Pencil: expected ErrInvalidImageFormat, got %v", err)
			}
			if _, err := BlackAndWhite(tc.img, DefaultBlackWhiteParams()); !errors.Is(err, ErrInvalidImageFormat) {
				t.Errorf("BlackAndWhite: expected ErrInvalidImageFormat, got %v", err)
			}
		})
	}
}

func TestBlackAndWhite_OutputShape(t *testing.T) {
	for name, img := range shapeTestImages() {
		t.Run(name, func(t *testing.T) {
			out, err := BlackAndWhite(img, DefaultBlackWhiteParams())
			if err != nil {
				t.Fatalf("BlackAndWhite failed: %v", err)
			}
			if out.Bounds().Dx() != img.Bounds().Dx() || out.Bounds().Dy() != img.Bounds().Dy() {
				t.Errorf("Expected %dx%d output, got %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), out.Bounds().Dx(), out.Bounds().Dy())
			}
			if Channels(out) != 1 {
				t.Errorf("Expected 1 channel, got %d", Channels(out))
			}
		})
	}
}

func TestBlackAndWhite_MarksSquareBoundary(t *testing.T) {
	// 40x40 square of gray 96 spanning [30, 70) on a 100x100 white canvas.
	img := squareImage(100, 40, 96)

	out, err := BlackAndWhite(img, DefaultBlackWhiteParams())
	if err != nil {
		t.Fatalf("BlackAndWhite failed: %v", err)
	}

	boundary := out.GrayAt(30, 50).Y
	interior := out.GrayAt(50, 50).Y
	background := out.GrayAt(5, 5).Y

	if boundary > 40 {
		t.Errorf("Expected dark boundary, got %d", boundary)
	}
	if interior < boundary+40 {
		t.Errorf("Expected interior (%d) to be clearly brighter than boundary (%d)", interior, boundary)
	}
	if background < 200 {
		t.Errorf("Expected bright background, got %d", background)
	}
}

func TestBlackAndWhite_GrayscaleVariant(t *testing.T) {
	img := gradientImage(30, 20)
	params := DefaultBlackWhiteParams()
	params.Variant = VariantGrayscale

	out, err := BlackAndWhite(img, params)
	if err != nil {
		t.Fatalf("BlackAndWhite failed: %v", err)
	}
	want, err := ToGray(img)
	if err != nil {
		t.Fatalf("ToGray failed: %v", err)
	}
	for i := range want.Pix {
		if out.Pix[i] != want.Pix[i] {
			t.Fatalf("Expected plain grayscale at index %d: want %d, got %d", i, want.Pix[i], out.Pix[i])
		}
	}
}

func TestBlackAndWhite_InvalidParams(t *testing.T) {
	base := DefaultBlackWhiteParams()
	testCases := []struct {
		name   string
		mutate func(p *BlackWhiteParams)
	}{
		{"unknown variant", func(p *BlackWhiteParams) { p.Variant = "sepia" }},
		{"even median", func(p *BlackWhiteParams) { p.MedianKernel = 4 }},
		{"small block", func(p *BlackWhiteParams) { p.BlockSize = 1 }},
		{"even block", func(p *BlackWhiteParams) { p.BlockSize = 10 }},
		{"zero diameter", func(p *BlackWhiteParams) { p.Diameter = 0 }},
		{"zero sigma", func(p *BlackWhiteParams) { p.SigmaColor = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			if _, err := BlackAndWhite(solidImage(4, 4, color.White), params); err == nil {
				t.Error("Expected error for invalid parameters")
			}
		})
	}
}

func TestToGray_Luma(t *testing.T) {
	testCases := []struct {
		name string
		c    color.Color
		want uint8
	}{
		{"white", color.White, 255},
		{"black", color.Black, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"transparent", color.RGBA{0, 0, 0, 0}, 255},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gray, err := ToGray(solidImage(2, 2, tc.c))
			if err != nil {
				t.Fatalf("ToGray failed: %v", err)
			}
			if gray.Pix[0] != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, gray.Pix[0])
			}
		})
	}
}

func TestToGray_AnchorsAtOrigin(t *testing.T) {
	src := gradientImage(20, 20).SubImage(image.Rect(5, 5, 15, 12))
	gray, err := ToGray(src)
	if err != nil {
		t.Fatalf("ToGray failed: %v", err)
	}
	if gray.Bounds() != image.Rect(0, 0, 10, 7) {
		t.Errorf("Expected bounds (0,0)-(10,7), got %v", gray.Bounds())
	}
}

func TestChannels(t *testing.T) {
	rect := image.Rect(0, 0, 1, 1)
	testCases := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(rect), 1},
		{"gray16", image.NewGray16(rect), 1},
		{"alpha", image.NewAlpha(rect), 0},
		{"ycbcr", image.NewYCbCr(rect, image.YCbCrSubsampleRatio444), 3},
		{"cmyk", image.NewCMYK(rect), 3},
		{"rgba", image.NewRGBA(rect), 4},
		{"opaque palette", image.NewPaletted(rect, color.Palette{color.Black, color.White}), 3},
		{"palette with alpha", image.NewPaletted(rect, color.Palette{color.Transparent, color.White}), 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Channels(tc.img); got != tc.want {
				t.Errorf("Expected %d channels, got %d", tc.want, got)
			}
		})
	}
}

func TestBoxMean_Rounds(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	// window sum 1+2 = 3 over 9 samples, 0.333 rounds down
	src.Pix[0], src.Pix[1] = 1, 2
	if got := boxMean(src, 3).GrayAt(1, 1).Y; got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}

	// window sum 6 over 9 samples, 0.667 rounds up where truncation gives 0
	src.Pix[2] = 3
	if got := boxMean(src, 3).GrayAt(1, 1).Y; got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
}

func TestBoxMean_RepeatsEdges(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 5))
	for x := 0; x < 5; x++ {
		src.SetGray(x, 0, color.Gray{Y: 90})
	}
	// corner window holds the 90 row twice, once repeated past the border
	if got := boxMean(src, 3).GrayAt(0, 0).Y; got != 60 {
		t.Errorf("Expected 60, got %d", got)
	}
}

func TestGaussianKernel(t *testing.T) {
	kernel := gaussianKernel(21, 0)
	if len(kernel) != 21 {
		t.Fatalf("Expected 21 taps, got %d", len(kernel))
	}

	sum := 0.0
	for i, v := range kernel {
		sum += v
		if math.Abs(v-kernel[len(kernel)-1-i]) > 1e-12 {
			t.Errorf("Expected symmetric kernel, tap %d differs from its mirror", i)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected normalized kernel, sum is %f", sum)
	}
	if kernel[10] <= kernel[9] {
		t.Error("Expected peak at the center tap")
	}
}

func TestGaussianBlur_PreservesFlatRegion(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 15, 9))
	for i := range src.Pix {
		src.Pix[i] = 127
	}
	out := gaussianBlur(src, 21, 0)
	for i, v := range out.Pix {
		if v != 127 {
			t.Fatalf("Expected 127 at index %d, got %d", i, v)
		}
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"pencil", ModePencil, false},
		{" Pencil ", ModePencil, false},
		{"blackwhite", ModeBlackAndWhite, false},
		{"BLACKWHITE", ModeBlackAndWhite, false},
		{"", 0, true},
		{"sepia", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseMode(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q): expected ErrUnknownMode, got %v", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %v, expected %v", tc.input, got, tc.want)
		}
		if roundTrip, _ := ParseMode(got.String()); roundTrip != got {
			t.Errorf("Expected %v to round-trip through String, got %v", got, roundTrip)
		}
	}
}

func BenchmarkPencil(b *testing.B) {
	img := gradientImage(640, 480)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pencil(img, DefaultPencilParams()); err != nil {
			b.Fatalf("Pencil failed: %v", err)
		}
	}
}

func BenchmarkBlackAndWhite(b *testing.B) {
	img := gradientImage(640, 480)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BlackAndWhite(img, DefaultBlackWhiteParams()); err != nil {
			b.Fatalf("BlackAndWhite failed: %v", err)
		}
	}
}
