package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Uploads are limited to JPEG and PNG; registering only these decoders
	// makes image.Decode reject everything else.
	_ "image/jpeg"

	"github.com/jo-hoe/gosketch/internal/sketch"
)

// hasCorrectPngSignature checks whether the provided data begins with a valid PNG signature
func hasCorrectPngSignature(data []byte) bool {
	// PNG signature: 0x89 'P' 'N' 'G' 0x0D 0x0A 0x1A 0x0A
	if len(data) < 8 {
		return false
	}
	expected := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	return bytes.Equal(data[:8], expected)
}

// decodeImage decodes JPEG or PNG bytes. Any failure is reported as
// sketch.ErrInvalidImageFormat.
func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to decode image: %v", sketch.ErrInvalidImageFormat, err)
	}
	return img, format, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG image: %w", err)
	}
	return buf.Bytes(), nil
}
