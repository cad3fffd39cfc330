package commands

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"golang.org/x/image/draw"
)

// PixelScaleParams represents typed parameters for pixel scale command
type PixelScaleParams struct {
	MaxWidth  *int // Optional: longest allowed width in pixels
	MaxHeight *int // Optional: longest allowed height in pixels
}

// NewPixelScaleParamsFromMap creates PixelScaleParams from a generic map
func NewPixelScaleParamsFromMap(params map[string]any) (*PixelScaleParams, error) {
	_, hasWidth := params["maxWidth"]
	_, hasHeight := params["maxHeight"]
	if !hasWidth && !hasHeight {
		return nil, fmt.Errorf("at least one of 'maxWidth' or 'maxHeight' must be specified")
	}

	result := &PixelScaleParams{}
	if hasWidth {
		width := commandstructure.GetIntParam(params, "maxWidth", 0)
		if width <= 0 {
			return nil, fmt.Errorf("maxWidth must be positive, got %d", width)
		}
		result.MaxWidth = &width
	}
	if hasHeight {
		height := commandstructure.GetIntParam(params, "maxHeight", 0)
		if height <= 0 {
			return nil, fmt.Errorf("maxHeight must be positive, got %d", height)
		}
		result.MaxHeight = &height
	}
	return result, nil
}

// PixelScaleCommand shrinks images that exceed the configured bounds, keeping the aspect ratio.
// Images already inside the bounds pass through untouched.
type PixelScaleCommand struct {
	name   string
	params *PixelScaleParams
}

// NewPixelScaleCommand creates a new pixel scale command from configuration parameters
func NewPixelScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPixelScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PixelScaleCommand{
		name:   "PixelScaleCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *PixelScaleCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *PixelScaleCommand) GetParams() *PixelScaleParams {
	return c.params
}

// Execute downscales the image to fit the configured bounds
func (c *PixelScaleCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("PixelScaleCommand: decoding image", "input_size_bytes", len(imageData))

	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("PixelScaleCommand: failed to decode image", "error", err)
		return nil, err
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := c.fit(bounds.Dx(), bounds.Dy())
	if targetWidth == bounds.Dx() && targetHeight == bounds.Dy() {
		slog.Debug("PixelScaleCommand: image already within bounds; skipping scaling",
			"width", bounds.Dx(),
			"height", bounds.Dy())
		return imageData, nil
	}

	slog.Debug("PixelScaleCommand: scaling image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", targetWidth,
		"target_height", targetHeight)

	targetRect := image.Rect(0, 0, targetWidth, targetHeight)
	var dst draw.Image
	if _, isGray := img.(*image.Gray); isGray {
		// Keep sketches single channel
		dst = image.NewGray(targetRect)
	} else {
		dst = image.NewRGBA(targetRect)
	}
	draw.CatmullRom.Scale(dst, targetRect, img, bounds, draw.Src, nil)

	out, err := encodePNG(dst)
	if err != nil {
		slog.Error("PixelScaleCommand: failed to encode scaled image", "error", err)
		return nil, err
	}

	slog.Debug("PixelScaleCommand: scaling complete", "output_size_bytes", len(out))
	return out, nil
}

// fit returns the largest size no bigger than the original that satisfies the bounds.
func (c *PixelScaleCommand) fit(width, height int) (int, int) {
	scale := 1.0
	if c.params.MaxWidth != nil && width > *c.params.MaxWidth {
		scale = min(scale, float64(*c.params.MaxWidth)/float64(width))
	}
	if c.params.MaxHeight != nil && height > *c.params.MaxHeight {
		scale = min(scale, float64(*c.params.MaxHeight)/float64(height))
	}
	if scale == 1.0 {
		return width, height
	}
	return max(1, int(float64(width)*scale)), max(1, int(float64(height)*scale))
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("PixelScaleCommand", NewPixelScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register PixelScaleCommand: %v", err))
	}
}
