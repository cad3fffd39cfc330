package commands

import (
	"fmt"
	"log/slog"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/sketch"
)

// NewBlackWhiteParamsFromMap creates sketch.BlackWhiteParams from a generic map, starting from the defaults
func NewBlackWhiteParamsFromMap(params map[string]any) (*sketch.BlackWhiteParams, error) {
	defaults := sketch.DefaultBlackWhiteParams()
	result := sketch.BlackWhiteParams{
		Variant:      sketch.BlackWhiteVariant(commandstructure.GetStringParam(params, "variant", string(defaults.Variant))),
		MedianKernel: commandstructure.GetIntParam(params, "medianKernel", defaults.MedianKernel),
		BlockSize:    commandstructure.GetIntParam(params, "blockSize", defaults.BlockSize),
		C:            commandstructure.GetFloatParam(params, "c", defaults.C),
		Diameter:     commandstructure.GetIntParam(params, "diameter", defaults.Diameter),
		SigmaColor:   commandstructure.GetFloatParam(params, "sigmaColor", defaults.SigmaColor),
		SigmaSpace:   commandstructure.GetFloatParam(params, "sigmaSpace", defaults.SigmaSpace),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// BlackWhiteSketchCommand renders a black & white sketch of the image as a single channel PNG
type BlackWhiteSketchCommand struct {
	name   string
	params *sketch.BlackWhiteParams
}

// NewBlackWhiteSketchCommand creates a new black & white sketch command from configuration parameters
func NewBlackWhiteSketchCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewBlackWhiteParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &BlackWhiteSketchCommand{
		name:   "BlackWhiteSketchCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *BlackWhiteSketchCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *BlackWhiteSketchCommand) GetParams() *sketch.BlackWhiteParams {
	return c.params
}

// Execute applies the black & white sketch filter
func (c *BlackWhiteSketchCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("BlackWhiteSketchCommand: decoding image",
		"input_size_bytes", len(imageData),
		"variant", c.params.Variant)

	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("BlackWhiteSketchCommand: failed to decode image", "error", err)
		return nil, err
	}

	out, err := sketch.BlackAndWhite(img, *c.params)
	if err != nil {
		slog.Error("BlackWhiteSketchCommand: filter failed", "error", err)
		return nil, err
	}

	data, err := encodePNG(out)
	if err != nil {
		slog.Error("BlackWhiteSketchCommand: failed to encode sketch", "error", err)
		return nil, err
	}

	slog.Debug("BlackWhiteSketchCommand: sketch complete", "output_size_bytes", len(data))
	return data, nil
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("BlackWhiteSketchCommand", NewBlackWhiteSketchCommand); err != nil {
		panic(fmt.Sprintf("failed to register BlackWhiteSketchCommand: %v", err))
	}
}
