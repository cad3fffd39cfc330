package commands

import (
	"fmt"
	"log/slog"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/sketch"
)

// NewPencilParamsFromMap creates sketch.PencilParams from a generic map, starting from the defaults
func NewPencilParamsFromMap(params map[string]any) (*sketch.PencilParams, error) {
	defaults := sketch.DefaultPencilParams()
	result := sketch.PencilParams{
		KernelSize: commandstructure.GetIntParam(params, "kernelSize", defaults.KernelSize),
		Sigma:      commandstructure.GetFloatParam(params, "sigma", defaults.Sigma),
		Gamma:      commandstructure.GetFloatParam(params, "gamma", defaults.Gamma),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// PencilSketchCommand renders a pencil sketch of the image as a single channel PNG
type PencilSketchCommand struct {
	name   string
	params *sketch.PencilParams
}

// NewPencilSketchCommand creates a new pencil sketch command from configuration parameters
func NewPencilSketchCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPencilParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PencilSketchCommand{
		name:   "PencilSketchCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *PencilSketchCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *PencilSketchCommand) GetParams() *sketch.PencilParams {
	return c.params
}

// Execute applies the pencil sketch filter
func (c *PencilSketchCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("PencilSketchCommand: decoding image", "input_size_bytes", len(imageData))

	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("PencilSketchCommand: failed to decode image", "error", err)
		return nil, err
	}

	out, err := sketch.Pencil(img, *c.params)
	if err != nil {
		slog.Error("PencilSketchCommand: filter failed", "error", err)
		return nil, err
	}

	data, err := encodePNG(out)
	if err != nil {
		slog.Error("PencilSketchCommand: failed to encode sketch", "error", err)
		return nil, err
	}

	slog.Debug("PencilSketchCommand: sketch complete", "output_size_bytes", len(data))
	return data, nil
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("PencilSketchCommand", NewPencilSketchCommand); err != nil {
		panic(fmt.Sprintf("failed to register PencilSketchCommand: %v", err))
	}
}
