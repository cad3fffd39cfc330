package commands

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/sketch"
)

// PngConverterCommand normalises an upload to PNG so later commands only deal with one format.
// It reads only the image header first and rejects images above maxPixels before
// anything allocates the pixel buffer.
type PngConverterCommand struct {
	name      string
	maxPixels int64
}

// NewPngConverterCommand creates a new PNG converter command. The optional
// "maxPixels" parameter limits width*height; 0 means no limit.
func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	maxPixels := commandstructure.GetIntParam(params, "maxPixels", 0)
	if maxPixels < 0 {
		return nil, fmt.Errorf("maxPixels must not be negative, got %d", maxPixels)
	}
	return NewPngConverterCommandDirect(int64(maxPixels)), nil
}

// NewPngConverterCommandDirect creates a new PNG converter command directly
func NewPngConverterCommandDirect(maxPixels int64) *PngConverterCommand {
	return &PngConverterCommand{
		name:      "PngConverterCommand",
		maxPixels: maxPixels,
	}
}

// Name returns the command name
func (c *PngConverterCommand) Name() string {
	return c.name
}

// Execute returns PNG input unchanged after checking its header and re-encodes JPEG input as PNG.
func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("PngConverterCommand: start", "input_size_bytes", len(imageData))

	config, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		slog.Error("PngConverterCommand: image header is unreadable", "error", err)
		return nil, fmt.Errorf("%w: unreadable image header: %v", sketch.ErrInvalidImageFormat, err)
	}
	if err := c.checkPixels(config.Width, config.Height); err != nil {
		slog.Warn("PngConverterCommand: image rejected",
			"width", config.Width,
			"height", config.Height,
			"max_pixels", c.maxPixels)
		return nil, err
	}

	if hasCorrectPngSignature(imageData) {
		slog.Debug("PngConverterCommand: PNG detected; returning original bytes")
		return imageData, nil
	}

	img, _, err := decodeImage(imageData)
	if err != nil {
		slog.Error("PngConverterCommand: failed to decode image", "error", err)
		return nil, err
	}

	slog.Debug("PngConverterCommand: decoded raster image",
		"current_format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	out, err := encodePNG(img)
	if err != nil {
		slog.Error("PngConverterCommand: failed to encode image to PNG", "error", err)
		return nil, err
	}
	slog.Debug("PngConverterCommand: conversion complete", "output_size_bytes", len(out))
	return out, nil
}

func (c *PngConverterCommand) checkPixels(width, height int) error {
	if c.maxPixels <= 0 {
		return nil
	}
	if pixels := int64(width) * int64(height); pixels > c.maxPixels {
		return fmt.Errorf("%w: %dx%d has %d pixels, limit is %d",
			sketch.ErrImageTooLarge, width, height, pixels, c.maxPixels)
	}
	return nil
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}
