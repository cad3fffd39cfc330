package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jo-hoe/gosketch/internal/backend/commands"
	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/core/resultstore"
	"github.com/jo-hoe/gosketch/internal/sketch"
)

// ResultImage selects one of the two images held for a conversion.
type ResultImage string

const (
	ResultOriginal ResultImage = "original"
	ResultSketch   ResultImage = "sketch"
)

// ParseResultImage maps a path segment to a ResultImage.
func ParseResultImage(value string) (ResultImage, error) {
	switch ResultImage(value) {
	case ResultOriginal, ResultSketch:
		return ResultImage(value), nil
	default:
		return "", fmt.Errorf("%w: unknown image %q", resultstore.ErrNotFound, value)
	}
}

type ConvertRequest struct {
	Filename string
	Data     []byte
	Mode     sketch.Mode
}

type ConvertResult struct {
	ID       string
	Mode     sketch.Mode
	Width    int
	Height   int
	Original []byte
	Sketch   []byte
}

type CoreService struct {
	config    *ServiceConfig
	store     resultstore.Store
	converter *commands.PngConverterCommand
	previewer commandstructure.Command
	pipelines map[sketch.Mode]*commandstructure.CommandInvoker
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	store, err := resultstore.New(context.Background(), config.ResultStore)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}
	return newCoreServiceWithStore(config, store)
}

func newCoreServiceWithStore(config *ServiceConfig, store resultstore.Store) (*CoreService, error) {
	service := &CoreService{
		config:    config,
		store:     store,
		converter: commands.NewPngConverterCommandDirect(config.MaxInputPixels),
		pipelines: make(map[sketch.Mode]*commandstructure.CommandInvoker),
	}

	if config.PreviewWidth > 0 {
		previewer, err := commands.NewPixelScaleCommand(map[string]any{"maxWidth": config.PreviewWidth})
		if err != nil {
			return nil, fmt.Errorf("failed to create preview command: %w", err)
		}
		service.previewer = previewer
	}

	for _, mode := range sketch.Modes() {
		invoker, err := service.buildPipeline(mode)
		if err != nil {
			return nil, err
		}
		service.pipelines[mode] = invoker
		slog.Info("sketch pipeline ready", "mode", mode.String(), "commands", invoker.CommandNames())
	}
	return service, nil
}

func (service *CoreService) buildPipeline(mode sketch.Mode) (*commandstructure.CommandInvoker, error) {
	configs, err := service.config.CommandsFor(mode)
	if err != nil {
		return nil, err
	}
	if limit := service.config.MaxInputDimension; limit > 0 {
		scale := commandstructure.CommandConfig{
			Name:   "PixelScaleCommand",
			Params: map[string]any{"maxWidth": limit, "maxHeight": limit},
		}
		configs = append([]commandstructure.CommandConfig{scale}, configs...)
	}

	invoker, err := commandstructure.NewCommandInvokerFromConfigs(commandstructure.DefaultRegistry, configs)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline for mode %s: %w", mode, err)
	}
	return invoker, nil
}

func (service *CoreService) Close() error {
	return service.store.Close()
}

// DownloadFilename is the name offered for the generated PNG.
func (service *CoreService) DownloadFilename() string {
	return service.config.DownloadFilename
}

// Modes lists the selectable sketch modes in display order.
func (service *CoreService) Modes() []sketch.Mode {
	return sketch.Modes()
}

// ValidateFilename accepts jpg, jpeg and png extensions in any case.
func ValidateFilename(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, filename)
	}
}

// Convert runs the mode's filter on the upload and keeps both images for
// later preview and download.
func (service *CoreService) Convert(ctx context.Context, request ConvertRequest) (*ConvertResult, error) {
	if request.Filename == "" && len(request.Data) == 0 {
		return nil, ErrNoImage
	}
	if err := ValidateFilename(request.Filename); err != nil {
		return nil, err
	}
	if len(request.Data) == 0 {
		return nil, ErrNoImage
	}

	pipeline, ok := service.pipelines[request.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: %d", sketch.ErrUnknownMode, int(request.Mode))
	}

	start := time.Now()
	original, err := service.converter.Execute(request.Data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := pipeline.Execute(original)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s sketch: %w", request.Mode, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds, err := png.DecodeConfig(bytes.NewReader(result))
	if err != nil {
		return nil, fmt.Errorf("sketch pipeline returned no PNG: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate result id: %w", err)
	}

	entry := &resultstore.Entry{
		Mode:      request.Mode.String(),
		Width:     bounds.Width,
		Height:    bounds.Height,
		Original:  original,
		Sketch:    result,
		CreatedAt: time.Now(),
	}
	if err := service.store.Put(ctx, id, entry, service.config.ResultStore.TTL); err != nil {
		return nil, err
	}

	slog.Info("sketch created",
		"id", id,
		"mode", request.Mode.String(),
		"filename", request.Filename,
		"width", bounds.Width,
		"height", bounds.Height,
		"duration_ms", time.Since(start).Milliseconds())

	return &ConvertResult{
		ID:       id,
		Mode:     request.Mode,
		Width:    bounds.Width,
		Height:   bounds.Height,
		Original: original,
		Sketch:   result,
	}, nil
}

// GetResult returns a held conversion or resultstore.ErrNotFound.
func (service *CoreService) GetResult(ctx context.Context, id string) (*ConvertResult, error) {
	if id == "" {
		return nil, resultstore.ErrNotFound
	}
	entry, err := service.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	mode, err := sketch.ParseMode(entry.Mode)
	if err != nil {
		if derr := service.store.Delete(ctx, id); derr != nil {
			slog.Error("failed to delete corrupt result", "id", id, "error", derr)
		}
		return nil, fmt.Errorf("stored result %s is corrupt: %w", id, err)
	}
	return &ConvertResult{
		ID:       id,
		Mode:     mode,
		Width:    entry.Width,
		Height:   entry.Height,
		Original: entry.Original,
		Sketch:   entry.Sketch,
	}, nil
}

// Preview returns the selected image scaled down to the preview width.
func (service *CoreService) Preview(ctx context.Context, id string, which ResultImage) ([]byte, error) {
	result, err := service.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch which {
	case ResultOriginal:
		data = result.Original
	case ResultSketch:
		data = result.Sketch
	default:
		return nil, fmt.Errorf("%w: unknown image %q", resultstore.ErrNotFound, which)
	}

	if service.previewer == nil {
		return data, nil
	}
	preview, err := service.previewer.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview: %w", err)
	}
	return preview, nil
}

// IsNotFound reports whether err means the result is unknown or expired.
func IsNotFound(err error) bool {
	return errors.Is(err, resultstore.ErrNotFound)
}
