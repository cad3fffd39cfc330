//go:build gocv

package commands

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/gosketch/internal/backend/commandstructure"
	"github.com/jo-hoe/gosketch/internal/sketch"
	"gocv.io/x/gocv"
)

// OpenCVPencilSketchCommand is the pencil sketch filter backed by OpenCV.
// Only built with the gocv tag since it needs the native libraries.
type OpenCVPencilSketchCommand struct {
	name   string
	params *sketch.PencilParams
}

// NewOpenCVPencilSketchCommand creates a new OpenCV pencil sketch command from configuration parameters
func NewOpenCVPencilSketchCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPencilParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &OpenCVPencilSketchCommand{name: "OpenCVPencilSketchCommand", params: typedParams}, nil
}

// Name returns the command name
func (c *OpenCVPencilSketchCommand) Name() string {
	return c.name
}

// Execute applies the pencil sketch filter through OpenCV
func (c *OpenCVPencilSketchCommand) Execute(imageData []byte) ([]byte, error) {
	gray, err := decodeGrayMat(imageData)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(gray, &inverted)

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := c.params.KernelSize
	gocv.GaussianBlur(inverted, &blurred, image.Pt(k, k), c.params.Sigma, c.params.Sigma, gocv.BorderReplicate)

	invBlur := gocv.NewMat()
	defer invBlur.Close()
	gocv.BitwiseNot(blurred, &invBlur)

	out := gocv.NewMat()
	defer out.Close()
	gocv.DivideWithParams(gray, invBlur, &out, 256, gray.Type())

	if c.params.Gamma != 1 {
		scaled := gocv.NewMat()
		defer scaled.Close()
		out.ConvertToWithParams(&scaled, gray.Type(), float32(c.params.Gamma), 0)
		return encodeMat(c.name, scaled)
	}
	return encodeMat(c.name, out)
}

// OpenCVBlackWhiteSketchCommand is the black & white sketch filter backed by OpenCV.
type OpenCVBlackWhiteSketchCommand struct {
	name   string
	params *sketch.BlackWhiteParams
}

// NewOpenCVBlackWhiteSketchCommand creates a new OpenCV black & white sketch command from configuration parameters
func NewOpenCVBlackWhiteSketchCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewBlackWhiteParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &OpenCVBlackWhiteSketchCommand{name: "OpenCVBlackWhiteSketchCommand", params: typedParams}, nil
}

// Name returns the command name
func (c *OpenCVBlackWhiteSketchCommand) Name() string {
	return c.name
}

// Execute applies the black & white sketch filter through OpenCV
func (c *OpenCVBlackWhiteSketchCommand) Execute(imageData []byte) ([]byte, error) {
	gray, err := decodeGrayMat(imageData)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	if c.params.Variant == sketch.VariantGrayscale {
		return encodeMat(c.name, gray)
	}

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.MedianBlur(gray, &denoised, c.params.MedianKernel)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(denoised, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary,
		c.params.BlockSize, float32(c.params.C))

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(denoised, &smooth, c.params.Diameter, c.params.SigmaColor, c.params.SigmaSpace)

	out := gocv.NewMat()
	defer out.Close()
	gocv.BitwiseAndWithMask(smooth, smooth, &out, edges)

	return encodeMat(c.name, out)
}

func decodeGrayMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", sketch.ErrInvalidImageFormat, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: could not decode image", sketch.ErrInvalidImageFormat)
	}

	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

func encodeMat(name string, mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		slog.Error(name+": failed to encode sketch", "error", err)
		return nil, fmt.Errorf("failed to encode sketch: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	slog.Debug(name+": sketch complete", "output_size_bytes", len(data))
	return data, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("OpenCVPencilSketchCommand", NewOpenCVPencilSketchCommand); err != nil {
		panic(fmt.Sprintf("failed to register OpenCVPencilSketchCommand: %v", err))
	}
	if err := commandstructure.DefaultRegistry.Register("OpenCVBlackWhiteSketchCommand", NewOpenCVBlackWhiteSketchCommand); err != nil {
		panic(fmt.Sprintf("failed to register OpenCVBlackWhiteSketchCommand: %v", err))
	}
}
