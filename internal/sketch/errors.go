package sketch

import "errors"

var (
	// ErrInvalidImageFormat is returned for images whose channel layout cannot be
	// converted to grayscale, including undecodable or empty images.
	ErrInvalidImageFormat = errors.New("invalid image format")

	// ErrImageTooLarge is returned when an image declares more pixels than allowed.
	ErrImageTooLarge = errors.New("image too large")

	// ErrUnknownMode is returned when a sketch mode label does not name a known mode.
	ErrUnknownMode = errors.New("unknown sketch mode")
)
