package common

import (
	"errors"
	"net/http"

	"github.com/jo-hoe/gosketch/internal/core"
	"github.com/jo-hoe/gosketch/internal/core/resultstore"
	"github.com/jo-hoe/gosketch/internal/sketch"
)

// StatusForError maps domain errors to the HTTP status shown to the user.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, sketch.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sketch.ErrInvalidImageFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resultstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoImage), errors.Is(err, sketch.ErrUnknownMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// MessageForError returns a message that is safe to show to the user.
func MessageForError(err error) string {
	switch {
	case errors.Is(err, core.ErrUnsupportedFileType):
		return "Unsupported file type. Please upload a JPG, JPEG or PNG image."
	case errors.Is(err, sketch.ErrImageTooLarge):
		return "The image has too many pixels. Please upload a smaller image."
	case errors.Is(err, sketch.ErrInvalidImageFormat):
		return "The image could not be read. Please upload a color or grayscale JPG or PNG."
	case errors.Is(err, resultstore.ErrNotFound):
		return "This sketch has expired. Please convert the image again."
	case errors.Is(err, core.ErrNoImage):
		return "Please choose an image to convert."
	case errors.Is(err, sketch.ErrUnknownMode):
		return "Unknown sketch mode."
	default:
		return "Failed to create the sketch."
	}
}
