package core

import "errors"

var (
	// ErrUnsupportedFileType is returned for uploads whose extension is not jpg, jpeg or png.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNoImage means nothing was uploaded; callers treat it as the idle state.
	ErrNoImage = errors.New("no image uploaded")
)
