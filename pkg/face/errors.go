package face

import "errors"

var (
	// ErrModelNotFound is returned when the detector model file is missing.
	ErrModelNotFound = errors.New("face: model file not found")

	// ErrUnsupportedFormat is returned for frames the locator cannot decode.
	ErrUnsupportedFormat = errors.New("face: unsupported frame format")

	// ErrEmptyImage is returned when a frame decodes to an empty image.
	ErrEmptyImage = errors.New("face: empty image")
)
