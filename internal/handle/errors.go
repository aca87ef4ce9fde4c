package handle

import "errors"

// Sentinel errors returned (possibly wrapped) by Manager methods. Each maps
// onto one boundary result code.
var (
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidHandle     = errors.New("invalid image handle")
	ErrLoadFailed        = errors.New("image load failed")
	ErrSaveFailed        = errors.New("image save failed")
	ErrAllocation        = errors.New("buffer allocation failed")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
