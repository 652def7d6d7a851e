package processor

import "errors"

var (
	ErrDecode            = errors.New("failed to decode image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEncode            = errors.New("failed to encode image")
	ErrInvalidScale      = errors.New("scale must be 2 or 4")
	ErrTooLarge          = errors.New("image dimensions exceed the allowed pixel count")
)
