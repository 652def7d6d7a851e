package image

import "errors"

var (
	ErrInvalidScale         = errors.New("scale must be 2 or 4")
	ErrProcessing           = errors.New("image processing failed")
	ErrImageTooLarge        = errors.New("image is too large")
	ErrStorageError         = errors.New("storage error")
	ErrStorageNotConfigured = errors.New("storage is not configured")
)
