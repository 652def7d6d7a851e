package image

import "errors"

var (
	ErrNoFile         = errors.New("no file received")
	ErrInvalidScale   = errors.New("scale must be 2 or 4")
	ErrInvalidRequest = errors.New("invalid request format")
	ErrFileTooLarge   = errors.New("file too large")
)

const (
	msgConversionFailed = "conversion failed"
	msgUpscalingFailed  = "upscaling failed"
	msgNotConfigured    = "storage is not configured"
	msgImageTooLarge    = "image dimensions are too large"

	remediationNotConfigured = "set STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY for the remote storage backend, or use STORAGE_BACKEND=local"
)
