package artifact

import "errors"

var (
	ErrNotConfigured     = errors.New("storage credentials are not configured")
	ErrStorageError      = errors.New("storage error")
	ErrStorageValidation = errors.New("storage validation failed")
	ErrDuplicateKey      = errors.New("duplicate key violation")
)
