package image

import (
	"context"

	"image-converter/internal/domain"
	"image-converter/internal/usecase/processor"
)

type imageProcessor interface {
	Convert(ctx context.Context, data []byte, req domain.ConversionRequest) ([]byte, error)
	Upscale(ctx context.Context, data []byte, req domain.UpscaleRequest) (*processor.UpscaleResult, error)
}

type fileRepository interface {
	Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error)
}
