package image

import (
	"context"

	"image-converter/internal/domain"
	image_uc "image-converter/internal/usecase/image"
)

type imageUsecase interface {
	Convert(ctx context.Context, img *domain.UploadedImage, req domain.ConversionRequest) (*image_uc.ConvertResult, error)
	Upscale(ctx context.Context, img *domain.UploadedImage, req domain.UpscaleRequest) (*image_uc.UpscaleResult, error)
}
