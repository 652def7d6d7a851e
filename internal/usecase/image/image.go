package image

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"image-converter/internal/domain"
	repoArtifact "image-converter/internal/repository/artifact"
	"image-converter/internal/usecase/processor"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type ConvertResult struct {
	Artifact *domain.Artifact
	Filename string
}

type UpscaleResult struct {
	Artifact *domain.Artifact
	Filename string
	Original domain.Size
	Upscaled domain.Size
	Scale    int
}

type ImageUsecase struct {
	processor imageProcessor
	fileRepo  fileRepository
	logger    *zlog.Zerolog
}

func NewImageUsecase(processor imageProcessor, fileRepo fileRepository, logger *zlog.Zerolog) *ImageUsecase {
	return &ImageUsecase{
		processor: processor,
		fileRepo:  fileRepo,
		logger:    logger,
	}
}

func (i *ImageUsecase) Convert(ctx context.Context, img *domain.UploadedImage, req domain.ConversionRequest) (*ConvertResult, error) {
	out, err := i.processor.Convert(ctx, img.Data, req)
	if err != nil {
		return nil, processingError(err)
	}

	key := fmt.Sprintf("%s.%s", uuid.New().String(), req.Profile.Extension)

	stored, err := i.fileRepo.Store(ctx, out, key, req.Profile.MimeType)
	if err != nil {
		return nil, i.storageError(err)
	}

	i.logger.Info().
		Str("key", stored.Key).
		Str("filename", img.Filename).
		Str("format", string(req.Profile.Format)).
		Msg("Image converted and stored")

	return &ConvertResult{
		Artifact: stored,
		Filename: ConvertedFilename(img.Filename, req.Profile.Extension),
	}, nil
}

func (i *ImageUsecase) Upscale(ctx context.Context, img *domain.UploadedImage, req domain.UpscaleRequest) (*UpscaleResult, error) {
	if !domain.ValidScale(req.Scale) {
		return nil, ErrInvalidScale
	}

	res, err := i.processor.Upscale(ctx, img.Data, req)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidScale) {
			return nil, ErrInvalidScale
		}
		return nil, processingError(err)
	}

	key := fmt.Sprintf("%s%dx_%s.%s", domain.UpscaledPrefix, req.Scale, uuid.New().String(), domain.ProfilePNG.Extension)

	stored, err := i.fileRepo.Store(ctx, res.Data, key, domain.ProfilePNG.MimeType)
	if err != nil {
		return nil, i.storageError(err)
	}

	i.logger.Info().
		Str("key", stored.Key).
		Str("filename", img.Filename).
		Int("scale", req.Scale).
		Int("width", res.Upscaled.Width).
		Int("height", res.Upscaled.Height).
		Msg("Image upscaled and stored")

	return &UpscaleResult{
		Artifact: stored,
		Filename: UpscaledFilename(img.Filename, req.Scale),
		Original: res.Original,
		Upscaled: res.Upscaled,
		Scale:    req.Scale,
	}, nil
}

func processingError(err error) error {
	if errors.Is(err, processor.ErrTooLarge) {
		return fmt.Errorf("%w: %w", ErrImageTooLarge, err)
	}
	return fmt.Errorf("%w: %w", ErrProcessing, err)
}

func (i *ImageUsecase) storageError(err error) error {
	if errors.Is(err, repoArtifact.ErrNotConfigured) {
		return fmt.Errorf("%w: %w", ErrStorageNotConfigured, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageError, err)
}

// ConvertedFilename is the download name offered for a conversion:
// converted_<name without extension>.<ext>.
func ConvertedFilename(original, ext string) string {
	base := baseName(original)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s%s.%s", domain.ConvertedPrefix, base, ext)
}

// UpscaledFilename is the download name offered for an upscale:
// upscaled_<scale>x_<original name>.
func UpscaledFilename(original string, scale int) string {
	return fmt.Sprintf("%s%dx_%s", domain.UpscaledPrefix, scale, baseName(original))
}

// baseName strips any client-supplied directories from a filename.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
