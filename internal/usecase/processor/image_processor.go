package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"image-converter/internal/domain"
	"image-converter/internal/usecase/processor/operations"

	_ "github.com/gen2brain/avif"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type UpscaleResult struct {
	Data     []byte
	Original domain.Size
	Upscaled domain.Size
}

// Limits caps the pixel count of decoded inputs and of upscaled outputs.
// A zero field means no limit.
type Limits struct {
	MaxInputPixels  int64
	MaxOutputPixels int64
}

// ImageProcessor is the boundary between request handling and the imaging
// libraries. It holds no per-request state.
type ImageProcessor struct {
	converter *operations.Converter
	upscaler  *operations.Upscaler
	limits    Limits
	logger    *zlog.Zerolog
}

func NewImageProcessor(logger *zlog.Zerolog, limits Limits) *ImageProcessor {
	return &ImageProcessor{
		converter: operations.NewConverter(),
		upscaler:  operations.NewUpscaler(),
		limits:    limits,
		logger:    logger,
	}
}

func (p *ImageProcessor) Convert(ctx context.Context, data []byte, req domain.ConversionRequest) ([]byte, error) {
	start := time.Now()

	if _, err := p.checkSize(data, 1); err != nil {
		return nil, err
	}

	img, format, err := decode(data)
	if err != nil {
		p.logger.Warn().Err(err).Int("size", len(data)).Msg("Failed to decode image")
		return nil, err
	}

	reader, err := p.converter.Process(ctx, img, req.Profile, req.Quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted data: %w", err)
	}

	p.logger.Debug().
		Str("source_format", format).
		Str("target_format", string(req.Profile.Format)).
		Int("quality", domain.ClampQuality(req.Quality)).
		Int("in_bytes", len(data)).
		Int("out_bytes", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Image converted")

	return out, nil
}

func (p *ImageProcessor) Upscale(ctx context.Context, data []byte, req domain.UpscaleRequest) (*UpscaleResult, error) {
	if !domain.ValidScale(req.Scale) {
		return nil, ErrInvalidScale
	}

	start := time.Now()

	original, err := p.checkSize(data, req.Scale)
	if err != nil {
		return nil, err
	}

	img, format, err := decode(data)
	if err != nil {
		p.logger.Warn().Err(err).Int("size", len(data)).Msg("Failed to decode image")
		return nil, err
	}

	reader, upscaled, err := p.upscaler.Process(ctx, img, req.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upscaled data: %w", err)
	}

	p.logger.Debug().
		Str("source_format", format).
		Int("scale", req.Scale).
		Int("width", upscaled.Width).
		Int("height", upscaled.Height).
		Dur("duration", time.Since(start)).
		Msg("Image upscaled")

	return &UpscaleResult{
		Data:     out,
		Original: original,
		Upscaled: upscaled,
	}, nil
}

// Dimensions reads the intrinsic size without decoding pixel data.
func (p *ImageProcessor) Dimensions(data []byte) (domain.Size, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.Size{}, classifyDecodeError(err)
	}
	return domain.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// checkSize reads the header dimensions and rejects images whose decoded
// input, or output at the given scale, would exceed the configured limits.
func (p *ImageProcessor) checkSize(data []byte, scale int) (domain.Size, error) {
	size, err := p.Dimensions(data)
	if err != nil {
		p.logger.Warn().Err(err).Int("size", len(data)).Msg("Failed to read image header")
		return domain.Size{}, err
	}

	pixels := int64(size.Width) * int64(size.Height)
	if limit := p.limits.MaxInputPixels; limit > 0 && pixels > limit {
		return size, fmt.Errorf("%w: input %dx%d is over %d pixels", ErrTooLarge, size.Width, size.Height, limit)
	}

	factor := int64(scale) * int64(scale)
	if limit := p.limits.MaxOutputPixels; limit > 0 && scale > 1 && pixels > limit/factor {
		return size, fmt.Errorf("%w: output %dx%d is over %d pixels",
			ErrTooLarge, size.Width*scale, size.Height*scale, limit)
	}

	return size, nil
}

func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", classifyDecodeError(err)
	}
	return img, format, nil
}

func classifyDecodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}
