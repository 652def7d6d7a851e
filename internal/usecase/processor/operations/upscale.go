package operations

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"image-converter/internal/domain"

	xdraw "golang.org/x/image/draw"
)

// Upscaler enlarges images by an integer factor with Lanczos-3 resampling
// followed by one unsharp-mask pass. Output is always PNG.
type Upscaler struct{}

func NewUpscaler() *Upscaler {
	return &Upscaler{}
}

func (u *Upscaler) Process(ctx context.Context, img image.Image, scale int) (io.Reader, domain.Size, error) {
	bounds := img.Bounds()
	size := domain.Size{
		Width:  bounds.Dx() * scale,
		Height: bounds.Dy() * scale,
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.Size{}, err
	}

	resized := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	lanczos3.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)

	if err := ctx.Err(); err != nil {
		return nil, domain.Size{}, err
	}

	sharpened := unsharpMask(resized)

	buf := new(bytes.Buffer)
	if err := Encode(buf, sharpened, domain.ProfilePNG, domain.DefaultQuality); err != nil {
		return nil, domain.Size{}, fmt.Errorf("failed to encode upscaled image: %w", err)
	}

	return buf, size, nil
}
