package operations

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"image-converter/internal/domain"

	xdraw "golang.org/x/image/draw"
)

type Converter struct {
	background color.Color
}

func NewConverter() *Converter {
	return &Converter{
		background: color.White,
	}
}

func (c *Converter) Process(ctx context.Context, img image.Image, profile domain.FormatProfile, quality int) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if profile.FlattenAlpha {
		img = flatten(img, c.background)
	}

	buf := new(bytes.Buffer)
	if err := Encode(buf, img, profile, quality); err != nil {
		return nil, fmt.Errorf("failed to encode converted image: %w", err)
	}

	return buf, nil
}

// flatten composites img over an opaque background.
func flatten(img image.Image, bg color.Color) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Over)

	return dst
}
