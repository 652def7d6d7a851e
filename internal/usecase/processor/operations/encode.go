package operations

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"image-converter/internal/domain"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/tiff"
)

const (
	webpMethod = 4
	avifSpeed  = 8
)

// Encode writes img in the encoding described by profile. Quality is
// clamped first; PNG treats it as an effort hint and TIFF ignores it.
func Encode(w io.Writer, img image.Image, profile domain.FormatProfile, quality int) error {
	quality = domain.ClampQuality(quality)

	var err error
	switch profile.Format {
	case domain.FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case domain.FormatPNG:
		enc := png.Encoder{CompressionLevel: PNGCompression(quality)}
		err = enc.Encode(w, img)
	case domain.FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case domain.FormatAVIF:
		err = avif.Encode(w, img, avif.Options{
			Quality:           quality,
			QualityAlpha:      quality,
			Speed:             avifSpeed,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		})
	default:
		err = webp.Encode(w, img, webp.Options{Quality: quality, Method: webpMethod})
	}

	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", profile.Format, err)
	}

	return nil
}

// PNGCompression maps a 1-100 quality value onto zlib effort.
// Above 90 means maximum effort.
func PNGCompression(quality int) png.CompressionLevel {
	switch {
	case quality > 90:
		return png.BestCompression
	case quality < 34:
		return png.BestSpeed
	default:
		return png.DefaultCompression
	}
}
