package domain

import (
	"strings"
	"time"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatWebP ImageFormat = "webp"
	FormatAVIF ImageFormat = "avif"
	FormatTIFF ImageFormat = "tiff"
)

// FormatProfile describes how a target format is encoded and named.
type FormatProfile struct {
	MimeType     string
	Extension    string
	Format       ImageFormat
	FlattenAlpha bool
}

var (
	ProfileJPEG = FormatProfile{MimeType: "image/jpeg", Extension: "jpg", Format: FormatJPEG, FlattenAlpha: true}
	ProfilePNG  = FormatProfile{MimeType: "image/png", Extension: "png", Format: FormatPNG}
	ProfileWebP = FormatProfile{MimeType: "image/webp", Extension: "webp", Format: FormatWebP}
	ProfileAVIF = FormatProfile{MimeType: "image/avif", Extension: "avif", Format: FormatAVIF}
	ProfileTIFF = FormatProfile{MimeType: "image/tiff", Extension: "tiff", Format: FormatTIFF}
)

// ProfileFor resolves a target format identifier. MIME types and bare
// format names are both accepted; anything unrecognised maps to WEBP.
func ProfileFor(target string) FormatProfile {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "image/jpeg", "jpeg", "jpg":
		return ProfileJPEG
	case "image/png", "png":
		return ProfilePNG
	case "image/avif", "avif":
		return ProfileAVIF
	case "image/tiff", "tiff", "tif":
		return ProfileTIFF
	default:
		return ProfileWebP
	}
}

type UploadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

type ConversionRequest struct {
	Profile FormatProfile
	Quality int
}

type UpscaleRequest struct {
	Scale int
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Artifact is one stored output image. It is never mutated after creation.
type Artifact struct {
	Key       string
	URL       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

const (
	ArtifactTTL = 24 * time.Hour

	DefaultMaxUploadSize = 32 << 20
	DefaultQuality       = 90
	DefaultScale         = 2
	DefaultTargetFormat  = "image/webp"

	MinQuality = 1
	MaxQuality = 100
)

// ClampQuality pins q into [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// ValidScale reports whether s is a supported upscale factor.
func ValidScale(s int) bool {
	return s == 2 || s == 4
}

const (
	ConvertedPrefix = "converted_"
	UpscaledPrefix  = "upscaled_"
)
