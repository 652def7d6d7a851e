package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		target string
		want   FormatProfile
	}{
		{"image/jpeg", ProfileJPEG},
		{"image/png", ProfilePNG},
		{"image/webp", ProfileWebP},
		{"image/avif", ProfileAVIF},
		{"image/tiff", ProfileTIFF},
		{"JPG", ProfileJPEG},
		{" png ", ProfilePNG},
		{"", ProfileWebP},
		{"image/gif", ProfileWebP},
		{"application/octet-stream", ProfileWebP},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileFor(tt.target))
		})
	}
}

func TestProfileTable(t *testing.T) {
	assert.Equal(t, "jpg", ProfileJPEG.Extension)
	assert.True(t, ProfileJPEG.FlattenAlpha)

	for _, p := range []FormatProfile{ProfilePNG, ProfileWebP, ProfileAVIF, ProfileTIFF} {
		assert.False(t, p.FlattenAlpha, p.MimeType)
	}
}

func TestClampQuality(t *testing.T) {
	assert.Equal(t, 1, ClampQuality(-20))
	assert.Equal(t, 1, ClampQuality(0))
	assert.Equal(t, 55, ClampQuality(55))
	assert.Equal(t, 100, ClampQuality(100))
	assert.Equal(t, 100, ClampQuality(250))
}

func TestValidScale(t *testing.T) {
	assert.True(t, ValidScale(2))
	assert.True(t, ValidScale(4))

	for _, s := range []int{-2, 0, 1, 3, 5, 8} {
		assert.False(t, ValidScale(s), s)
	}
}
