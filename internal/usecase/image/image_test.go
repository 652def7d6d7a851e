package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"image-converter/internal/domain"
	repoArtifact "image-converter/internal/repository/artifact"
	"image-converter/internal/usecase/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeProcessor struct {
	convertErr error
	upscaleErr error
	lastConv   domain.ConversionRequest
}

func (f *fakeProcessor) Convert(ctx context.Context, data []byte, req domain.ConversionRequest) ([]byte, error) {
	f.lastConv = req
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	return append([]byte("converted:"), data...), nil
}

func (f *fakeProcessor) Upscale(ctx context.Context, data []byte, req domain.UpscaleRequest) (*processor.UpscaleResult, error) {
	if f.upscaleErr != nil {
		return nil, f.upscaleErr
	}
	return &processor.UpscaleResult{
		Data:     []byte("upscaled"),
		Original: domain.Size{Width: 10, Height: 5},
		Upscaled: domain.Size{Width: 10 * req.Scale, Height: 5 * req.Scale},
	}, nil
}

type storedObject struct {
	name        string
	contentType string
	data        []byte
}

type fakeRepository struct {
	err    error
	stored []storedObject
}

func (f *fakeRepository) Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.stored = append(f.stored, storedObject{name: name, contentType: contentType, data: data})
	return repoArtifact.New(name, "/uploads/"+name, time.Now()), nil
}

func newTestUsecase(p *fakeProcessor, r *fakeRepository) *ImageUsecase {
	zlog.Init()
	return NewImageUsecase(p, r, &zlog.Logger)
}

func TestImageUsecase_Convert(t *testing.T) {
	p := &fakeProcessor{}
	r := &fakeRepository{}
	uc := newTestUsecase(p, r)

	req := domain.ConversionRequest{Profile: domain.ProfileJPEG, Quality: 75}
	res, err := uc.Convert(context.Background(), &domain.UploadedImage{Data: []byte("src"), Filename: "holiday.photo.png"}, req)
	require.NoError(t, err)

	assert.Equal(t, "converted_holiday.photo.jpg", res.Filename)
	assert.Equal(t, req, p.lastConv)

	require.Len(t, r.stored, 1)
	assert.True(t, strings.HasSuffix(r.stored[0].name, ".jpg"))
	assert.Len(t, r.stored[0].name, 36+len(".jpg"))
	assert.Equal(t, "image/jpeg", r.stored[0].contentType)
	assert.Equal(t, []byte("converted:src"), r.stored[0].data)
	assert.Equal(t, "/uploads/"+r.stored[0].name, res.Artifact.URL)
}

func TestImageUsecase_ConvertDistinctKeys(t *testing.T) {
	r := &fakeRepository{}
	uc := newTestUsecase(&fakeProcessor{}, r)

	img := &domain.UploadedImage{Data: []byte("src"), Filename: "a.png"}
	req := domain.ConversionRequest{Profile: domain.ProfileWebP, Quality: 90}

	first, err := uc.Convert(context.Background(), img, req)
	require.NoError(t, err)
	second, err := uc.Convert(context.Background(), img, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Artifact.Key, second.Artifact.Key)
}

func TestImageUsecase_ConvertErrors(t *testing.T) {
	img := &domain.UploadedImage{Data: []byte("src"), Filename: "a.png"}
	req := domain.ConversionRequest{Profile: domain.ProfilePNG}

	uc := newTestUsecase(&fakeProcessor{convertErr: processor.ErrDecode}, &fakeRepository{})
	_, err := uc.Convert(context.Background(), img, req)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, processor.ErrDecode)

	r := &fakeRepository{err: repoArtifact.ErrNotConfigured}
	uc = newTestUsecase(&fakeProcessor{}, r)
	_, err = uc.Convert(context.Background(), img, req)
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
	assert.NotErrorIs(t, err, ErrStorageError)

	r = &fakeRepository{err: errors.New("disk full")}
	uc = newTestUsecase(&fakeProcessor{}, r)
	_, err = uc.Convert(context.Background(), img, req)
	assert.ErrorIs(t, err, ErrStorageError)
}

func TestImageUsecase_Upscale(t *testing.T) {
	r := &fakeRepository{}
	uc := newTestUsecase(&fakeProcessor{}, r)

	res, err := uc.Upscale(context.Background(), &domain.UploadedImage{Data: []byte("src"), Filename: "cat.jpg"}, domain.UpscaleRequest{Scale: 4})
	require.NoError(t, err)

	assert.Equal(t, "upscaled_4x_cat.jpg", res.Filename)
	assert.Equal(t, 4, res.Scale)
	assert.Equal(t, domain.Size{Width: 10, Height: 5}, res.Original)
	assert.Equal(t, domain.Size{Width: 40, Height: 20}, res.Upscaled)

	require.Len(t, r.stored, 1)
	assert.True(t, strings.HasPrefix(r.stored[0].name, "upscaled_4x_"))
	assert.True(t, strings.HasSuffix(r.stored[0].name, ".png"))
	assert.Equal(t, "image/png", r.stored[0].contentType)
}

func TestImageUsecase_UpscaleInvalidScale(t *testing.T) {
	r := &fakeRepository{}
	uc := newTestUsecase(&fakeProcessor{}, r)

	for _, scale := range []int{0, 1, 3, 5} {
		_, err := uc.Upscale(context.Background(), &domain.UploadedImage{Data: []byte("src")}, domain.UpscaleRequest{Scale: scale})
		assert.ErrorIs(t, err, ErrInvalidScale, scale)
	}
	assert.Empty(t, r.stored)
}

func TestImageUsecase_UpscaleErrors(t *testing.T) {
	img := &domain.UploadedImage{Data: []byte("src"), Filename: "a.png"}

	uc := newTestUsecase(&fakeProcessor{upscaleErr: processor.ErrUnsupportedFormat}, &fakeRepository{})
	_, err := uc.Upscale(context.Background(), img, domain.UpscaleRequest{Scale: 2})
	assert.ErrorIs(t, err, ErrProcessing)

	uc = newTestUsecase(&fakeProcessor{}, &fakeRepository{err: repoArtifact.ErrNotConfigured})
	_, err = uc.Upscale(context.Background(), img, domain.UpscaleRequest{Scale: 2})
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestImageUsecase_TooLarge(t *testing.T) {
	img := &domain.UploadedImage{Data: []byte("src"), Filename: "a.png"}
	tooLarge := fmt.Errorf("%w: output 8000x8000", processor.ErrTooLarge)

	r := &fakeRepository{}
	uc := newTestUsecase(&fakeProcessor{convertErr: tooLarge, upscaleErr: tooLarge}, r)

	_, err := uc.Convert(context.Background(), img, domain.ConversionRequest{Profile: domain.ProfilePNG})
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.NotErrorIs(t, err, ErrProcessing)

	_, err = uc.Upscale(context.Background(), img, domain.UpscaleRequest{Scale: 4})
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.ErrorIs(t, err, processor.ErrTooLarge)
	assert.Empty(t, r.stored)
}

func TestConvertedFilename(t *testing.T) {
	assert.Equal(t, "converted_photo.webp", ConvertedFilename("photo.png", "webp"))
	assert.Equal(t, "converted_archive.tar.avif", ConvertedFilename("archive.tar.gz", "avif"))
	assert.Equal(t, "converted_noext.png", ConvertedFilename("noext", "png"))
	assert.Equal(t, "converted_evil.jpg", ConvertedFilename("../../evil.png", "jpg"))
	assert.Equal(t, "converted_.webp", ConvertedFilename("", "webp"))
}

func TestUpscaledFilename(t *testing.T) {
	assert.Equal(t, "upscaled_2x_photo.png", UpscaledFilename("photo.png", 2))
	assert.Equal(t, "upscaled_4x_b.jpg", UpscaledFilename(`C:\a\b.jpg`, 4))
	assert.Equal(t, "upscaled_2x_", UpscaledFilename("", 2))
}
