package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"image-converter/internal/config"
	"image-converter/internal/repository/artifact"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeS3 struct {
	puts      map[string][]byte
	putErr    error
	objects   []types.Object
	deleted   []string
	deleteErr map[string]error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := f.deleteErr[*in.Key]; err != nil {
		return nil, err
	}
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{Contents: f.objects, IsTruncated: aws.Bool(false)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Backend:   config.BackendS3,
			Endpoint:  "127.0.0.1:9000",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "converted",
			Region:    "eu-west-1",
			KeyPrefix: "uploads/",
		},
	}
}

func newFakeRepository(t *testing.T, fake *fakeS3) *FileRepository {
	t.Helper()
	zlog.Init()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		return aws.Config{}, nil
	}

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
		assert.True(t, opts.UsePathStyle)
		return fake
	}

	repo, err := NewS3Repository(context.Background(), testConfig(), &zlog.Logger)
	require.NoError(t, err)
	return repo
}

func TestS3Repository_Store(t *testing.T) {
	fake := &fakeS3{}
	repo := newFakeRepository(t, fake)

	a, err := repo.Store(context.Background(), []byte("img"), "abc.avif", "image/avif")
	require.NoError(t, err)

	assert.Equal(t, "abc.avif", a.Key)
	assert.Equal(t, "http://127.0.0.1:9000/converted/uploads/abc.avif", a.URL)
	assert.Equal(t, 24*time.Hour, a.ExpiresAt.Sub(a.CreatedAt))
	assert.Equal(t, []byte("img"), fake.puts["uploads/abc.avif"])
}

func TestS3Repository_StoreError(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("connection reset")}
	repo := newFakeRepository(t, fake)

	_, err := repo.Store(context.Background(), []byte("img"), "abc.avif", "image/avif")
	assert.ErrorIs(t, err, artifact.ErrStorageError)
	assert.NotErrorIs(t, err, artifact.ErrNotConfigured)
}

func TestS3Repository_Sweep(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	fake := &fakeS3{
		objects: []types.Object{
			{Key: aws.String("uploads/old.webp"), LastModified: aws.Time(now.Add(-25 * time.Hour))},
			{Key: aws.String("uploads/locked.webp"), LastModified: aws.Time(now.Add(-30 * time.Hour))},
			{Key: aws.String("uploads/new.webp"), LastModified: aws.Time(now.Add(-time.Hour))},
			{Key: nil},
		},
		deleteErr: map[string]error{"uploads/locked.webp": errors.New("access denied")},
	}
	repo := newFakeRepository(t, fake)
	repo.now = func() time.Time { return now }

	removed, err := repo.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"uploads/old.webp"}, fake.deleted)
}

func TestS3Repository_NotConfigured(t *testing.T) {
	zlog.Init()

	cfg := testConfig()
	cfg.Storage.AccessKey = ""

	repo, err := NewS3Repository(context.Background(), cfg, &zlog.Logger)
	require.NoError(t, err)
	assert.False(t, repo.Configured())

	_, err = repo.Store(context.Background(), []byte("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, artifact.ErrNotConfigured)

	_, err = repo.Sweep(context.Background())
	assert.ErrorIs(t, err, artifact.ErrNotConfigured)
}
