package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"image-converter/internal/config"
	"image-converter/internal/domain"
	"image-converter/internal/repository/artifact"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/wb-go/wbf/zlog"
)

const lifecycleRuleID = "expire-converted-artifacts"

// bucketAPI is the part of *minio.Client the repository uses.
type bucketAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// FileRepository uploads artifacts to a MinIO (or any S3-compatible) bucket
// under a fixed key prefix. Objects must be publicly readable for the
// returned URL to work.
type FileRepository struct {
	client         bucketAPI
	bucket         string
	region         string
	prefix         string
	baseURL        string
	applyLifecycle bool
	ttl            time.Duration
	now            func() time.Time
	logger         *zlog.Zerolog
}

// NewMinIORepository builds the repository. Missing credentials are not an
// error here: the repository is created unconfigured and every Store fails
// with artifact.ErrNotConfigured.
func NewMinIORepository(cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	repo := &FileRepository{
		bucket:         cfg.Storage.Bucket,
		region:         cfg.Storage.Region,
		prefix:         cfg.Storage.KeyPrefix,
		baseURL:        cfg.Storage.BaseURL(),
		applyLifecycle: cfg.Storage.ApplyLifecycle,
		ttl:            domain.ArtifactTTL,
		now:            time.Now,
		logger:         logger,
	}

	if !cfg.Storage.HasCredentials() {
		logger.Warn().Str("endpoint", cfg.Storage.Endpoint).Msg("MinIO credentials are not set, uploads will be rejected")
		return repo, nil
	}

	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	repo.client = client
	return repo, nil
}

func (r *FileRepository) Configured() bool {
	return r.client != nil
}

// Init makes sure the bucket exists and, when enabled, installs a lifecycle
// rule expiring objects under the key prefix after one day.
func (r *FileRepository) Init(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", r.bucket, err)
	}

	if !exists {
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{Region: r.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Bucket created")
	}

	if !r.applyLifecycle {
		return nil
	}

	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     lifecycleRuleID,
			Status: "Enabled",
			RuleFilter: lifecycle.Filter{
				Prefix: r.prefix,
			},
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(int(r.ttl / (24 * time.Hour))),
			},
		},
	}

	if err := r.client.SetBucketLifecycle(ctx, r.bucket, lc); err != nil {
		return fmt.Errorf("failed to set bucket lifecycle: %w", err)
	}

	r.logger.Info().Str("bucket", r.bucket).Str("prefix", r.prefix).Msg("Bucket lifecycle applied")
	return nil
}

func (r *FileRepository) Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error) {
	if r.client == nil {
		return nil, artifact.ErrNotConfigured
	}

	if err := artifact.ValidateKey(name); err != nil {
		return nil, err
	}

	key := r.objectKey(name)

	_, err := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload %s: %v", artifact.ErrStorageError, key, err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Artifact uploaded")

	return artifact.New(name, r.ObjectURL(name), r.now()), nil
}

// Sweep deletes objects under the key prefix older than the artifact TTL.
func (r *FileRepository) Sweep(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, artifact.ErrNotConfigured
	}

	now := r.now()
	removed := 0

	objects := r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    r.prefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return removed, fmt.Errorf("%w: failed to list objects: %v", artifact.ErrStorageError, obj.Err)
		}

		if !artifact.Expired(obj.LastModified, now, r.ttl) {
			continue
		}

		if err := r.client.RemoveObject(ctx, r.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			r.logger.Error().Err(err).Str("key", obj.Key).Msg("Failed to delete expired object")
			continue
		}

		removed++
		r.logger.Info().Str("key", obj.Key).Msg("Deleted expired object")
	}

	return removed, nil
}

func (r *FileRepository) ObjectURL(name string) string {
	return artifact.ObjectURL(r.baseURL, r.bucket, r.objectKey(name))
}

func (r *FileRepository) objectKey(name string) string {
	return path.Join(r.prefix, name)
}
