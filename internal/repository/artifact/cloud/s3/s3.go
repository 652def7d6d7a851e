package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"image-converter/internal/config"
	"image-converter/internal/domain"
	"image-converter/internal/repository/artifact"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/wb-go/wbf/zlog"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// FileRepository is the S3 flavour of the remote blob backend.
type FileRepository struct {
	client  objectAPI
	bucket  string
	prefix  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	logger  *zlog.Zerolog
}

// NewS3Repository mirrors the MinIO constructor: without credentials the
// repository is returned unconfigured.
func NewS3Repository(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	repo := &FileRepository{
		bucket:  cfg.Storage.Bucket,
		prefix:  cfg.Storage.KeyPrefix,
		baseURL: cfg.Storage.BaseURL(),
		ttl:     domain.ArtifactTTL,
		now:     time.Now,
		logger:  logger,
	}

	if !cfg.Storage.HasCredentials() {
		logger.Warn().Str("endpoint", cfg.Storage.Endpoint).Msg("S3 credentials are not set, uploads will be rejected")
		return repo, nil
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := cfg.Storage.Endpoint
	if endpoint != "" {
		scheme := "http://"
		if cfg.Storage.UseSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}

	repo.client = newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return repo, nil
}

func (r *FileRepository) Configured() bool {
	return r.client != nil
}

func (r *FileRepository) Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error) {
	if r.client == nil {
		return nil, artifact.ErrNotConfigured
	}

	if err := artifact.ValidateKey(name); err != nil {
		return nil, err
	}

	key := path.Join(r.prefix, name)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload %s: %v", artifact.ErrStorageError, key, err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Artifact uploaded")

	return artifact.New(name, artifact.ObjectURL(r.baseURL, r.bucket, key), r.now()), nil
}

// Sweep deletes objects under the key prefix older than the artifact TTL.
func (r *FileRepository) Sweep(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, artifact.ErrNotConfigured
	}

	now := r.now()
	removed := 0

	pages := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("%w: failed to list objects: %v", artifact.ErrStorageError, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if !artifact.Expired(*obj.LastModified, now, r.ttl) {
				continue
			}

			_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(r.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				r.logger.Error().Err(err).Str("key", *obj.Key).Msg("Failed to delete expired object")
				continue
			}

			removed++
			r.logger.Info().Str("key", *obj.Key).Msg("Deleted expired object")
		}
	}

	return removed, nil
}
