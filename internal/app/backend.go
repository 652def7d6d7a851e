package app

import (
	"context"
	"fmt"

	"image-converter/internal/config"
	"image-converter/internal/domain"
	minio_repo "image-converter/internal/repository/artifact/cloud/minio"
	s3_repo "image-converter/internal/repository/artifact/cloud/s3"
	local_repo "image-converter/internal/repository/artifact/local"

	"github.com/wb-go/wbf/zlog"
)

type artifactStore interface {
	Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error)
	Sweep(ctx context.Context) (int, error)
}

type backend struct {
	repo artifactStore
	// sweeper is nil when the backend cannot be swept (remote without
	// credentials).
	sweeper artifactStore
	local   *local_repo.FileRepository
}

func newBackend(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		repo := local_repo.NewFileRepository(cfg.Storage.LocalDir, cfg.Storage.PublicPrefix, logger)
		logger.Info().Str("dir", cfg.Storage.LocalDir).Msg("Using local artifact storage")
		return &backend{repo: repo, sweeper: repo, local: repo}, nil

	case config.BackendMinIO:
		repo, err := minio_repo.NewMinIORepository(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file repository: %w", err)
		}
		if !repo.Configured() {
			return &backend{repo: repo}, nil
		}
		if err := repo.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to init bucket: %w", err)
		}
		logger.Info().Str("bucket", cfg.Storage.Bucket).Msg("Using MinIO artifact storage")
		return &backend{repo: repo, sweeper: repo}, nil

	case config.BackendS3:
		repo, err := s3_repo.NewS3Repository(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file repository: %w", err)
		}
		if !repo.Configured() {
			return &backend{repo: repo}, nil
		}
		logger.Info().Str("bucket", cfg.Storage.Bucket).Msg("Using S3 artifact storage")
		return &backend{repo: repo, sweeper: repo}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
