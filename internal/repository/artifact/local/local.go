package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"image-converter/internal/domain"
	"image-converter/internal/repository/artifact"

	"github.com/wb-go/wbf/zlog"
)

// FileRepository stores artifacts as flat files in one directory and evicts
// them lazily: every Store kicks off a background sweep.
type FileRepository struct {
	dir      string
	prefix   string
	ttl      time.Duration
	now      func() time.Time
	logger   *zlog.Zerolog
	sweeping atomic.Bool
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewFileRepository(dir, publicPrefix string, logger *zlog.Zerolog) *FileRepository {
	return &FileRepository{
		dir:    dir,
		prefix: publicPrefix,
		ttl:    domain.ArtifactTTL,
		now:    time.Now,
		logger: logger,
	}
}

func (r *FileRepository) Dir() string {
	return r.dir
}

func (r *FileRepository) Store(ctx context.Context, data []byte, name, contentType string) (*domain.Artifact, error) {
	if err := artifact.ValidateKey(name); err != nil {
		return nil, err
	}

	r.triggerSweep()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create upload dir: %v", artifact.ErrStorageError, err)
	}

	filePath := filepath.Join(r.dir, name)
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", artifact.ErrDuplicateKey, name)
		}
		return nil, fmt.Errorf("%w: failed to create file: %v", artifact.ErrStorageError, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("%w: failed to write file: %v", artifact.ErrStorageError, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("%w: failed to close file: %v", artifact.ErrStorageError, err)
	}

	r.logger.Debug().
		Str("key", name).
		Str("content_type", contentType).
		Int("size", len(data)).
		Msg("Artifact stored")

	return artifact.New(name, path.Join(r.prefix, name), r.now()), nil
}

// Sweep removes every entry except the sentinel whose modification time is
// older than the artifact TTL. Failures on single files are logged and
// skipped. If another sweep is already running it returns 0 immediately.
func (r *FileRepository) Sweep(ctx context.Context) (int, error) {
	if !r.sweeping.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer r.sweeping.Store(false)

	return r.sweep(ctx)
}

func (r *FileRepository) sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: failed to read upload dir: %v", artifact.ErrStorageError, err)
	}

	now := r.now()
	removed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}

		if entry.IsDir() || entry.Name() == artifact.Sentinel {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			r.logger.Error().Err(err).Str("file", entry.Name()).Msg("Failed to stat file during sweep")
			continue
		}

		if !artifact.Expired(info.ModTime(), now, r.ttl) {
			continue
		}

		if err := os.Remove(filepath.Join(r.dir, entry.Name())); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			r.logger.Error().Err(err).Str("file", entry.Name()).Msg("Failed to delete expired file")
			continue
		}

		removed++
		r.logger.Info().Str("file", entry.Name()).Msg("Deleted expired file")
	}

	return removed, nil
}

// Close stops new background sweeps and waits for in-flight ones. Stores
// still work after Close but no longer trigger a sweep.
func (r *FileRepository) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

func (r *FileRepository) triggerSweep() {
	r.mu.Lock()
	if r.closed || !r.sweeping.CompareAndSwap(false, true) {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.sweeping.Store(false)

		if _, err := r.sweep(context.Background()); err != nil {
			r.logger.Error().Err(err).Str("dir", r.dir).Msg("Cleanup failed")
		}
	}()
}
