package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, int64(40_000_000), cfg.Upload.MaxPixels)
	assert.Equal(t, int64(64_000_000), cfg.Upload.MaxOutputPixels)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "public/uploads", cfg.Storage.LocalDir)
	assert.Equal(t, "/uploads", cfg.Storage.PublicPrefix)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
	assert.False(t, cfg.Storage.HasCredentials())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("STORAGE_ACCESS_KEY", "access")
	t.Setenv("STORAGE_SECRET_KEY", "secret")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("SWEEP_INTERVAL", "10m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMinIO, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.HasCredentials())
	assert.Equal(t, "https://localhost:9000", cfg.Storage.BaseURL())
	assert.Equal(t, 10*time.Minute, cfg.Sweeper.Interval)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: "9090"
storage:
  backend: s3
  bucket: images
  public_url: https://cdn.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Addr)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "images", cfg.Storage.Bucket)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.BaseURL())
	assert.Equal(t, "uploads/", cfg.Storage.KeyPrefix)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "vercel")
	_, err = Load("")
	assert.ErrorContains(t, err, "unknown storage backend")

	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("SWEEP_INTERVAL", "0s")
	_, err = Load("")
	assert.ErrorContains(t, err, "sweep interval")

	t.Setenv("SWEEP_INTERVAL", "1h")
	t.Setenv("UPSCALE_MAX_OUTPUT_PIXELS", "0")
	_, err = Load("")
	assert.ErrorContains(t, err, "pixel limits")
}

func TestStorageConfig_HasCredentials(t *testing.T) {
	assert.False(t, StorageConfig{AccessKey: "a"}.HasCredentials())
	assert.False(t, StorageConfig{SecretKey: "s"}.HasCredentials())
	assert.True(t, StorageConfig{AccessKey: "a", SecretKey: "s"}.HasCredentials())
}
