package app

import (
	"context"
	"errors"
	"testing"

	"image-converter/internal/config"
	"image-converter/internal/repository/artifact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", backend)
	t.Setenv("STORAGE_LOCAL_DIR", t.TempDir())
	t.Setenv("STORAGE_ACCESS_KEY", "")
	t.Setenv("STORAGE_SECRET_KEY", "")
	t.Setenv("CONFIG_PATH", "")

	cfg, err := config.MustLoad()
	require.NoError(t, err)
	return cfg
}

func TestNewBackend_Local(t *testing.T) {
	zlog.Init()
	cfg := testConfig(t, config.BackendLocal)

	b, err := newBackend(context.Background(), cfg, &zlog.Logger)
	require.NoError(t, err)
	require.NotNil(t, b.local)
	assert.NotNil(t, b.sweeper)
	assert.Equal(t, cfg.Storage.LocalDir, b.local.Dir())
	b.local.Close()
}

func TestNewBackend_RemoteWithoutCredentials(t *testing.T) {
	zlog.Init()

	for _, name := range []string{config.BackendMinIO, config.BackendS3} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t, name)

			b, err := newBackend(context.Background(), cfg, &zlog.Logger)
			require.NoError(t, err)
			assert.Nil(t, b.local)
			assert.Nil(t, b.sweeper)

			_, err = b.repo.Store(context.Background(), []byte("x"), "a.png", "image/png")
			assert.True(t, errors.Is(err, artifact.ErrNotConfigured))
		})
	}
}

func TestNewApp_Local(t *testing.T) {
	zlog.Init()
	cfg := testConfig(t, config.BackendLocal)

	a, err := NewApp(cfg, &zlog.Logger)
	require.NoError(t, err)
	assert.NotNil(t, a.sweeper)
	assert.NotNil(t, a.local)
	assert.Equal(t, ":"+cfg.Server.Addr, a.server.Addr)
	a.local.Close()
}
