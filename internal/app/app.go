package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"image-converter/internal/config"
	image_h "image-converter/internal/http-server/handler/image"
	"image-converter/internal/http-server/router"
	local_repo "image-converter/internal/repository/artifact/local"
	image_uc "image-converter/internal/usecase/image"
	"image-converter/internal/usecase/processor"
	"image-converter/internal/worker"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg     *config.Config
	server  *http.Server
	logger  *zlog.Zerolog
	sweeper *worker.Sweeper
	local   *local_repo.FileRepository
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	backend, err := newBackend(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	imageProcessor := processor.NewImageProcessor(logger, processor.Limits{
		MaxInputPixels:  cfg.Upload.MaxPixels,
		MaxOutputPixels: cfg.Upload.MaxOutputPixels,
	})
	imageUsecase := image_uc.NewImageUsecase(imageProcessor, backend.repo, logger)
	imageHandler := image_h.NewImageHandler(imageUsecase, logger, cfg.Upload.MaxBytes)

	h := &router.Handler{
		ImageHandler: imageHandler,
	}
	if backend.local != nil {
		h.UploadsDir = backend.local.Dir()
		h.UploadsPrefix = cfg.Storage.PublicPrefix
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	a := &App{
		cfg:    cfg,
		server: server,
		logger: logger,
		local:  backend.local,
	}

	if backend.sweeper != nil {
		a.sweeper = worker.NewSweeper(backend.sweeper, cfg.Storage.Backend, cfg.Sweeper.Interval, logger)
	}

	return a, nil
}

func (a *App) Run() error {
	a.logger.Info().
		Str("addr", a.cfg.Server.Addr).
		Str("storage", a.cfg.Storage.Backend).
		Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	if a.sweeper != nil {
		a.sweeper.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.stopBackground()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.stopBackground()

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) stopBackground() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	if a.local != nil {
		a.local.Close()
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
