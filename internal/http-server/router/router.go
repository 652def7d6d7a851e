package router

import (
	"io/fs"
	"net/http"
	"strings"

	"image-converter/internal/http-server/handler/image"
	"image-converter/internal/http-server/middleware"
	"image-converter/internal/repository/artifact"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	ImageHandler *image.ImageHandler

	// UploadsDir is served under UploadsPrefix when the local backend is
	// active. Empty disables the static route.
	UploadsDir    string
	UploadsPrefix string
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoveryMiddleware)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.UploadsDir == "" || !strings.HasPrefix(r.URL.Path, h.UploadsPrefix+"/") {
				middleware.LoggingMiddleware(next).ServeHTTP(w, r)
			} else {
				next.ServeHTTP(w, r)
			}
		})
	})

	if h.UploadsDir != "" {
		prefix := strings.TrimSuffix(h.UploadsPrefix, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(uploadsFS{http.Dir(h.UploadsDir)}))
		r.Handle(prefix+"/*", files)
	}

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Post("/convert", h.ImageHandler.Convert)
		r.Post("/upscale", h.ImageHandler.Upscale)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}

// uploadsFS hides directory listings and the sentinel file.
type uploadsFS struct {
	fs http.FileSystem
}

func (u uploadsFS) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/"+artifact.Sentinel) {
		return nil, fs.ErrNotExist
	}

	f, err := u.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}

	return f, nil
}
