package image

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"image-converter/internal/domain"
	"image-converter/internal/http-server/handler/image/dto"
	image_uc "image-converter/internal/usecase/image"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20
)

type ImageHandler struct {
	usecase       imageUsecase
	validate      *validator.Validate
	logger        *zlog.Zerolog
	maxUploadSize int64
}

func NewImageHandler(usecase imageUsecase, logger *zlog.Zerolog, maxUploadSize int64) *ImageHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.DefaultMaxUploadSize
	}

	return &ImageHandler{
		usecase:       usecase,
		validate:      validator.New(),
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

func (h *ImageHandler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, err := h.readUpload(w, r)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	req := dto.ConvertRequest{
		Format:  formValueOr(r, "format", domain.DefaultTargetFormat),
		Quality: parseQuality(r.FormValue("quality")),
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), dto.CodeValidation, "")
		return
	}

	result, err := h.usecase.Convert(ctx, upload, domain.ConversionRequest{
		Profile: domain.ProfileFor(req.Format),
		Quality: req.Quality,
	})
	if err != nil {
		h.handleProcessingError(w, err, msgConversionFailed, upload.Filename)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ConvertResponse{
		URL:       result.Artifact.URL,
		Filename:  result.Filename,
		ExpiresAt: result.Artifact.ExpiresAt,
	})
}

func (h *ImageHandler) Upscale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, err := h.readUpload(w, r)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	scale, err := strconv.Atoi(strings.TrimSpace(formValueOr(r, "scale", strconv.Itoa(domain.DefaultScale))))
	if err != nil {
		h.logger.Warn().Str("scale", r.FormValue("scale")).Msg("Invalid scale")
		h.respondError(w, http.StatusBadRequest, ErrInvalidScale.Error(), dto.CodeValidation, "")
		return
	}

	req := dto.UpscaleRequest{Scale: scale}
	if err := h.validate.Struct(req); err != nil {
		h.logger.Warn().Int("scale", scale).Msg("Invalid scale")
		h.respondError(w, http.StatusBadRequest, ErrInvalidScale.Error(), dto.CodeValidation, "")
		return
	}

	result, err := h.usecase.Upscale(ctx, upload, domain.UpscaleRequest{Scale: req.Scale})
	if err != nil {
		h.handleProcessingError(w, err, msgUpscalingFailed, upload.Filename)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.UpscaleResponse{
		URL:          result.Artifact.URL,
		Filename:     result.Filename,
		OriginalSize: dto.Size{Width: result.Original.Width, Height: result.Original.Height},
		NewSize:      dto.Size{Width: result.Upscaled.Width, Height: result.Upscaled.Height},
		Scale:        result.Scale,
		ExpiresAt:    result.Artifact.ExpiresAt,
	})
}

// readUpload parses the multipart body and buffers the "file" part.
func (h *ImageHandler) readUpload(w http.ResponseWriter, r *http.Request) (*domain.UploadedImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, ErrNoFile
		default:
			h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
			return nil, ErrInvalidRequest
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			h.logger.Warn().Err(err).Msg("Failed to open uploaded file")
		}
		return nil, ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read file")
		return nil, ErrInvalidRequest
	}

	return &domain.UploadedImage{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}, nil
}

func (h *ImageHandler) handleUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, err.Error(), dto.CodeValidation, "")
	case errors.Is(err, ErrNoFile):
		h.respondError(w, http.StatusBadRequest, err.Error(), dto.CodeValidation, "")
	default:
		h.respondError(w, http.StatusBadRequest, ErrInvalidRequest.Error(), dto.CodeValidation, "")
	}
}

func (h *ImageHandler) handleProcessingError(w http.ResponseWriter, err error, message, filename string) {
	switch {
	case errors.Is(err, image_uc.ErrInvalidScale):
		h.respondError(w, http.StatusBadRequest, ErrInvalidScale.Error(), dto.CodeValidation, "")
	case errors.Is(err, image_uc.ErrImageTooLarge):
		h.logger.Warn().Err(err).Str("filename", filename).Msg("Image rejected by pixel limit")
		h.respondError(w, http.StatusRequestEntityTooLarge, msgImageTooLarge, dto.CodeValidation, cause(err))
	case errors.Is(err, image_uc.ErrStorageNotConfigured):
		h.logger.Error().Err(err).Str("filename", filename).Msg("Storage backend is not configured")
		h.respondError(w, http.StatusInternalServerError, msgNotConfigured, dto.CodeConfiguration, remediationNotConfigured)
	case errors.Is(err, image_uc.ErrProcessing):
		h.logger.Warn().Err(err).Str("filename", filename).Msg("Image processing failed")
		h.respondError(w, http.StatusInternalServerError, message, dto.CodeCodec, cause(err))
	case errors.Is(err, image_uc.ErrStorageError):
		h.logger.Error().Err(err).Str("filename", filename).Msg("Failed to store result")
		h.respondError(w, http.StatusInternalServerError, message, dto.CodeStorage, "")
	default:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Request failed")
		h.respondError(w, http.StatusInternalServerError, message, "", "")
	}
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message, code, details string) {
	h.respondJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// cause returns the text of the innermost wrapped error of a joined
// "%w: %w" chain.
func cause(err error) string {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 0 {
			return errs[len(errs)-1].Error()
		}
	}
	return err.Error()
}

func formValueOr(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

// parseQuality accepts any integer; clamping happens in the codec. Text that
// is not an integer falls back to the default.
func parseQuality(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.DefaultQuality
	}
	return q
}
