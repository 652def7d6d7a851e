package client

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"image-converter/internal/domain"
	"image-converter/internal/http-server/handler/image/dto"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type api interface {
	Convert(ctx context.Context, f File, format string, quality int) (*dto.ConvertResponse, error)
	Upscale(ctx context.Context, f File, scale int) (*dto.UpscaleResponse, error)
	Download(ctx context.Context, artifactURL, dst string) error
}

// Controller drives the converter view: it owns the file list and the
// upscale dialog and turns user actions into server requests. Requests are
// issued one at a time and never retried.
//
// Removing an entry does not cancel a request already in flight for it; the
// late result is dropped.
type Controller struct {
	mu     sync.Mutex
	api    api
	view   ViewModel
	logger *zlog.Zerolog
}

func NewController(api api, logger *zlog.Zerolog) *Controller {
	return &Controller{
		api:    api,
		view:   NewViewModel(),
		logger: logger,
	}
}

// View returns a snapshot of the current state.
func (c *Controller) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

func (c *Controller) ToggleTheme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Theme == ThemeDark {
		c.view.Theme = ThemeLight
	} else {
		c.view.Theme = ThemeDark
	}
	return c.view.Theme
}

// SetTargetFormat accepts a MIME type or a bare format name.
func (c *Controller) SetTargetFormat(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.TargetFormat = domain.ProfileFor(target).MimeType
}

func (c *Controller) SetQuality(q int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Quality = domain.ClampQuality(q)
}

func (c *Controller) DismissToast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Toast = nil
}

// AddFiles appends one pending entry per file and returns their ids.
func (c *Controller) AddFiles(files ...File) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(files))
	for _, f := range files {
		id := uuid.NewString()
		c.view.Files = append(c.view.Files, FileEntry{
			ID:         id,
			File:       f,
			PreviewURL: previewURL(f.Path),
			Status:     StatusPending,
		})
		ids = append(ids, id)
	}

	if len(files) > 0 {
		c.toast(ToastSuccess, fmt.Sprintf("Added %d images", len(files)))
	}
	return ids
}

func (c *Controller) RemoveFile(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrEntryNotFound
	}

	c.view.Files = append(c.view.Files[:i], c.view.Files[i+1:]...)

	if c.view.Upscale != nil && c.view.Upscale.EntryID == id && c.view.Upscale.Phase != PhaseProcessing {
		c.view.Upscale = nil
	}
	return nil
}

func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.Files = []FileEntry{}

	if c.view.Upscale != nil && c.view.Upscale.Phase != PhaseProcessing {
		c.view.Upscale = nil
	}
}

// ConvertAll converts every entry that is not done yet, one request at a
// time, with the current target format and quality. It returns the number
// of entries that failed; per-entry errors are recorded on the entries.
func (c *Controller) ConvertAll(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.view.Processing {
		c.mu.Unlock()
		return 0, ErrBusy
	}

	var queue []string
	for _, e := range c.view.Files {
		if e.Status != StatusDone {
			queue = append(queue, e.ID)
		}
	}
	if len(queue) == 0 {
		c.mu.Unlock()
		return 0, nil
	}

	c.view.Processing = true
	format, quality := c.view.TargetFormat, c.view.Quality
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.view.Processing = false
		c.mu.Unlock()
	}()

	failed := 0
	for _, id := range queue {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		f, ok := c.startConversion(id)
		if !ok {
			continue
		}

		resp, err := c.api.Convert(ctx, f, format, quality)
		if err != nil {
			failed++
			c.logger.Warn().Err(err).Str("file", f.Name).Msg("Conversion failed")
		}
		c.finishConversion(id, resp, err)
	}

	c.mu.Lock()
	if failed == 0 {
		c.toast(ToastSuccess, "Conversion complete")
	} else {
		c.toast(ToastError, fmt.Sprintf("%d of %d conversions failed", failed, len(queue)))
	}
	c.mu.Unlock()

	return failed, nil
}

// Download saves a converted entry into dir under its download name.
func (c *Controller) Download(ctx context.Context, id, dir string) (string, error) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return "", ErrEntryNotFound
	}
	e := c.view.Files[i]
	c.mu.Unlock()

	if e.Status != StatusDone || e.ResultURL == "" {
		return "", ErrNotReady
	}

	dst, err := destination(dir, e.DownloadName)
	if err != nil {
		return "", err
	}
	if err := c.api.Download(ctx, e.ResultURL, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (c *Controller) OpenUpscale(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Upscale != nil && c.view.Upscale.Phase == PhaseProcessing {
		return ErrBusy
	}
	if c.indexOf(id) < 0 {
		return ErrEntryNotFound
	}

	c.view.Upscale = &UpscaleModal{EntryID: id, Phase: PhaseSelecting}
	return nil
}

// SelectScale issues the upscale request. On success the dialog moves to
// previewing; on failure it returns to selecting with an error toast.
func (c *Controller) SelectScale(ctx context.Context, scale int) error {
	c.mu.Lock()
	modal := c.view.Upscale
	if modal == nil {
		c.mu.Unlock()
		return ErrModalClosed
	}
	if modal.Phase != PhaseSelecting {
		c.mu.Unlock()
		return ErrWrongPhase
	}

	i := c.indexOf(modal.EntryID)
	if i < 0 {
		c.view.Upscale = nil
		c.mu.Unlock()
		return ErrEntryNotFound
	}

	entry := c.view.Files[i]
	modal.Phase = PhaseProcessing
	modal.Scale = scale
	c.mu.Unlock()

	resp, err := c.api.Upscale(ctx, entry.File, scale)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Upscale != modal {
		return nil
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("file", entry.File.Name).Int("scale", scale).Msg("Upscale failed")
		modal.Phase = PhaseSelecting
		modal.Scale = 0
		c.toast(ToastError, "Upscale failed: "+userMessage(err))
		return err
	}

	modal.Phase = PhasePreviewing
	modal.Scale = resp.Scale
	modal.OriginalURL = entry.PreviewURL
	modal.UpscaledURL = resp.URL
	modal.OriginalSize = domain.Size{Width: resp.OriginalSize.Width, Height: resp.OriginalSize.Height}
	modal.NewSize = domain.Size{Width: resp.NewSize.Width, Height: resp.NewSize.Height}
	modal.DownloadName = resp.Filename

	c.toast(ToastSuccess, fmt.Sprintf("Upscaled %dx (%dx%d)", resp.Scale, resp.NewSize.Width, resp.NewSize.Height))
	return nil
}

// ConfirmUpscale downloads the previewed result into dir and closes the
// dialog.
func (c *Controller) ConfirmUpscale(ctx context.Context, dir string) (string, error) {
	c.mu.Lock()
	modal := c.view.Upscale
	if modal == nil {
		c.mu.Unlock()
		return "", ErrModalClosed
	}
	if modal.Phase != PhasePreviewing {
		c.mu.Unlock()
		return "", ErrWrongPhase
	}
	m := *modal
	c.mu.Unlock()

	dst, err := destination(dir, m.DownloadName)
	if err != nil {
		c.mu.Lock()
		c.toast(ToastError, "Download failed: "+err.Error())
		c.mu.Unlock()
		return "", err
	}
	if err := c.api.Download(ctx, m.UpscaledURL, dst); err != nil {
		c.mu.Lock()
		c.toast(ToastError, "Download failed: "+userMessage(err))
		c.mu.Unlock()
		return "", err
	}

	c.mu.Lock()
	if c.view.Upscale == modal {
		c.view.Upscale = nil
	}
	c.mu.Unlock()

	return dst, nil
}

// CancelUpscale closes the dialog. It cannot be closed while a request is
// running.
func (c *Controller) CancelUpscale() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Upscale == nil {
		return nil
	}
	if c.view.Upscale.Phase == PhaseProcessing {
		return ErrBusy
	}
	c.view.Upscale = nil
	return nil
}

func (c *Controller) startConversion(id string) (File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return File{}, false
	}

	e := &c.view.Files[i]
	e.Status = StatusConverting
	e.Error = ""
	return e.File, true
}

func (c *Controller) finishConversion(id string, resp *dto.ConvertResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return
	}

	e := &c.view.Files[i]
	if err != nil {
		e.Status = StatusError
		e.Error = userMessage(err)
		c.toast(ToastError, fmt.Sprintf("%s: %s", e.File.Name, e.Error))
		return
	}

	e.Status = StatusDone
	e.ResultURL = resp.URL
	e.DownloadName = resp.Filename
	e.ExpiresAt = resp.ExpiresAt
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id string) int {
	for i, e := range c.view.Files {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) toast(kind ToastKind, msg string) {
	c.view.Toast = &Toast{Kind: kind, Message: msg}
}

// destination places a server-supplied file name inside dir. Only the last
// path element is kept, so the name can never point outside dir.
func destination(dir, name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(dir, base), nil
}

func previewURL(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
