package client

import (
	"time"

	"image-converter/internal/domain"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type UpscalePhase string

const (
	PhaseSelecting  UpscalePhase = "selecting"
	PhaseProcessing UpscalePhase = "processing"
	PhasePreviewing UpscalePhase = "previewing"
)

type FileEntry struct {
	ID           string    `json:"id"`
	File         File      `json:"file"`
	PreviewURL   string    `json:"previewUrl,omitempty"`
	Status       Status    `json:"status"`
	ResultURL    string    `json:"resultUrl,omitempty"`
	DownloadName string    `json:"downloadName,omitempty"`
	Error        string    `json:"error,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// UpscaleModal holds the before/after comparison for one entry.
type UpscaleModal struct {
	EntryID      string       `json:"entryId"`
	Phase        UpscalePhase `json:"phase"`
	Scale        int          `json:"scale,omitempty"`
	OriginalURL  string       `json:"originalUrl,omitempty"`
	UpscaledURL  string       `json:"upscaledUrl,omitempty"`
	OriginalSize domain.Size  `json:"originalSize"`
	NewSize      domain.Size  `json:"newSize"`
	DownloadName string       `json:"downloadName,omitempty"`
}

// ViewModel is everything a front end needs to render the converter.
type ViewModel struct {
	Theme        Theme         `json:"theme"`
	Files        []FileEntry   `json:"files"`
	TargetFormat string        `json:"targetFormat"`
	Quality      int           `json:"quality"`
	Processing   bool          `json:"processing"`
	Toast        *Toast        `json:"toast,omitempty"`
	Upscale      *UpscaleModal `json:"upscale,omitempty"`
}

func NewViewModel() ViewModel {
	return ViewModel{
		Theme:        ThemeLight,
		Files:        []FileEntry{},
		TargetFormat: domain.DefaultTargetFormat,
		Quality:      domain.DefaultQuality,
	}
}

func (v ViewModel) clone() ViewModel {
	out := v
	out.Files = append([]FileEntry(nil), v.Files...)
	if out.Files == nil {
		out.Files = []FileEntry{}
	}
	if v.Toast != nil {
		t := *v.Toast
		out.Toast = &t
	}
	if v.Upscale != nil {
		m := *v.Upscale
		out.Upscale = &m
	}
	return out
}
