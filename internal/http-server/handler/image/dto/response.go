package dto

import "time"

const (
	CodeValidation    = "validation_error"
	CodeConfiguration = "configuration_error"
	CodeCodec         = "codec_error"
	CodeStorage       = "storage_error"
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ConvertResponse struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UpscaleResponse struct {
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	OriginalSize Size      `json:"originalSize"`
	NewSize      Size      `json:"newSize"`
	Scale        int       `json:"scale"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
