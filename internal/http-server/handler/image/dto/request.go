package dto

type ConvertRequest struct {
	Format  string `validate:"required"`
	Quality int
}

type UpscaleRequest struct {
	Scale int `validate:"oneof=2 4"`
}
