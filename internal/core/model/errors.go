package model

import "errors"

var (
	// ErrInvalidImage means the submitted bytes are not a decodable raster image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrProcessingFailed means fingerprinting or OCR produced no usable result.
	ErrProcessingFailed = errors.New("image processing failed")
	// ErrCatalogUnavailable means the catalog snapshot could not be read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrPersistenceFailed means a new record could not be stored.
	ErrPersistenceFailed = errors.New("persistence failed")
)
