// Package fingerprint decodes poster photos, normalizes them for recognition,
// and derives the 64-bit perceptual hash used for near-duplicate detection.
//
// Normalization runs before hashing so that scan noise, exposure and
// resolution differences between two photos of the same poster move the hash
// as little as possible. The same normalized image is handed to OCR.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

// Extractor normalizes images and computes fingerprints. It is safe for
// concurrent use.
type Extractor struct {
	cfg config.FingerprintConfig
}

func NewExtractor(cfg config.FingerprintConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Decode parses raw bytes as a raster image, applying EXIF orientation.
// Images whose header declares more than MaxPixels are rejected before any
// pixel data is read.
func (e *Extractor) Decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty upload", model.ErrInvalidImage)
	}
	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", model.ErrInvalidImage)
	}
	if limit := e.cfg.MaxPixels; limit > 0 && int64(header.Width)*int64(header.Height) > limit {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", model.ErrInvalidImage, header.Width, header.Height, limit)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", model.ErrInvalidImage)
	}
	return img, nil
}

// Normalize converts img to a cleaned-up grayscale image: auto-contrast,
// sharpen, median denoise, up-scaling of small images, then a global contrast
// and brightness lift.
func (e *Extractor) Normalize(img image.Image) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	autoContrast(gray, e.cfg.ContrastCutoff)

	var out image.Image = gray
	if e.cfg.Sharpen > 0 {
		out = imaging.Sharpen(out, e.cfg.Sharpen)
	}
	out = medianFilter(toGray(out))

	if w, h, ok := upscaleSize(out.Bounds(), e.cfg.MinDimension, e.cfg.MaxPixels); ok {
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}
	if e.cfg.ContrastBoost != 0 {
		out = imaging.AdjustContrast(out, e.cfg.ContrastBoost)
	}
	if e.cfg.Brightness != 0 {
		out = imaging.AdjustBrightness(out, e.cfg.Brightness)
	}
	return toGray(out)
}

// Fingerprint computes the DCT perceptual hash of an already normalized image.
func (e *Extractor) Fingerprint(img image.Image) (model.Fingerprint, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("%w: perceptual hash: %v", model.ErrProcessingFailed, err)
	}
	return model.Fingerprint(hash.GetHash()), nil
}

// Extract decodes, normalizes and fingerprints raw image bytes. The
// normalized image is returned for text recognition.
func (e *Extractor) Extract(raw []byte) (*image.Gray, model.Fingerprint, error) {
	img, err := e.Decode(raw)
	if err != nil {
		return nil, 0, err
	}
	normalized := e.Normalize(img)
	fp, err := e.Fingerprint(normalized)
	if err != nil {
		return nil, 0, err
	}
	return normalized, fp, nil
}

// upscaleSize returns the target size when the shorter side of b is below
// minDim, preserving the aspect ratio. The target area never exceeds
// maxPixels when it is positive, so thin strips grow only as far as the
// budget allows.
func upscaleSize(b image.Rectangle, minDim int, maxPixels int64) (int, int, bool) {
	w, h := b.Dx(), b.Dy()
	if minDim <= 0 || w == 0 || h == 0 {
		return w, h, false
	}
	shorter := min(w, h)
	if shorter >= minDim {
		return w, h, false
	}
	scale := float64(minDim) / float64(shorter)
	if maxPixels > 0 {
		scale = min(scale, math.Sqrt(float64(maxPixels)/(float64(w)*float64(h))))
	}
	tw, th := int(float64(w)*scale), int(float64(h)*scale)
	if tw <= w && th <= h {
		return w, h, false
	}
	return max(tw, 1), max(th, 1), true
}
