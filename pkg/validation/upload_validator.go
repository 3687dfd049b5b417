package validation

import (
	"fmt"
	"image"
	"mime"
	"strings"

	apperrors "github.com/anime-shed/clothing-inspector-go/internal/errors"
)

// UploadLimits defines what an uploaded photo must satisfy before decoding
type UploadLimits struct {
	MaxBytes int64

	// Decoded dimension bounds
	MinWidth  int
	MinHeight int
	MaxPixels int
}

// DefaultUploadLimits returns the default upload limits
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxBytes:  10 * 1024 * 1024,
		MinWidth:  1,
		MinHeight: 1,
		MaxPixels: 50_000_000,
	}
}

// UploadValidator checks uploaded files
type UploadValidator struct {
	limits UploadLimits
}

// NewUploadValidator creates a validator with the given limits
func NewUploadValidator(limits UploadLimits) *UploadValidator {
	return &UploadValidator{limits: limits}
}

// ValidateUpload checks the declared content type and payload size
func (v *UploadValidator) ValidateUpload(contentType string, size int64) error {
	if !IsImageContentType(contentType) {
		return apperrors.NewValidationError("File must be an image", nil)
	}
	if size == 0 {
		return apperrors.NewValidationError("File is empty", nil)
	}
	if v.limits.MaxBytes > 0 && size > v.limits.MaxBytes {
		return apperrors.NewValidationError(
			fmt.Sprintf("File exceeds maximum size of %d bytes", v.limits.MaxBytes), nil)
	}
	return nil
}

// ValidateDimensions checks the decoded image header against the limits
func (v *UploadValidator) ValidateDimensions(cfg image.Config) error {
	if cfg.Width < v.limits.MinWidth || cfg.Height < v.limits.MinHeight {
		return apperrors.NewDecodeError(
			fmt.Sprintf("Image is too small (%dx%d)", cfg.Width, cfg.Height), nil)
	}
	if v.limits.MaxPixels > 0 && cfg.Width*cfg.Height > v.limits.MaxPixels {
		return apperrors.NewValidationError(
			fmt.Sprintf("Image is too large (%dx%d)", cfg.Width, cfg.Height), nil)
	}
	return nil
}

// IsImageContentType reports whether a Content-Type header names an image
func IsImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}
