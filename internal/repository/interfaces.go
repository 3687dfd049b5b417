package repository

import (
	"context"
)

// ImageRepository defines the interface for remote image access
type ImageRepository interface {
	// FetchImage retrieves the raw bytes of an image
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error

	// SourceFor names the backend that would serve imageURL
	SourceFor(imageURL string) string
}
