package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/clothing-inspector-go/internal/storage"
	"github.com/anime-shed/clothing-inspector-go/pkg/validation"
)

// Source names
const (
	SourceHTTP  = "http"
	SourceAzure = "azure"
)

// RemoteImageRepository routes each URL to the HTTP fetcher or, for Azure
// blob URLs when credentials are configured, to blob storage
type RemoteImageRepository struct {
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
	validator *validation.URLValidator
}

// NewRemoteImageRepository creates a repository. blobs may be nil.
func NewRemoteImageRepository(fetcher storage.ImageFetcher, blobs storage.BlobStorage, validator *validation.URLValidator) *RemoteImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &RemoteImageRepository{
		fetcher:   fetcher,
		blobs:     blobs,
		validator: validator,
	}
}

// FetchImage retrieves the raw bytes of an image
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if r.SourceFor(imageURL) == SourceAzure {
		data, err = r.blobs.GetImage(ctx, imageURL)
	} else {
		data, err = r.fetcher.FetchImage(ctx, imageURL)
	}
	if err == nil {
		return data, nil
	}

	var statusErr *storage.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", ErrImageNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImageURL, err)
	}
	return nil
}

// SourceFor names the backend that would serve imageURL
func (r *RemoteImageRepository) SourceFor(imageURL string) string {
	if r.blobs != nil && storage.IsBlobURL(imageURL) {
		return SourceAzure
	}
	return SourceHTTP
}
