package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrRepositoryUnavailable indicates the image source could not be reached
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
