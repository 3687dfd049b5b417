package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/clothing-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/clothing-inspector-go/internal/errors"
	"github.com/anime-shed/clothing-inspector-go/internal/imaging"
	"github.com/anime-shed/clothing-inspector-go/internal/logger"
	"github.com/anime-shed/clothing-inspector-go/internal/observer"
	"github.com/anime-shed/clothing-inspector-go/internal/repository"
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
	"github.com/anime-shed/clothing-inspector-go/pkg/validation"
)

// SourceUpload marks images that arrived as multipart uploads
const SourceUpload = "upload"

// ClothingAnalysisService defines the request-level analysis operations
type ClothingAnalysisService interface {
	// AnalyzeUpload analyzes the raw bytes of an uploaded photo
	AnalyzeUpload(ctx context.Context, contentType string, data []byte) (*models.ClothingAnalysisResponse, error)

	// AnalyzeURL fetches a remote photo and analyzes it
	AnalyzeURL(ctx context.Context, imageURL string) (*models.ClothingAnalysisResponse, error)
}

// clothingAnalysisService implements ClothingAnalysisService
type clothingAnalysisService struct {
	imageRepo  repository.ImageRepository
	analyzer   analyzer.ImageAnalyzer
	uploads    *validation.UploadValidator
	events     observer.Subject
	targetSize int
}

// NewClothingAnalysisService creates a new clothing analysis service.
// imageRepo and events may be nil.
func NewClothingAnalysisService(
	imageRepo repository.ImageRepository,
	imageAnalyzer analyzer.ImageAnalyzer,
	uploads *validation.UploadValidator,
	events observer.Subject,
	targetSize int,
) ClothingAnalysisService {
	if uploads == nil {
		uploads = validation.NewUploadValidator(validation.DefaultUploadLimits())
	}
	if targetSize < 1 {
		targetSize = imaging.DefaultTargetSize
	}
	return &clothingAnalysisService{
		imageRepo:  imageRepo,
		analyzer:   imageAnalyzer,
		uploads:    uploads,
		events:     events,
		targetSize: targetSize,
	}
}

// AnalyzeUpload validates, decodes and analyzes an uploaded photo
func (s *clothingAnalysisService) AnalyzeUpload(ctx context.Context, contentType string, data []byte) (*models.ClothingAnalysisResponse, error) {
	start := time.Now()
	base := observer.AnalysisEvent{
		RequestID: RequestIDFromContext(ctx),
		Source:    SourceUpload,
		Metadata:  map[string]interface{}{"content_type": contentType, "size_bytes": len(data)},
	}
	s.publish(ctx, base, observer.AnalysisStarted, nil)

	if err := s.uploads.ValidateUpload(contentType, int64(len(data))); err != nil {
		s.fail(ctx, base, start, err)
		return nil, err
	}

	resp, degraded, err := s.analyzeBytes(ctx, data)
	if err != nil {
		s.fail(ctx, base, start, err)
		return nil, err
	}
	s.complete(ctx, base, start, degraded)
	return resp, nil
}

// AnalyzeURL validates and fetches imageURL, then analyzes it like an upload
func (s *clothingAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*models.ClothingAnalysisResponse, error) {
	start := time.Now()
	base := observer.AnalysisEvent{
		RequestID: RequestIDFromContext(ctx),
		ImageURL:  imageURL,
	}
	if s.imageRepo == nil {
		return nil, apperrors.NewInternalError("Remote image analysis is not configured", nil)
	}
	base.Source = s.imageRepo.SourceFor(imageURL)
	s.publish(ctx, base, observer.AnalysisStarted, nil)

	if err := s.imageRepo.ValidateImageURL(imageURL); err != nil {
		appErr := apperrors.NewValidationError("Invalid image URL", err)
		var cause *apperrors.AppError
		if errors.As(err, &cause) {
			appErr.Details = cause.Message
		}
		s.fail(ctx, base, start, appErr)
		return nil, appErr
	}

	data, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		var fetchErr *apperrors.AppError
		if errors.Is(err, context.DeadlineExceeded) {
			fetchErr = apperrors.NewTimeoutError("Image fetch timeout", err)
		} else {
			fetchErr = apperrors.NewNetworkError("Failed to fetch image", err)
		}
		s.publish(ctx, base, observer.ImageFetchFailed, fetchErr)
		s.fail(ctx, base, start, fetchErr)
		return nil, fetchErr
	}
	fetched := base
	fetched.ProcessingTime = time.Since(start)
	fetched.Metadata = map[string]interface{}{"size_bytes": len(data)}
	s.publish(ctx, fetched, observer.ImageFetched, nil)

	resp, degraded, err := s.analyzeBytes(ctx, data)
	if err != nil {
		s.fail(ctx, base, start, err)
		return nil, err
	}
	s.complete(ctx, base, start, degraded)
	return resp, nil
}

// analyzeBytes runs decode, preprocess and the coordinator on raw bytes
func (s *clothingAnalysisService) analyzeBytes(ctx context.Context, data []byte) (*models.ClothingAnalysisResponse, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, apperrors.NewDecodeError("Could not decode image", err)
	}
	if err := s.uploads.ValidateDimensions(cfg); err != nil {
		return nil, false, err
	}

	img, format, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, apperrors.NewDecodeError("Could not decode image", err)
	}

	logger.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(ctx),
		"format":     format,
		"width":      cfg.Width,
		"height":     cfg.Height,
	}).Debug("Image decoded")

	canvas := imaging.Preprocess(img, s.targetSize, s.targetSize)
	result := s.analyzer.Analyze(ctx, canvas)
	return result.Response(), result.Degraded(), nil
}

func (s *clothingAnalysisService) complete(ctx context.Context, base observer.AnalysisEvent, start time.Time, degraded bool) {
	base.ProcessingTime = time.Since(start)
	base.Success = true
	base.Degraded = degraded
	s.publish(ctx, base, observer.AnalysisCompleted, nil)
}

func (s *clothingAnalysisService) fail(ctx context.Context, base observer.AnalysisEvent, start time.Time, err error) {
	base.ProcessingTime = time.Since(start)
	s.publish(ctx, base, observer.AnalysisFailed, err)
}

func (s *clothingAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent, eventType observer.EventType, err error) {
	if s.events == nil {
		return
	}
	event.EventType = eventType
	event.Timestamp = time.Now().UTC()
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	s.events.NotifyObservers(ctx, event)
}

type requestIDKey struct{}

// WithRequestID attaches a request ID to ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached to ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
