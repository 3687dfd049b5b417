package analyzer

import (
	"context"
	"image"

	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// ObjectDetector locates garments in a preprocessed image
type ObjectDetector interface {
	Detect(ctx context.Context, img image.Image) ([]models.ClothingItem, error)
}

// CaptionGenerator describes an image in free text, optionally steered by
// a prompt. An empty prompt requests an unprompted caption.
type CaptionGenerator interface {
	Caption(ctx context.Context, img image.Image, prompt string) (string, error)
}

// ImageAnalyzer defines the main interface for image analysis
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img image.Image) AnalysisResult

	// Lifecycle management
	Close() error
}
