package analyzer

import (
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// Status reports whether a sub-pipeline produced a real result or fell back
// to its default
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Fixed confidence values. They are not derived from the data.
const (
	ColorConfidence     = 0.9
	AttributeConfidence = 0.8
	OverallConfidence   = 0.85
)

// DetectionResult is the object detector's share of an analysis
type DetectionResult struct {
	Status Status
	Items  []models.ClothingItem
	Err    error
}

// AnalysisResult is the merged output of one coordinated analysis
type AnalysisResult struct {
	Detection  DetectionResult
	Colors     ColorAnalysis
	Attributes AttributeAnalysis
}

// Degraded reports whether any sub-pipeline fell back to its default
func (r AnalysisResult) Degraded() bool {
	return r.Detection.Status == StatusDegraded ||
		r.Colors.Status == StatusDegraded ||
		r.Attributes.Status == StatusDegraded
}

// Response converts the result into the public output record
func (r AnalysisResult) Response() *models.ClothingAnalysisResponse {
	items := r.Detection.Items
	if items == nil {
		items = []models.ClothingItem{}
	}
	captions := make([]string, len(r.Attributes.Captions))
	copy(captions, r.Attributes.Captions)
	keywords := r.Attributes.DetectedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	colors := r.Colors.DominantColors
	if colors == nil {
		colors = []models.DominantColor{}
	}
	distribution := r.Colors.Distribution
	if distribution == nil {
		distribution = map[string]float64{}
	}

	return &models.ClothingAnalysisResponse{
		Status:              "success",
		ClothingItems:       items,
		StyleClassification: r.Attributes.Style,
		Formality:           r.Attributes.Formality,
		Texture:             r.Attributes.Texture,
		DominantColors:      colors,
		ColorDistribution:   distribution,
		DetailedAttributes: models.DetailedAttributes{
			Style:            r.Attributes.Style,
			Formality:        r.Attributes.Formality,
			Texture:          r.Attributes.Texture,
			Confidence:       r.Attributes.Confidence,
			RawCaptions:      captions,
			DetectedKeywords: keywords,
		},
		ConfidenceScores: models.ConfidenceScores{
			Overall: OverallConfidence,
			Style:   r.Attributes.Confidence,
			Color:   r.Colors.Confidence,
		},
	}
}
