package models

// ClothingItem is one region reported by the object detector
type ClothingItem struct {
	ItemType    string  `json:"item_type"`
	Confidence  float64 `json:"confidence"`
	BoundingBox [4]int  `json:"bounding_box"`
}

// DominantColor is a color cluster resolved to a canonical name
type DominantColor struct {
	ColorName  string  `json:"color_name"`
	RGB        [3]int  `json:"rgb"`
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
}

// DetailedAttributes carries the caption classifier output including its
// raw inputs for diagnostics
type DetailedAttributes struct {
	Style            string   `json:"style"`
	Formality        string   `json:"formality"`
	Texture          string   `json:"texture"`
	Confidence       float64  `json:"confidence"`
	RawCaptions      []string `json:"raw_captions"`
	DetectedKeywords []string `json:"detected_keywords"`
}

// ConfidenceScores are per-axis confidences. Overall is a fixed value and
// is not derived from the other two.
type ConfidenceScores struct {
	Overall float64 `json:"overall"`
	Style   float64 `json:"style"`
	Color   float64 `json:"color"`
}

// ClothingAnalysisResponse is the record returned by the analyze endpoints
type ClothingAnalysisResponse struct {
	Status              string             `json:"status"`
	ClothingItems       []ClothingItem     `json:"clothing_items"`
	StyleClassification string             `json:"style_classification"`
	Formality           string             `json:"formality"`
	Texture             string             `json:"texture"`
	DominantColors      []DominantColor    `json:"dominant_colors"`
	ColorDistribution   map[string]float64 `json:"color_distribution"`
	DetailedAttributes  DetailedAttributes `json:"detailed_attributes"`
	ConfidenceScores    ConfidenceScores   `json:"confidence_scores"`
}
