package analyzer

import (
	"context"
	"errors"
	"image"
	"reflect"
	"sync"
	"testing"
)

// fakeCaptioner answers by prompt. Prompts missing from captions fail.
type fakeCaptioner struct {
	mu       sync.Mutex
	captions map[string]string
	panicOn  string
	calls    []string
}

func (f *fakeCaptioner) Caption(_ context.Context, _ image.Image, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()

	if f.panicOn != "" && prompt == f.panicOn {
		panic("caption model crashed")
	}
	if c, ok := f.captions[prompt]; ok {
		return c, nil
	}
	return "", errors.New("caption model unavailable")
}

func TestClassifyCaptions(t *testing.T) {
	tests := []struct {
		name      string
		captions  CaptionSet
		style     string
		formality string
		texture   string
	}{
		{
			name:      "formal keywords",
			captions:  CaptionSet{"a man wearing a suit and tie", "blazer", ""},
			style:     StyleFormal,
			formality: FormalityFormal,
			texture:   TextureUnknown,
		},
		{
			name:      "leggings score for casual style and silk texture",
			captions:  CaptionSet{"a woman in black leggings", "", "shiny smooth fabric"},
			style:     StyleCasual,
			formality: FormalityCasual,
			texture:   "silk",
		},
		{
			name:      "all empty",
			captions:  CaptionSet{"", "", ""},
			style:     StyleCasual,
			formality: FormalityCasual,
			texture:   TextureUnknown,
		},
		{
			name:      "sports beats casual",
			captions:  CaptionSet{"a runner at the gym", "athletic workout wear", "polyester"},
			style:     StyleAthletic,
			formality: FormalityCasual,
			texture:   "synthetic",
		},
		{
			name:      "formal tied with casual falls through",
			captions:  CaptionSet{"a suit with jeans", "", ""},
			style:     StyleCasual,
			formality: FormalityCasual,
			texture:   "denim",
		},
		{
			name:      "sports tied with casual stays casual",
			captions:  CaptionSet{"gym hoodie", "", ""},
			style:     StyleCasual,
			formality: FormalityCasual,
			texture:   TextureUnknown,
		},
		{
			name:      "texture tie goes to the earlier category",
			captions:  CaptionSet{"wool and cotton", "", ""},
			style:     StyleCasual,
			formality: FormalityCasual,
			texture:   "cotton",
		},
		{
			name:      "upper case captions are normalized",
			captions:  CaptionSet{"ELEGANT BUSINESS Suit", "", "LEATHER"},
			style:     StyleFormal,
			formality: FormalityFormal,
			texture:   "leather",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyCaptions(tt.captions)

			if result.Style != tt.style {
				t.Errorf("Expected style %s, got %s", tt.style, result.Style)
			}
			if result.Formality != tt.formality {
				t.Errorf("Expected formality %s, got %s", tt.formality, result.Formality)
			}
			if result.Texture != tt.texture {
				t.Errorf("Expected texture %s, got %s", tt.texture, result.Texture)
			}
			if result.Confidence != AttributeConfidence {
				t.Errorf("Expected confidence %v, got %v", AttributeConfidence, result.Confidence)
			}
		})
	}
}

func TestScoreText_KeywordsCountOnce(t *testing.T) {
	scores := ScoreText("suit suit suit and a tie")

	if got := scores.StyleScore("formal"); got != 2 {
		t.Errorf("Expected formal score 2, got %d", got)
	}
	// "leggings" is in both lexicons
	scores = ScoreText("leggings")
	if scores.StyleScore("casual") != 1 || scores.TextureScore("silk") != 1 {
		t.Errorf("Expected leggings to score for casual and silk, got %+v", scores)
	}
	// substring matches count too
	if ScoreText("a suitcase").StyleScore("formal") != 1 {
		t.Error("Expected substring match of suit inside suitcase")
	}
}

func TestClassifyCaptions_DetectedKeywords(t *testing.T) {
	result := ClassifyCaptions(CaptionSet{"a casual t-shirt", "casual dress shirt", "soft cotton"})

	// multi-word keywords never match a single token; duplicates are kept
	expected := []string{"casual", "t-shirt", "casual"}
	if !reflect.DeepEqual(result.DetectedKeywords, expected) {
		t.Errorf("Expected keywords %v, got %v", expected, result.DetectedKeywords)
	}

	empty := ClassifyCaptions(CaptionSet{"", "", ""})
	if empty.DetectedKeywords == nil || len(empty.DetectedKeywords) != 0 {
		t.Errorf("Expected empty non-nil keywords, got %#v", empty.DetectedKeywords)
	}
}

func TestAttributeClassifier_Analyze(t *testing.T) {
	captioner := &fakeCaptioner{captions: map[string]string{
		"":                "  A Man In A Navy Suit  ",
		"clothing style:": "business formal",
		"fabric texture:": "wool",
	}}
	classifier := NewAttributeClassifier(captioner, DefaultPrompts)

	result := classifier.Analyze(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))

	if result.Status != StatusOK {
		t.Errorf("Expected ok status, got %s", result.Status)
	}
	expected := CaptionSet{"a man in a navy suit", "business formal", "wool"}
	if !reflect.DeepEqual(result.Captions, expected) {
		t.Errorf("Expected captions %q in prompt order, got %q", expected, result.Captions)
	}
	if result.Style != StyleFormal || result.Texture != "wool" {
		t.Errorf("Expected formal/wool, got %s/%s", result.Style, result.Texture)
	}
	if len(captioner.calls) != 3 {
		t.Errorf("Expected 3 caption requests, got %d", len(captioner.calls))
	}
}

func TestAttributeClassifier_PartialFailure(t *testing.T) {
	captioner := &fakeCaptioner{captions: map[string]string{
		"fabric texture:": "denim",
	}}
	classifier := NewAttributeClassifier(captioner, nil)

	result := classifier.Analyze(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))

	if !reflect.DeepEqual(result.Captions, CaptionSet{"", "", "denim"}) {
		t.Errorf("Expected failed captions to be empty, got %q", result.Captions)
	}
	if result.Texture != "denim" {
		t.Errorf("Expected texture denim, got %s", result.Texture)
	}
}

func TestAttributeClassifier_TotalFailure(t *testing.T) {
	tests := []struct {
		name      string
		captioner CaptionGenerator
	}{
		{"every caption errors", &fakeCaptioner{}},
		{"captioner panics", &fakeCaptioner{panicOn: "clothing style:"}},
		{"no captioner", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewAttributeClassifier(tt.captioner, DefaultPrompts).
				Analyze(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))

			if result.Style != StyleCasual || result.Formality != FormalityCasual || result.Texture != TextureUnknown {
				t.Errorf("Expected casual/casual/unknown, got %s/%s/%s", result.Style, result.Formality, result.Texture)
			}
			if len(result.Captions) != 3 {
				t.Errorf("Expected 3 captions, got %d", len(result.Captions))
			}
		})
	}
}

func TestDefaultAttributeAnalysis(t *testing.T) {
	result := DefaultAttributeAnalysis(3, errors.New("boom"))

	if result.Status != StatusDegraded {
		t.Errorf("Expected degraded status, got %s", result.Status)
	}
	if result.Style != StyleCasual || result.Formality != FormalityCasual || result.Texture != TextureUnknown {
		t.Errorf("Expected casual/casual/unknown, got %s/%s/%s", result.Style, result.Formality, result.Texture)
	}
	if !reflect.DeepEqual(result.Captions, CaptionSet{"", "", ""}) {
		t.Errorf("Expected three empty captions, got %q", result.Captions)
	}
	if result.Confidence != AttributeConfidence {
		t.Errorf("Expected confidence %v, got %v", AttributeConfidence, result.Confidence)
	}
}
