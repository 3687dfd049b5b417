package analyzer

import (
	"context"
	"fmt"
	"image"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/clothing-inspector-go/internal/logger"
)

// CaptionSet holds one caption per prompt, in prompt order. Failed
// captions are empty strings.
type CaptionSet []string

// Text lower-cases and joins the captions with single spaces
func (cs CaptionSet) Text() string {
	return strings.ToLower(strings.Join(cs, " "))
}

// AttributeAnalysis is the output of the caption classifier
type AttributeAnalysis struct {
	Status           Status
	Style            string
	Formality        string
	Texture          string
	Confidence       float64
	Captions         CaptionSet
	DetectedKeywords []string
	Scores           AttributeScoreTable
	Err              error
}

// DefaultAttributeAnalysis is returned when the classifier could not run.
// It matches the result of classifying n empty captions.
func DefaultAttributeAnalysis(n int, err error) AttributeAnalysis {
	a := ClassifyCaptions(make(CaptionSet, n))
	a.Status = StatusDegraded
	a.Err = err
	return a
}

// ClassifyCaptions applies the keyword lexicon to a caption set
func ClassifyCaptions(captions CaptionSet) AttributeAnalysis {
	text := captions.Text()
	scores := ScoreText(text)

	formal := scores.StyleScore("formal")
	casual := scores.StyleScore("casual")
	sports := scores.StyleScore("sports")

	style, formality := StyleCasual, FormalityCasual
	switch {
	case formal > casual && formal > sports:
		style, formality = StyleFormal, FormalityFormal
	case sports > casual:
		style = StyleAthletic
	}

	texture := TextureUnknown
	best := 0
	for _, s := range scores.Texture {
		if s.Score > best {
			texture, best = s.Name, s.Score
		}
	}

	keywords := []string{}
	for _, tok := range strings.Fields(text) {
		if isStyleKeyword(tok) {
			keywords = append(keywords, tok)
		}
	}

	return AttributeAnalysis{
		Status:           StatusOK,
		Style:            style,
		Formality:        formality,
		Texture:          texture,
		Confidence:       AttributeConfidence,
		Captions:         captions,
		DetectedKeywords: keywords,
		Scores:           scores,
	}
}

// AttributeClassifier infers style, formality and texture from captions
type AttributeClassifier struct {
	captioner CaptionGenerator
	prompts   []string
}

// NewAttributeClassifier creates a classifier that requests one caption per
// prompt from captioner
func NewAttributeClassifier(captioner CaptionGenerator, prompts []string) *AttributeClassifier {
	if len(prompts) == 0 {
		prompts = DefaultPrompts
	}
	return &AttributeClassifier{captioner: captioner, prompts: prompts}
}

// Analyze requests all captions concurrently and classifies them. Caption
// failures become empty captions; Analyze itself never fails.
func (ac *AttributeClassifier) Analyze(ctx context.Context, img image.Image) AttributeAnalysis {
	captions := make(CaptionSet, len(ac.prompts))

	var g errgroup.Group
	for i, prompt := range ac.prompts {
		g.Go(func() error {
			captions[i] = ac.caption(ctx, img, prompt)
			return nil
		})
	}
	_ = g.Wait()

	return ClassifyCaptions(captions)
}

func (ac *AttributeClassifier) caption(ctx context.Context, img image.Image, prompt string) (caption string) {
	log := logger.Component("attribute_classifier").WithField("prompt", prompt)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Warn("Caption generator panicked")
			caption = ""
		}
	}()

	if ac.captioner == nil {
		log.Warn("No caption generator configured")
		return ""
	}
	text, err := ac.captioner.Caption(ctx, img, prompt)
	if err != nil {
		log.WithError(err).Warn("Caption generation failed")
		return ""
	}
	return strings.ToLower(strings.TrimSpace(text))
}
