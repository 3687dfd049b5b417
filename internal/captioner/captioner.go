// Package captioner turns vision language models into caption generators
// for the attribute classifier.
package captioner

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/anime-shed/clothing-inspector-go/internal/imaging"
)

// MaxCaptionTokens bounds the length of one caption
const MaxCaptionTokens = 50

// ErrDisabled is returned by a captioner that has no backing model
var ErrDisabled = errors.New("caption generation is not configured")

// ErrEmptyCaption is returned when a model answers with no text
var ErrEmptyCaption = errors.New("model returned an empty caption")

// Captioner describes an image in free text. An empty prompt requests an
// unprompted caption; otherwise the caption continues the prompt.
type Captioner interface {
	Caption(ctx context.Context, img image.Image, prompt string) (string, error)
}

// Disabled always fails, which the classifier turns into empty captions
type Disabled struct{}

// Caption implements Captioner
func (Disabled) Caption(context.Context, image.Image, string) (string, error) {
	return "", ErrDisabled
}

// instruction turns a caption prompt into a request a chat model follows
func instruction(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Write a short caption for this photo describing the clothing. Reply with the caption only."
	}
	return "Complete this caption about the clothing in the photo with a few words. " +
		"Reply with the completion only.\n" + prompt
}

// encode produces the image payload sent to a model
func encode(img image.Image) ([]byte, string, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, "", err
	}
	return data, "image/png", nil
}

func cleanCaption(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", ErrEmptyCaption
	}
	return text, nil
}
