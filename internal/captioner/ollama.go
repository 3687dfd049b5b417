package captioner

import (
	"context"
	"fmt"
	"image"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// contentGenerator is the part of a langchaingo model the captioner uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// OllamaCaptioner captions images with a vision model served by Ollama
type OllamaCaptioner struct {
	llm   contentGenerator
	model string
}

// NewOllamaCaptioner connects to the Ollama server at serverURL
func NewOllamaCaptioner(serverURL, model string) (*OllamaCaptioner, error) {
	l, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaCaptioner{llm: l, model: model}, nil
}

// Caption implements Captioner
func (o *OllamaCaptioner) Caption(ctx context.Context, img image.Image, prompt string) (string, error) {
	data, mime, err := encode(img)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mime, data),
				llms.TextPart(instruction(prompt)),
			},
		},
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(MaxCaptionTokens),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("ollama %s: %w", o.model, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama %s: %w", o.model, ErrEmptyCaption)
	}
	return cleanCaption(resp.Choices[0].Content)
}
