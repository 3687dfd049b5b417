package captioner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type generativeModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiCaptioner captions images with a Gemini model
type GeminiCaptioner struct {
	client *genai.Client
	model  generativeModel
	name   string
}

// NewGeminiCaptioner creates a Gemini client. Close releases it.
func NewGeminiCaptioner(ctx context.Context, apiKey, model string) (*GeminiCaptioner, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	m := cl.GenerativeModel(strings.TrimSpace(model))
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(0),
		MaxOutputTokens: ptrInt32(MaxCaptionTokens),
	}
	return &GeminiCaptioner{client: cl, model: m, name: model}, nil
}

// Caption implements Captioner
func (g *GeminiCaptioner) Caption(ctx context.Context, img image.Image, prompt string) (string, error) {
	data, mime, err := encode(img)
	if err != nil {
		return "", err
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.Text(instruction(prompt)),
		&genai.Blob{MIMEType: mime, Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.name, err)
	}
	return cleanCaption(firstText(resp))
}

// Close releases the underlying client
func (g *GeminiCaptioner) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
