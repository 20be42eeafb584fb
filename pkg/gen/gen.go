package gen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

const (
	// DefaultTextModel is used when Generator.TextModel is empty.
	DefaultTextModel = "gemini-2.0-flash"

	// DefaultImageModel is used when Generator.ImageModel is empty.
	DefaultImageModel = "imagen-3.0-generate-002"
)

// Generator issues one-shot generation requests.
type Generator struct {
	Client *genai.Client

	TextModel  string
	ImageModel string
}

// New creates a Generator with the default models.
func New(client *genai.Client) *Generator {
	return &Generator{Client: client}
}

// GenerateText generates a text response to prompt. When image is
// non-empty it is attached as an inline part with the given MIME type
// and the model answers about it.
func (g *Generator) GenerateText(ctx context.Context, prompt string, image []byte, imageMIME string) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if len(image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: imageMIME, Data: image},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	model := g.TextModel
	if model == "" {
		model = DefaultTextModel
	}
	resp, err := g.Client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", err
	}
	return textFromResponse(resp)
}

// GenerateImage generates one image for prompt and returns its
// encoded bytes (PNG unless the service decides otherwise).
func (g *Generator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	model := g.ImageModel
	if model == "" {
		model = DefaultImageModel
	}
	resp, err := g.Client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return nil, err
	}
	return imageFromResponse(resp)
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates")
	}
	c := resp.Candidates[0]
	if c.FinishReason != "" && c.FinishReason != genai.FinishReasonStop {
		if c.FinishReason == genai.FinishReasonMaxTokens {
			return "", errors.New("max tokens")
		}
		return "", fmt.Errorf("unexpected finish reason: %s", c.FinishReason)
	}
	if c.Content == nil {
		return "", fmt.Errorf("no content")
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}

func imageFromResponse(resp *genai.GenerateImagesResponse) ([]byte, error) {
	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("no images")
	}
	img := resp.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return img.ImageBytes, nil
}
