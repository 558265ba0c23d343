package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the OCR interface using Google Gemini as a transcriber
type Gemini struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	maxBytes int
}

// NewGemini creates a new Gemini OCR instance
func NewGemini(apiKey string, modelName string, maxImageBytes int) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Transcription should be deterministic
	model.SetTemperature(0)

	return &Gemini{
		client:   client,
		model:    model,
		maxBytes: maxImageBytes,
	}, nil
}

// ExtractText asks the model for a verbatim transcription of the receipt
func (g *Gemini) ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	finalImageData, mimeType := prepareImageData(imageData, contentType, g.maxBytes)

	format, err := imageFormat(mimeType)
	if err != nil {
		return "", err
	}
	parts := []genai.Part{
		genai.ImageData(format, finalImageData),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return cleanTranscript(responseText.String()), nil
}

// imageFormat returns the format suffix genai.ImageData expects (e.g. "jpeg").
// Anything that is not an image by now could not be converted.
func imageFormat(mimeType string) (string, error) {
	format, ok := strings.CutPrefix(strings.ToLower(mimeType), "image/")
	if !ok || format == "" {
		return "", fmt.Errorf("unsupported content type for gemini: %q", mimeType)
	}
	return format, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
