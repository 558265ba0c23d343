package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultOCRSpaceURL is the OCR.space image parsing endpoint
const DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// OCRSpace implements the OCR interface using the OCR.space API
type OCRSpace struct {
	apiKey   string
	url      string
	maxBytes int
	client   *http.Client
}

// NewOCRSpace creates a new OCRSpace instance
func NewOCRSpace(apiKey, url string, maxImageBytes int) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if url == "" {
		url = DefaultOCRSpaceURL
	}

	return &OCRSpace{
		apiKey:   apiKey,
		url:      url,
		maxBytes: maxImageBytes,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// ocrSpaceResponse is the subset of the OCR.space response we read
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// ExtractText uploads the image and joins the text of every parsed result
func (o *OCRSpace) ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	finalImageData, _ := prepareImageData(imageData, contentType, o.maxBytes)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "receipt.jpg")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(finalImageData); err != nil {
		return "", fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.WriteField("language", "eng"); err != nil {
		return "", fmt.Errorf("writing form field: %w", err)
	}
	if err := writer.WriteField("isOverlayRequired", "false"); err != nil {
		return "", fmt.Errorf("writing form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ocr.space API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr.space API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr.space processing error: %s", string(parsed.ErrorMessage))
	}

	texts := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		texts = append(texts, r.ParsedText)
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

// Close is a no-op for the HTTP client
func (o *OCRSpace) Close() error {
	return nil
}
