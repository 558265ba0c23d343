package scanning

import "context"

// OCR turns a receipt image into plain text
type OCR interface {
	// ExtractText returns the text recognised in the image. An empty string
	// with a nil error means the provider found nothing to read.
	ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases any resources held by the provider
	Close() error
}
