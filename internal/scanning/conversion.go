package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// DefaultMaxImageBytes keeps uploads under the OCR.space free tier limit
const DefaultMaxImageBytes = 800 * 1024

const (
	startQuality  = 85
	minQuality    = 30
	qualityStep   = 10
	shrinkFactor  = 0.8
	minDimension  = 16
	jpegMediaType = "image/jpeg"
)

// pdfToImage renders the first page of a PDF
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Most receipts are a single page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes PDFs, HEIC/HEIF and the formats registered with the image package
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	if mimeType == "application/pdf" {
		return pdfToImage(imageData)
	}

	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files carry an ftyp box at offset 4 followed by the brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// compressJPEG re-encodes img as JPEG, lowering quality and then shrinking
// the image until the result fits in maxBytes
func compressJPEG(img image.Image, maxBytes int) ([]byte, error) {
	quality := startQuality
	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encoding JPEG: %w", err)
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}

		quality -= qualityStep
		if quality >= minQuality {
			continue
		}

		bounds := img.Bounds()
		width := int(float64(bounds.Dx()) * shrinkFactor)
		height := int(float64(bounds.Dy()) * shrinkFactor)
		if width < minDimension || height < minDimension {
			// Can't get any smaller; send what we have
			return buf.Bytes(), nil
		}
		img = imaging.Resize(img, width, height, imaging.Lanczos)
		quality = startQuality
	}
}

// prepareImageData normalizes the MIME type and compresses the image to a JPEG no
// larger than maxBytes. Input that cannot be decoded is returned unchanged so the
// OCR provider can still try it.
func prepareImageData(imageData []byte, contentType string, maxBytes int) ([]byte, string) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = jpegMediaType
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	img, err := decodeImage(imageData, mimeType)
	if err != nil {
		slog.Warn("Sending image without compression", "content_type", mimeType, "error", err)
		return imageData, mimeType
	}

	compressed, err := compressJPEG(img, maxBytes)
	if err != nil {
		slog.Warn("Sending image without compression", "content_type", mimeType, "error", err)
		return imageData, mimeType
	}
	return compressed, jpegMediaType
}
