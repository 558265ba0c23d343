package scanning

import "fmt"

// Provider names accepted by New
const (
	ProviderOCRSpace = "ocrspace"
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
)

// Config selects and configures an OCR provider
type Config struct {
	Provider      string
	OCRSpaceKey   string
	OCRSpaceURL   string
	GeminiKey     string
	GeminiModel   string
	OllamaURL     string
	OllamaModel   string
	MaxImageBytes int
}

// New creates the OCR provider named by cfg.Provider
func New(cfg Config) (OCR, error) {
	var (
		ocr OCR
		err error
	)
	switch cfg.Provider {
	case ProviderOCRSpace:
		ocr, err = NewOCRSpace(cfg.OCRSpaceKey, cfg.OCRSpaceURL, cfg.MaxImageBytes)
	case ProviderGemini:
		ocr, err = NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.MaxImageBytes)
	case ProviderOllama:
		ocr, err = NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.MaxImageBytes)
	default:
		return nil, fmt.Errorf("unknown ocr provider %q (valid: %s, %s, %s)", cfg.Provider, ProviderOCRSpace, ProviderGemini, ProviderOllama)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", cfg.Provider, err)
	}
	return ocr, nil
}
