package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/expense-tracker/internal/scanning"
)

func main() {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("parse-receipt")
	var (
		concurrency = fs.IntLong("concurrency", 4, "Number of inputs parsed at once")
		ocrProvider = fs.StringLong("ocr", scanning.ProviderOCRSpace, "OCR provider for images: 'ocrspace', 'gemini' or 'ollama'")
		ocrSpaceKey = fs.StringLong("ocr-space-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrSpaceURL = fs.StringLong("ocr-space-url", scanning.DefaultOCRSpaceURL, "OCR.space endpoint")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		maxImageKB  = fs.IntLong("max-image-kb", scanning.DefaultMaxImageBytes/1024, "Largest image sent to the OCR provider, in KB")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sources := fs.GetArgs()
	if len(sources) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "usage: parse-receipt [flags] FILE... (use - for stdin)")
		os.Exit(2)
	}

	b := &batch{
		stdin:       os.Stdin,
		concurrency: *concurrency,
		newOCR: func() (scanning.OCR, error) {
			return scanning.New(scanning.Config{
				Provider:      *ocrProvider,
				OCRSpaceKey:   firstSet(*ocrSpaceKey, os.Getenv("OCR_SPACE_API_KEY")),
				OCRSpaceURL:   *ocrSpaceURL,
				GeminiKey:     firstSet(*geminiKey, os.Getenv("GEMINI_API_KEY")),
				GeminiModel:   *geminiModel,
				OllamaURL:     *ollamaURL,
				OllamaModel:   *ollamaModel,
				MaxImageBytes: *maxImageKB * 1024,
			})
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed, err := b.run(ctx, sources, os.Stdout)
	if err != nil {
		slog.Error("Failed to parse receipts", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		slog.Warn("Some inputs could not be parsed", "failed", failed, "total", len(sources))
		os.Exit(1)
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
