package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/expense-tracker/internal/fiscal"
	"github.com/zombor/expense-tracker/internal/parsing"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// stdinSource is the argument that reads from standard input
const stdinSource = "-"

// result is one printed line
type result struct {
	Source string `json:"source"`
	parsing.Result
	FiscalYear string `json:"fiscal_year,omitempty"`
	Error      string `json:"error,omitempty"`
}

// batch parses a set of inputs with bounded concurrency
type batch struct {
	stdin       io.Reader
	concurrency int
	// newOCR is only called when a non-text input is present
	newOCR func() (scanning.OCR, error)
}

// isText reports whether source is parsed without OCR
func isText(source string) bool {
	return source == stdinSource || strings.EqualFold(filepath.Ext(source), ".txt")
}

// contentTypeOf guesses the mime type of an image or PDF
func contentTypeOf(source string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(source))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// run parses every source and writes one JSON line per source in argument order.
// It reports the number of sources that failed.
func (b *batch) run(ctx context.Context, sources []string, out io.Writer) (int, error) {
	var ocr scanning.OCR
	for _, source := range sources {
		if !isText(source) {
			var err error
			if ocr, err = b.newOCR(); err != nil {
				return 0, err
			}
			defer ocr.Close()
			break
		}
	}

	stdinData, err := b.readStdin(sources)
	if err != nil {
		return 0, err
	}

	results := make([]result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.concurrency, 1))
	for i, source := range sources {
		g.Go(func() error {
			results[i] = b.parse(ctx, ocr, source, stdinData)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	failed := 0
	enc := json.NewEncoder(out)
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return failed, fmt.Errorf("writing result: %w", err)
		}
	}
	return failed, nil
}

// readStdin reads standard input once when any source asks for it
func (b *batch) readStdin(sources []string) (string, error) {
	for _, source := range sources {
		if source == stdinSource {
			data, err := io.ReadAll(b.stdin)
			if err != nil {
				return "", fmt.Errorf("reading stdin: %w", err)
			}
			return string(data), nil
		}
	}
	return "", nil
}

func (b *batch) parse(ctx context.Context, ocr scanning.OCR, source, stdinData string) result {
	r := result{Source: source}

	var text string
	switch {
	case source == stdinSource:
		text = stdinData
	case isText(source):
		data, err := os.ReadFile(source)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		text = string(data)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		text, err = ocr.ExtractText(ctx, data, contentTypeOf(source, data))
		if err != nil {
			r.Error = fmt.Sprintf("ocr: %v", err)
			return r
		}
	}

	r.Result = parsing.ParseReceipt(text)
	if r.Date != nil {
		r.FiscalYear = fiscal.RangeFor(*r.Date).Label
	}
	return r
}
