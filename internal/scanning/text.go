package scanning

import "strings"

// transcribePrompt is the shared prompt used by the LLM providers. They act as
// plain OCR engines; field extraction happens afterwards on the returned text.
const transcribePrompt = `You are an OCR engine. Transcribe every piece of text printed on this receipt or invoice.

Rules:
- Keep the original line order, one printed line per output line
- Keep numbers, dates, currency symbols and punctuation exactly as printed
- Do not summarise, translate, correct or explain anything
- Do not use markdown code blocks
- If the image contains no readable text, return an empty response`

// cleanTranscript strips markdown fences a model may wrap around its answer
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, including any language tag
	if i := strings.Index(text, "\n"); i != -1 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
