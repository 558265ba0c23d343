package expense

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/zombor/expense-tracker/internal/parsing"
)

// maxFormSize allows high-resolution phone photos
const maxFormSize = int64(50 << 20) // 50MB

// expenseResponse is the JSON shape of an expense
type expenseResponse struct {
	ID          string      `json:"id"`
	Date        *civil.Date `json:"date"`
	AmountCents *int64      `json:"amount_cents"`
	Currency    string      `json:"currency"`
	Description *string     `json:"description"`
	Vendor      *string     `json:"vendor"`
	Category    *string     `json:"category"`
	HasImage    bool        `json:"has_image"`
	OCRText     *string     `json:"ocr_text,omitempty"`
}

func newExpenseResponse(e *Expense, withOCR bool) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		AmountCents: e.AmountCents,
		Currency:    e.Currency,
		Description: e.Description,
		Vendor:      e.Vendor,
		Category:    e.Category,
		HasImage:    e.ImageFile != "",
	}
	if withOCR {
		resp.OCRText = e.OCRText
	}
	return resp
}

// corsError writes a plain text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes {"error": message} with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// formString returns nil for a missing or blank form value
func formString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

// formDate parses an optional YYYY-MM-DD value
func formDate(value string) (*civil.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// detectContentType falls back to the file extension when the part has no useful type
func detectContentType(header string, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(header))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleCreateExpense accepts an optional receipt image plus optional manual fields
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	err := r.ParseMultipartForm(maxFormSize)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		slog.Error("Error parsing form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	var in Input
	in.Description = formString(r, "description")
	in.Vendor = formString(r, "vendor")
	in.Category = formString(r, "category")

	if in.Date, err = formDate(r.FormValue("date")); err != nil {
		jsonError(w, "date must be formatted as YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if raw := formString(r, "amount_cents"); raw != nil {
		amount, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil || amount < 0 {
			jsonError(w, "amount_cents must be a non-negative integer", http.StatusBadRequest)
			return
		}
		in.AmountCents = &amount
	}

	f, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Manual entry only
	case err != nil:
		slog.Error("Error getting image from form", "error", err)
		jsonError(w, "Error reading image", http.StatusBadRequest)
		return
	default:
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			slog.Error("Error reading image data", "error", err, "filename", header.Filename)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		in.Image = &Image{
			Filename:    header.Filename,
			Data:        data,
			ContentType: detectContentType(header.Header.Get("Content-Type"), header.Filename),
		}
	}

	expense, err := s.service.CreateExpense(r.Context(), in)
	if errors.Is(err, ErrEmptyInput) {
		jsonError(w, "Provide an image or manual fields.", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("Error creating expense", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": expense.ID})
}

// handleListExpenses returns expenses matching q, start_date and end_date
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	var (
		filter Filter
		err    error
	)
	filter.Query = r.URL.Query().Get("q")
	if filter.Start, err = formDate(r.URL.Query().Get("start_date")); err != nil {
		corsError(w, "start_date must be formatted as YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if filter.End, err = formDate(r.URL.Query().Get("end_date")); err != nil {
		corsError(w, "end_date must be formatted as YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	expenses, err := s.service.ListExpenses(filter)
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, newExpenseResponse(e, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetExpense returns a single expense including its OCR text
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.service.GetExpense(r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		corsError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Error getting expense", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newExpenseResponse(expense, true))
}

// handleGetExpenseImage returns the stored receipt image
func (s *Server) handleGetExpenseImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetExpenseImage(r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Error getting expense image", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteExpense(r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		corsError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Error deleting expense", "error", err)
		corsError(w, "Error deleting expense", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleFiscalYearStats returns totals for the current fiscal year
func (s *Server) handleFiscalYearStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.FiscalYearStats()
	if err != nil {
		slog.Error("Error computing fiscal year stats", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleListCategories returns the categories the parser can infer
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, parsing.Categories())
}

// handleParse runs the receipt parser over posted text
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.ParseText(req.Text))
}
