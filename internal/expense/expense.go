// Package expense stores expenses captured from receipts and serves them over HTTP.
package expense

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
)

var (
	// ErrNotFound is returned when an expense does not exist
	ErrNotFound = errors.New("expense not found")
	// ErrEmptyInput is returned when neither an image nor manual fields were provided
	ErrEmptyInput = errors.New("provide an image or manual fields")
)

// Expense represents a single expense, captured from a receipt and/or typed in
type Expense struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	Date        *civil.Date `json:"date"`
	AmountCents *int64      `json:"amount_cents"`
	Currency    string      `json:"currency"`
	Description *string     `json:"description"`
	Vendor      *string     `json:"vendor"`
	Category    *string     `json:"category"`
	ImageFile   string      `json:"image_file,omitempty"` // path in Storage
	ContentType string      `json:"content_type,omitempty"`
	OCRText     *string     `json:"ocr_text,omitempty"`
}

// Filter narrows ListExpenses. Zero values mean no restriction.
type Filter struct {
	Query string
	Start *civil.Date
	End   *civil.Date
}

// CategoryTotal is the amount spent in one category
type CategoryTotal struct {
	Category   string `json:"category"`
	TotalCents int64  `json:"total_cents"`
}

// FiscalYearStats summarises spending in a fiscal year
type FiscalYearStats struct {
	FY         string          `json:"fy"`
	TotalCents int64           `json:"total_cents"`
	ByCategory []CategoryTotal `json:"by_category"`
}
