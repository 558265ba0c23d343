package expense

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/zombor/expense-tracker/internal/fiscal"
	"github.com/zombor/expense-tracker/internal/parsing"
	"github.com/zombor/expense-tracker/internal/scanning"
)

const (
	// maxListResults caps ListExpenses
	maxListResults = 200
	// uncategorized labels expenses without a category in statistics
	uncategorized = "Uncategorized"
)

// IDGenerator generates unique IDs for expenses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Settings holds the locale of the tracker
type Settings struct {
	// Currency is stamped on every new expense
	Currency string
	// Location decides "today" for fiscal year statistics
	Location *time.Location
}

// Image is an uploaded receipt image
type Image struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Input is the data supplied when creating an expense. Manual fields always
// take precedence over the fields parsed from the image.
type Input struct {
	Image       *Image
	Date        *civil.Date
	AmountCents *int64
	Description *string
	Vendor      *string
	Category    *string
}

// Service handles expense operations
type Service struct {
	db          DB
	ocr         scanning.OCR
	storage     Storage
	settings    Settings
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with the default ID generator and time source
func NewService(db DB, ocr scanning.OCR, storage Storage, settings Settings) *Service {
	return NewServiceWithDeps(db, ocr, storage, settings, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, ocr scanning.OCR, storage Storage, settings Settings, idGen IDGenerator, timeSrc TimeSource) *Service {
	if settings.Currency == "" {
		settings.Currency = "AUD"
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Service{
		db:          db,
		ocr:         ocr,
		storage:     storage,
		settings:    settings,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(repeatedSpaces.ReplaceAllString(base, " "))

	// Phone cameras produce very long names
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	ext = unsafeFilenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// hasManualFields mirrors the fields that make an expense worth saving without an image
func (in Input) hasManualFields() bool {
	return nonEmpty(in.Description) != nil ||
		nonEmpty(in.Vendor) != nil ||
		(in.AmountCents != nil && *in.AmountCents != 0) ||
		in.Date != nil
}

// CreateExpense stores the image, reads it with OCR, parses the text and saves
// the expense with manual fields overriding the parsed ones.
func (s *Service) CreateExpense(ctx context.Context, in Input) (*Expense, error) {
	if in.Image == nil && !in.hasManualFields() {
		return nil, ErrEmptyInput
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	expense := &Expense{
		ID:        id,
		CreatedAt: now.UTC(),
		Currency:  s.settings.Currency,
	}

	var parsed parsing.Result
	if in.Image != nil {
		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(in.Image.Filename)), in.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("saving image: %w", err)
		}
		expense.ImageFile = savedPath
		expense.ContentType = in.Image.ContentType

		text := s.extractText(ctx, in.Image)
		expense.OCRText = &text
		parsed = parsing.ParseReceipt(text)
	}

	expense.Date = in.Date
	if expense.Date == nil {
		expense.Date = parsed.Date
	}
	expense.AmountCents = parsed.AmountCents
	if in.AmountCents != nil && *in.AmountCents != 0 {
		expense.AmountCents = in.AmountCents
	}
	expense.Description = firstNonEmpty(in.Description, parsed.Description)
	expense.Vendor = firstNonEmpty(in.Vendor, parsed.Vendor)
	expense.Category = firstNonEmpty(in.Category, parsed.Category)

	if err := s.db.SaveExpense(expense); err != nil {
		if expense.ImageFile != "" {
			// Clean up file if database save fails
			s.storage.Delete(expense.ImageFile)
		}
		return nil, fmt.Errorf("saving expense to database: %w", err)
	}

	slog.Info("Expense created",
		"id", expense.ID,
		"has_image", in.Image != nil,
		"parsed_amount", parsed.AmountCents != nil,
		"parsed_date", parsed.Date != nil,
		"parsed_vendor", parsed.Vendor != nil,
	)
	return expense, nil
}

// extractText runs OCR, treating any failure as "nothing to parse"
func (s *Service) extractText(ctx context.Context, img *Image) string {
	if s.ocr == nil {
		return ""
	}
	text, err := s.ocr.ExtractText(ctx, img.Data, img.ContentType)
	if err != nil {
		slog.Error("Failed to read receipt",
			"filename", img.Filename,
			"content_type", img.ContentType,
			"file_size", len(img.Data),
			"error", err,
		)
		return ""
	}
	return text
}

// ParseText runs the receipt parser over text without saving anything
func (s *Service) ParseText(text string) parsing.Result {
	return parsing.ParseReceipt(text)
}

// GetExpense retrieves an expense by ID
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns up to 200 matching expenses, newest date first.
// Expenses without a date sort last and never match a date bound.
func (s *Service) ListExpenses(filter Filter) ([]*Expense, error) {
	all, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	expenses := make([]*Expense, 0, len(all))
	for _, e := range all {
		if query != "" && !e.matches(query) {
			continue
		}
		if filter.Start != nil && (e.Date == nil || e.Date.Before(*filter.Start)) {
			continue
		}
		if filter.End != nil && (e.Date == nil || e.Date.After(*filter.End)) {
			continue
		}
		expenses = append(expenses, e)
	}

	slices.SortStableFunc(expenses, func(a, b *Expense) int {
		switch {
		case a.Date == nil && b.Date == nil:
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		case *a.Date != *b.Date:
			if a.Date.After(*b.Date) {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(expenses) > maxListResults {
		expenses = expenses[:maxListResults]
	}
	return expenses, nil
}

// matches reports whether the lowercased query occurs in the description, vendor or OCR text
func (e *Expense) matches(query string) bool {
	for _, field := range []*string{e.Description, e.Vendor, e.OCRText} {
		if field != nil && strings.Contains(strings.ToLower(*field), query) {
			return true
		}
	}
	return false
}

// DeleteExpense removes an expense and its image
func (s *Service) DeleteExpense(id string) error {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	if expense.ImageFile != "" {
		if err := s.storage.Delete(expense.ImageFile); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete image", "filename", expense.ImageFile, "error", err)
		}
	}

	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}
	return nil
}

// GetExpenseImage retrieves the receipt image for an expense
func (s *Service) GetExpenseImage(id string) ([]byte, string, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense: %w", err)
	}
	if expense.ImageFile == "" {
		return nil, "", fmt.Errorf("%w: expense %s has no image", ErrNotFound, id)
	}

	data, err := s.storage.Get(expense.ImageFile)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense image: %w", err)
	}
	return data, expense.ContentType, nil
}

// FiscalYearStats totals the dated expenses of the current fiscal year
func (s *Service) FiscalYearStats() (*FiscalYearStats, error) {
	today := civil.DateOf(s.timeSource.Now().In(s.settings.Location))
	fy := fiscal.RangeFor(today)

	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	stats := &FiscalYearStats{FY: fy.Label, ByCategory: []CategoryTotal{}}
	totals := make(map[string]int64)
	for _, e := range expenses {
		if e.Date == nil || !fy.Contains(*e.Date) {
			continue
		}
		var amount int64
		if e.AmountCents != nil {
			amount = *e.AmountCents
		}
		category := uncategorized
		if c := nonEmpty(e.Category); c != nil {
			category = *c
		}
		stats.TotalCents += amount
		totals[category] += amount
	}

	for category, total := range totals {
		stats.ByCategory = append(stats.ByCategory, CategoryTotal{Category: category, TotalCents: total})
	}
	slices.SortFunc(stats.ByCategory, func(a, b CategoryTotal) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return stats, nil
}

// nonEmpty returns nil for nil or blank strings
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func firstNonEmpty(manual, parsed *string) *string {
	if v := nonEmpty(manual); v != nil {
		return v
	}
	return parsed
}
