package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/expense-tracker/internal/expense"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine
	_ = godotenv.Load()

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "expense-tracker.db", "Database file path")
		storagePath = fs.StringLong("storage", "./images", "Receipt image directory")
		ocrProvider = fs.StringLong("ocr", scanning.ProviderOCRSpace, "OCR provider: 'ocrspace', 'gemini' or 'ollama'")
		ocrSpaceKey = fs.StringLong("ocr-space-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrSpaceURL = fs.StringLong("ocr-space-url", scanning.DefaultOCRSpaceURL, "OCR.space endpoint")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		timezone    = fs.StringLong("timezone", "Australia/Sydney", "Timezone used to decide the current fiscal year")
		currency    = fs.StringLong("currency", "AUD", "Currency recorded on new expenses")
		maxImageKB  = fs.IntLong("max-image-kb", scanning.DefaultMaxImageBytes/1024, "Largest image sent to the OCR provider, in KB")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		slog.Error("Invalid timezone", "timezone", *timezone, "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := expense.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR provider
	slog.Info("Initializing OCR provider...", "provider", *ocrProvider)
	ocr, err := scanning.New(scanning.Config{
		Provider:      *ocrProvider,
		OCRSpaceKey:   firstSet(*ocrSpaceKey, os.Getenv("OCR_SPACE_API_KEY")),
		OCRSpaceURL:   *ocrSpaceURL,
		GeminiKey:     firstSet(*geminiKey, os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   *geminiModel,
		OllamaURL:     *ollamaURL,
		OllamaModel:   *ollamaModel,
		MaxImageBytes: *maxImageKB * 1024,
	})
	if err != nil {
		slog.Error("Failed to initialize OCR provider", "error", err)
		os.Exit(1)
	}
	defer ocr.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := expense.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := expense.NewService(db, ocr, store, expense.Settings{
		Currency: *currency,
		Location: loc,
	})

	basicAuth := expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := expense.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
