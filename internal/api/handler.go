package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/mpesa-statement-converter/internal/extractor"
	"github.com/insightdelivered/mpesa-statement-converter/internal/ingest"
	"github.com/insightdelivered/mpesa-statement-converter/internal/logger"
	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
	"github.com/insightdelivered/mpesa-statement-converter/internal/sheet"
	"github.com/insightdelivered/mpesa-statement-converter/internal/summary"
	"github.com/insightdelivered/mpesa-statement-converter/internal/writer"
)

// Response is the JSON body of every API endpoint.
type Response struct {
	Success      bool                 `json:"success"`
	Status       string               `json:"status,omitempty"`
	Error        string               `json:"error,omitempty"`
	Source       models.Source        `json:"source,omitempty"`
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
	Summary      *summary.Summary     `json:"summary,omitempty"`
	CSV          string               `json:"csv,omitempty"`
	Encrypted    bool                 `json:"isEncrypted,omitempty"`
	DebugLines   []models.DebugLine   `json:"debugLines,omitempty"`
}

// TextRequest is the body of /api/process-text.
type TextRequest struct {
	Text string `json:"text" form:"text"`
}

// Config holds the HTTP layer settings.
type Config struct {
	BodyLimit int            // bytes, fiber's default when zero
	Location  *time.Location // zone of timestamps in uploads
	Version   string
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	cfg Config
	log zerolog.Logger
}

// New returns a handler logging to log.
func New(cfg Config, log zerolog.Logger) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Handler{cfg: cfg, log: log}
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mpesa-statement-converter",
		BodyLimit:             h.cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	// The request logger wraps recover so panicking requests are still logged.
	app.Use(RequestLogger(h.log))
	app.Use(recover.New())
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/process-text", h.HandleProcessText)
	app.Post("/api/convert", h.HandleConvert)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.cfg.Version,
		"engine":  "fiber",
	})
}

// HandleProcessText parses pasted message or statement text.
func (h *Handler) HandleProcessText(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "", "Request body must be JSON with a 'text' field.")
	}
	if strings.TrimSpace(req.Text) == "" {
		return writeError(c, fiber.StatusBadRequest, "", "No text provided.")
	}

	stmt := ingest.Text(req.Text, ingest.Options{
		Location: h.cfg.Location,
		Trace:    c.Query("debug") == "true",
	})
	return h.writeStatement(c, stmt, "", false)
}

// HandleConvert reads an uploaded PDF, image or spreadsheet.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		fh, err = c.FormFile("mpesaStatement")
	}
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "", "No file uploaded. Use form field 'file'.")
	}

	data, err := readFormFile(fh)
	if err != nil {
		return err
	}

	encrypted := strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") && extractor.IsEncryptedPDF(data)

	ctx := c.UserContext()
	stmt, err := ingest.Load(ctx, fh.Filename, data, ingest.Options{
		Password: c.FormValue("password"),
		Location: h.cfg.Location,
		Trace:    c.Query("debug") == "true",
	})
	if err != nil {
		return h.loadError(ctx, c, fh.Filename, err)
	}

	// Generate CSV string
	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, stmt); err != nil {
		return err
	}
	return h.writeStatement(c, stmt, csvBuf.String(), encrypted)
}

// loadError maps reader failures to user-facing responses.
func (h *Handler) loadError(ctx context.Context, c *fiber.Ctx, name string, err error) error {
	log := logger.FromContext(ctx)
	log.Warn().Err(err).Str("file", name).Msg("could not read upload")

	switch {
	case errors.Is(err, extractor.ErrPasswordRequired):
		return writePasswordError(c, "This document is password protected. Please provide the password.")
	case errors.Is(err, extractor.ErrIncorrectPassword):
		return writePasswordError(c, "Incorrect password.")
	case errors.Is(err, extractor.ErrOCRUnavailable):
		return writeError(c, fiber.StatusNotImplemented, "", "Image processing is not available on this server.")
	case errors.Is(err, ingest.ErrUnsupportedType), errors.Is(err, sheet.ErrUnsupportedFormat):
		return writeError(c, fiber.StatusUnsupportedMediaType, "", "Unsupported file type. Upload a PDF, image, CSV or Excel file.")
	case errors.Is(err, extractor.ErrUnreadable), errors.Is(err, sheet.ErrNoHeader):
		return writeError(c, fiber.StatusUnprocessableEntity, "", "No readable text could be found in this file.")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return writeError(c, fiber.StatusServiceUnavailable, "", "Processing was interrupted.")
	default:
		return writeError(c, fiber.StatusUnprocessableEntity, "", "The file could not be processed. It may be corrupt.")
	}
}

func (h *Handler) writeStatement(c *fiber.Ctx, stmt *models.Statement, csv string, encrypted bool) error {
	if len(stmt.Transactions) == 0 {
		return writeError(c, fiber.StatusUnprocessableEntity, "", "No transactions found in this input.")
	}

	log := logger.FromContext(c.UserContext())
	log.Info().
		Str("source", string(stmt.Source)).
		Int("count", len(stmt.Transactions)).
		Msg("parsed statement")

	s := summary.Summarize(stmt.Transactions)
	return c.JSON(Response{
		Success:      true,
		Status:       "parsed_success",
		Source:       stmt.Source,
		Count:        len(stmt.Transactions),
		Transactions: stmt.Transactions,
		Summary:      &s,
		CSV:          csv,
		DebugLines:   stmt.DebugLines,
		Encrypted:    encrypted,
	})
}

// handleError renders errors returned by handlers, including recovered panics.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeError(c, fe.Code, "", fe.Message)
	}

	log := logger.FromContext(c.UserContext())
	log.Error().Err(err).Msg("request failed")
	return writeError(c, fiber.StatusInternalServerError, "error", "Internal server error.")
}

func writeError(c *fiber.Ctx, status int, state, msg string) error {
	return c.Status(status).JSON(Response{
		Success:      false,
		Status:       state,
		Error:        msg,
		Transactions: []models.Transaction{},
	})
}

func writePasswordError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Response{
		Success:      false,
		Status:       "failed_password",
		Error:        msg,
		Transactions: []models.Transaction{},
		Encrypted:    true,
	})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
