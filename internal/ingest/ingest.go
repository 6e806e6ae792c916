// Package ingest routes an uploaded file or pasted text to the matching
// reader and returns the recovered statement.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/insightdelivered/mpesa-statement-converter/internal/extractor"
	"github.com/insightdelivered/mpesa-statement-converter/internal/logger"
	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
	"github.com/insightdelivered/mpesa-statement-converter/internal/parser"
	"github.com/insightdelivered/mpesa-statement-converter/internal/sheet"
)

// ErrUnsupportedType is returned for file extensions no reader handles.
var ErrUnsupportedType = errors.New("unsupported file type")

// Options control how an input is read.
type Options struct {
	Password string         // for encrypted PDFs
	Location *time.Location // zone of timestamps in the input, time.Local when nil
	Trace    bool           // record per-line parser results
}

// Text parses pasted or exported message text.
func Text(text string, opts Options) *models.Statement {
	return fromText(models.SourceText, text, opts)
}

// Load reads a file by its extension: PDFs and images are turned into text
// and parsed, spreadsheets are mapped directly.
func Load(ctx context.Context, name string, data []byte, opts Options) (*models.Statement, error) {
	log := logger.FromContext(ctx)
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case ext == ".pdf":
		pages, err := extractor.ExtractPDF(ctx, data, opts.Password)
		if errors.Is(err, extractor.ErrUnreadable) && extractor.IsScannedPDFSupported() {
			log.Debug().Str("file", name).Msg("no text layer, falling back to OCR")
			pages, err = extractor.ExtractScannedPDF(ctx, data, opts.Password)
		}
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", name).Int("pages", len(pages)).Msg("extracted PDF text")
		return fromText(models.SourcePDF, strings.Join(pages, "\n"), opts), nil

	case extractor.ImageExtensions[ext]:
		text, err := extractor.ExtractImage(ctx, data, ext)
		if err != nil {
			return nil, err
		}
		return fromText(models.SourceImage, text, opts), nil

	case sheet.Extensions[ext]:
		txns, err := sheet.Read(bytes.NewReader(data), ext, opts.Location)
		if err != nil {
			return nil, err
		}
		return &models.Statement{Source: models.SourceSpreadsheet, Transactions: txns}, nil

	case ext == ".txt":
		return fromText(models.SourceText, string(data), opts), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func fromText(source models.Source, text string, opts Options) *models.Statement {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	stmt := &models.Statement{Source: source}
	if opts.Trace {
		stmt.Transactions, stmt.DebugLines = parser.Trace(text, loc)
	} else {
		stmt.Transactions = parser.ParseInLocation(text, loc)
	}
	return stmt
}
