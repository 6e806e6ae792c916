package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF returns the text of each page of a PDF held in memory. An empty
// password opens unencrypted documents; an encrypted document yields
// ErrPasswordRequired or ErrIncorrectPassword.
// If the structured PDF library fails, it falls back to the external
// pdftotext command (poppler-utils).
func ExtractPDF(ctx context.Context, data []byte, password string) ([]string, error) {
	r, err := openPDF(data, password)
	if err != nil {
		return nil, err
	}

	pages, libErr := extractWithLibrary(ctx, r)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Library failed or returned garbage, try pdftotext as last resort
	popplerPages, popplerErr := extractWithPdftotext(ctx, data, password)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, libErr)
	}
	return nil, ErrUnreadable
}

// IsEncryptedPDF reports whether the document needs a password to open.
func IsEncryptedPDF(data []byte) bool {
	_, err := openPDF(data, "")
	return errors.Is(err, ErrPasswordRequired)
}

func openPDF(data []byte, password string) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	// The library keeps asking until the callback returns "".
	tried := false
	pw := func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	}

	r, err = pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, pdf.ErrInvalidPassword) && password == "":
		return nil, ErrPasswordRequired
	case errors.Is(err, pdf.ErrInvalidPassword):
		return nil, ErrIncorrectPassword
	default:
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
}

// extractWithLibrary uses the ledongthuc/pdf library with two methods.
func extractWithLibrary(ctx context.Context, r *pdf.Reader) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow (best layout preservation)
	pages, err = extractByRow(ctx, r, numPages)
	if err != nil || isReadableText(pages) {
		return pages, err
	}

	// Method 2: glyph positions, breaking lines on vertical movement
	return extractByContent(ctx, r, numPages)
}

// Method 1: GetTextByRow, best for well-structured PDFs
func extractByRow(ctx context.Context, r *pdf.Reader, numPages int) ([]string, error) {
	var pages []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages, nil
}

// Method 2: Page.Content(), lower-level access to text objects in stream order.
func extractByContent(ctx context.Context, r *pdf.Reader, numPages int) ([]string, error) {
	var pages []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}
		pages = append(pages, reconstructLines(content.Text))
	}
	return pages, nil
}

// lineBreakTolerance is how far, in text space units, the baseline may move
// before the next glyph is considered to be on a new line.
const lineBreakTolerance = 4.0

// reconstructLines joins positioned text into lines. A new line starts when
// the vertical position moves more than lineBreakTolerance; a space is
// inserted where there is a horizontal gap between neighbouring runs.
func reconstructLines(texts []pdf.Text) string {
	var lines []string
	var line strings.Builder
	var prev *pdf.Text

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for i := range texts {
		t := &texts[i]
		if t.S == "" {
			continue
		}
		if prev != nil {
			gap := t.X - (prev.X + prev.W)
			switch {
			case math.Abs(t.Y-prev.Y) > lineBreakTolerance:
				flush()
			case gap > prev.FontSize*0.2 && !strings.HasSuffix(line.String(), " "):
				line.WriteString(" ")
			}
		}
		line.WriteString(t.S)
		prev = t
	}
	flush()

	return strings.Join(lines, "\n")
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go library cannot handle.
func extractWithPdftotext(ctx context.Context, data []byte, password string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	path, cleanup, err := writeTemp(data, ".pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := []string{"-layout"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, path, "-")

	out, err := exec.CommandContext(ctx, "pdftotext", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v", err)
	}

	// pdftotext separates pages with form feeds
	var pages []string
	for _, page := range strings.Split(string(out), "\f") {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// writeTemp stores data in a temporary file for the external tools.
func writeTemp(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "mpesa-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// textQuality returns the ratio of basic ASCII readable characters (a-z, A-Z,
// 0-9, common punctuation, whitespace) to total characters. Returns 0.0-1.0.
// unicode.IsLetter() is too broad and matches accented characters that
// appear in garbage from identity-encoded fonts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
				unicode.IsSpace(r) || strings.ContainsRune(".,-/:;()'\"$%&@#!?+=*", r)) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually all M-PESA statements and message exports.
// If the extracted text contains none of these, it's likely garbage.
var commonWords = []string{
	"m-pesa", "mpesa", "confirmed", "completed", "ksh", "receipt",
	"transaction", "balance", "paid in", "withdrawn", "statement",
	"details", "sent to", "received",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires >20 chars, >60% readable ASCII characters and at
// least one common word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 20 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
