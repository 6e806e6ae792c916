package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ImageExtensions lists the image types handed to the OCR engine.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}

// IsOCRAvailable reports whether tesseract is installed.
func IsOCRAvailable() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// IsScannedPDFSupported reports whether both pdftoppm and tesseract are installed.
func IsScannedPDFSupported() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil && IsOCRAvailable()
}

// ExtractImage runs Tesseract OCR on an image (a screenshot of messages or a
// photographed statement) and returns its best-effort text.
func ExtractImage(ctx context.Context, data []byte, ext string) (string, error) {
	if !IsOCRAvailable() {
		return "", ErrOCRUnavailable
	}

	path, cleanup, err := writeTemp(data, strings.ToLower(ext))
	if err != nil {
		return "", err
	}
	defer cleanup()

	return runTesseract(ctx, path)
}

// ExtractScannedPDF converts PDF pages to images and runs Tesseract OCR.
// This handles scanned/image-based PDFs that have no text layer.
// Requires: pdftoppm (poppler-utils) and tesseract (tesseract-ocr).
func ExtractScannedPDF(ctx context.Context, data []byte, password string) ([]string, error) {
	if !IsScannedPDFSupported() {
		return nil, ErrOCRUnavailable
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "statement.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	// -r 300 = 300 DPI for good OCR quality
	args := []string{"-r", "300", "-png"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, pdfPath, filepath.Join(tmpDir, "page"))
	if out, err := exec.CommandContext(ctx, "pdftoppm", args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %v (output: %s)", err, string(out))
	}

	imageFiles, err := filepath.Glob(filepath.Join(tmpDir, "page*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(imageFiles)
	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	var pages []string
	for _, imgFile := range imageFiles {
		text, err := runTesseract(ctx, imgFile)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// some pages might still work
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: OCR produced no text from %d page images", ErrUnreadable, len(imageFiles))
	}
	return pages, nil
}

// runTesseract OCRs one image and returns the trimmed text.
// PSM 4 = assume single column of text of variable sizes (good for statements)
func runTesseract(ctx context.Context, imagePath string) (string, error) {
	out, err := exec.CommandContext(ctx, "tesseract", imagePath, "stdout", "-l", "eng", "--psm", "4").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed for %s: %w", filepath.Base(imagePath), err)
	}
	return strings.TrimSpace(string(out)), nil
}
