package extractor

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestIsOCRAvailable(t *testing.T) {
	// The result depends on the system's installed tools.
	result := IsOCRAvailable()
	t.Logf("IsOCRAvailable() = %v", result)

	_, err := exec.LookPath("tesseract")
	if expected := err == nil; result != expected {
		t.Errorf("IsOCRAvailable() = %v, but direct check says %v", result, expected)
	}
}

func TestIsScannedPDFSupported(t *testing.T) {
	_, err1 := exec.LookPath("pdftoppm")
	_, err2 := exec.LookPath("tesseract")
	expected := err1 == nil && err2 == nil
	if got := IsScannedPDFSupported(); got != expected {
		t.Errorf("IsScannedPDFSupported() = %v, but direct check says %v", got, expected)
	}
}

func TestExtractImage_MissingTools(t *testing.T) {
	if IsOCRAvailable() {
		t.Skip("OCR tools are installed; cannot test missing-tool error path")
	}

	_, err := ExtractImage(context.Background(), []byte("not an image"), ".png")
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Errorf("expected ErrOCRUnavailable, got %v", err)
	}
}

func TestExtractImage_GarbageInput(t *testing.T) {
	if !IsOCRAvailable() {
		t.Skip("OCR tools not installed; skipping")
	}

	_, err := ExtractImage(context.Background(), []byte("not an image"), ".png")
	if err == nil {
		t.Error("expected error for a file that is not an image")
	}
}

func TestExtractScannedPDF_MissingTools(t *testing.T) {
	if IsScannedPDFSupported() {
		t.Skip("OCR tools are installed; cannot test missing-tool error path")
	}

	_, err := ExtractScannedPDF(context.Background(), []byte("%PDF-1.4"), "")
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Errorf("expected ErrOCRUnavailable, got %v", err)
	}
}
