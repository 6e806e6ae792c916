package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestReconstructLines(t *testing.T) {
	texts := []pdf.Text{
		{X: 10, Y: 700, W: 50, FontSize: 10, S: "TL6HZ097WP"},
		{X: 65, Y: 700, W: 45, FontSize: 10, S: "2025-12-06"},
		{X: 115, Y: 700, W: 40, FontSize: 10, S: "10:15:00"},
		// wrapped detail column, same row within tolerance
		{X: 160, Y: 698, W: 40, FontSize: 10, S: "Payment"},
		{X: 10, Y: 688, W: 20, FontSize: 10, S: "to"},
		{X: 33, Y: 688, W: 40, FontSize: 10, S: "Merch"},
		{X: 73, Y: 688, W: 10, FontSize: 10, S: "ant"},
		{X: 90, Y: 688, W: 0, FontSize: 10, S: ""},
		{X: 10, Y: 600, W: 60, FontSize: 10, S: "Completed"},
	}

	got := reconstructLines(texts)
	want := "TL6HZ097WP 2025-12-06 10:15:00 Payment\nto Merchant\nCompleted"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstructLines_Empty(t *testing.T) {
	if got := reconstructLines(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement text", []string{"MPESA FULL STATEMENT\nReceipt No. Completion Time Details"}, true},
		{"confirmation messages", []string{"ABC123 Confirmed. Ksh1,500.00 sent to JOHN DOE"}, true},
		{"too short", []string{"Ksh 10"}, false},
		{"no statement words", []string{"lorem ipsum dolor sit amet consectetur"}, false},
		{"binary garbage", []string{strings.Repeat("éþ¤", 20) + " ksh"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.want {
				t.Errorf("isReadableText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPDF_InvalidDocument(t *testing.T) {
	_, err := ExtractPDF(context.Background(), []byte("this is not a pdf"), "")
	if err == nil {
		t.Fatal("expected error for invalid document")
	}
}

func TestIsEncryptedPDF_InvalidDocument(t *testing.T) {
	if IsEncryptedPDF([]byte("this is not a pdf")) {
		t.Error("invalid document reported as encrypted")
	}
}
