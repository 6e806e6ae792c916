package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, stmt *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	if err := w.Write(f, stmt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement) error {
	writer := csv.NewWriter(out)

	// Write metadata as comments (CSV header rows)
	if w.IncludeHeader {
		if stmt.Source != "" {
			writer.Write([]string{"# Source", string(stmt.Source)})
		}
		writer.Write([]string{"# Transactions", strconv.Itoa(len(stmt.Transactions))})
	}

	header := []string{"Date", "ID", "Description", "Type", "Amount", "Account"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range stmt.Transactions {
		row := []string{
			txn.Date.Format(time.RFC3339),
			txn.ID,
			txn.Description,
			string(txn.Type),
			formatAmount(txn.Amount),
			txn.Account,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
