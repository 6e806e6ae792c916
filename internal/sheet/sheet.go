// Package sheet maps exported M-PESA statement spreadsheets (.xlsx or .csv)
// straight to transactions, without going through the text parser.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

var (
	// ErrUnsupportedFormat is returned for file types other than .xlsx and .csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrNoHeader is returned when no row looks like a column header.
	ErrNoHeader = errors.New("no header row with a date column found")
)

// Extensions lists the file types Read accepts.
var Extensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

type column int

const (
	colID column = iota
	colDate
	colDescription
	colAmount
	colPaidIn
	colPaidOut
)

// columnAliases lists header names per column in order of preference.
var columnAliases = []struct {
	col   column
	names []string
}{
	{colID, []string{"receipt no.", "receipt no", "receipt"}},
	{colDate, []string{"date", "completion time"}},
	{colDescription, []string{"details", "name"}},
	{colAmount, []string{"amount"}},
	{colPaidIn, []string{"paid in"}},
	{colPaidOut, []string{"paid out", "withdrawn"}},
}

// Read returns the transactions of the first sheet (or the CSV body).
// Rows without a readable date or amount are skipped.
func Read(r io.Reader, ext string, loc *time.Location) ([]models.Transaction, error) {
	if loc == nil {
		loc = time.Local
	}

	var rows [][]string
	var err error
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return mapRows(rows, loc)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// Raw values keep dates as serial numbers instead of "mm-dd-yy".
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func mapRows(rows [][]string, loc *time.Location) ([]models.Transaction, error) {
	headerIdx, cols := findHeader(rows)
	if headerIdx < 0 {
		return nil, ErrNoHeader
	}

	txns := []models.Transaction{}
	for i, row := range rows[headerIdx+1:] {
		cell := func(c column) string {
			idx, ok := cols[c]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		date, err := parseDate(cell(colDate), loc)
		if err != nil {
			continue
		}

		paidIn, _ := parseAmount(cell(colPaidIn))
		amount, err := firstAmount(cell(colAmount), cell(colPaidIn), cell(colPaidOut))
		if err != nil {
			continue
		}

		txn := models.Transaction{
			ID:          cell(colID),
			Date:        date,
			Description: cell(colDescription),
			Amount:      math.Abs(amount),
			Type:        models.TypeSend,
			Raw:         strings.Join(row, ","),
		}
		if txn.ID == "" {
			txn.ID = fmt.Sprintf("EXCEL-%d", i)
		}
		if txn.Description == "" {
			txn.Description = "Unknown"
		}
		if paidIn != 0 {
			txn.Type = models.TypeReceive
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// findHeader returns the index of the first row naming a date column and
// the position of every known column in it.
func findHeader(rows [][]string) (int, map[column]int) {
	for i, row := range rows {
		names := make(map[string]int, len(row))
		for j, cell := range row {
			name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
			if _, seen := names[name]; !seen {
				names[name] = j
			}
		}

		cols := make(map[column]int)
		for _, alias := range columnAliases {
			for _, name := range alias.names {
				if j, ok := names[name]; ok {
					cols[alias.col] = j
					break
				}
			}
		}
		if _, ok := cols[colDate]; ok {
			return i, cols
		}
	}
	return -1, nil
}

// firstAmount returns the first non-empty, readable amount.
func firstAmount(values ...string) (float64, error) {
	for _, v := range values {
		if amount, err := parseAmount(v); err == nil && amount != 0 {
			return amount, nil
		}
	}
	return 0, errors.New("no amount")
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Ksh")
	s = strings.TrimPrefix(s, "KES")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, errors.New("empty amount")
	}
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2/1/06 3:04 PM",
}

// parseDate reads text timestamps and Excel date serial numbers.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
