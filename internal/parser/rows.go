package parser

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

// Statement rows look like
//
//	TL6HZ097WP 2025-12-06 10:15:00 Payment to Merchant ABC Completed -35.00 233.27
//
// but column-based text extraction usually wraps one row over several lines.
var (
	// Receipt code followed by an ISO date-time opens a row.
	rowStartPattern = regexp.MustCompile(`^[A-Z0-9]{10}\s+\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`)
	// "Completed" then the amount and an optional running balance closes it.
	rowEndPattern = regexp.MustCompile(`(?i)Completed\s+[0-9,.\-]+(?:\s+[0-9,.\-]+)?$`)
	// rowPattern captures the fields of a complete buffer. The balance is ignored.
	rowPattern = regexp.MustCompile(`(?i)^([A-Z0-9]{10})\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})\s+(.+?)\s+Completed\s+([0-9,.\-]+)(?:\s+[0-9,.\-]+)?$`)

	paybillKeywords = regexp.MustCompile(`(?i)Pay\s*Bill|Merchant`)
)

var (
	// errRowIncomplete keeps the buffer open for more lines.
	errRowIncomplete = errors.New("statement row incomplete")
	// errRowInvalid drops the buffer.
	errRowInvalid = errors.New("statement row has an invalid timestamp")
)

// extractRow turns a buffer that satisfied rowEndPattern into a transaction.
func extractRow(buf string, loc *time.Location) (models.Transaction, error) {
	m := rowPattern.FindStringSubmatch(buf)
	if m == nil {
		return models.Transaction{}, errRowIncomplete
	}

	date, err := parseRowTime(m[2], m[3], loc)
	if err != nil {
		return models.Transaction{}, errRowInvalid
	}

	detail := strings.TrimSpace(m[4])
	txn := models.Transaction{
		ID:          m[1],
		Date:        date,
		Description: detail,
		Raw:         buf,
	}

	amount, err := parseAmount(m[5])
	if err != nil {
		// Shaped like a row but the amount column is unreadable.
		txn.Type = models.TypeUnknown
		return txn, nil
	}
	txn.Type = classifyRow(amount, detail)
	txn.Amount = math.Abs(amount)
	return txn, nil
}

// classifyRow derives the direction from the sign of the completed amount.
func classifyRow(amount float64, detail string) models.TransactionType {
	if amount >= 0 {
		return models.TypeReceive
	}
	if paybillKeywords.MatchString(detail) {
		return models.TypePaybill
	}
	return models.TypeSend
}
