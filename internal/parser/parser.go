// Package parser recovers mobile-money transactions from free-form text:
// single-line M-PESA confirmation messages and statement rows that text
// extraction has wrapped over several lines.
package parser

import (
	"strings"
	"time"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

// Line results recorded in the trace.
const (
	resultMessage     = "message"
	resultRowStart    = "row-start"
	resultContinue    = "continuation"
	resultRowComplete = "row-complete"
	resultSkipped     = "skipped"
)

const methodStatementRow = "statement-row"

// Parse extracts transactions from text, reading timestamps in the local
// time zone. It never fails: unrecognized input yields an empty slice.
func Parse(text string) []models.Transaction {
	return ParseInLocation(text, time.Local)
}

// ParseInLocation is like Parse but reads timestamps in loc.
func ParseInLocation(text string, loc *time.Location) []models.Transaction {
	f := newFold(loc, false)
	f.run(text)
	return f.txns
}

// Trace parses text like ParseInLocation and also reports what happened to
// every non-empty line.
func Trace(text string, loc *time.Location) ([]models.Transaction, []models.DebugLine) {
	f := newFold(loc, true)
	f.run(text)
	return f.txns, f.trace
}

// rowState is the state of statement-row accumulation.
type rowState int

const (
	idle rowState = iota
	accumulating
)

// fold carries the accumulator of a single parse call.
type fold struct {
	loc     *time.Location
	state   rowState
	buf     string
	txns    []models.Transaction
	tracing bool
	trace   []models.DebugLine
}

func newFold(loc *time.Location, tracing bool) *fold {
	if loc == nil {
		loc = time.Local
	}
	return &fold{
		loc:     loc,
		txns:    []models.Transaction{},
		tracing: tracing,
	}
}

func (f *fold) run(text string) {
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		f.step(i+1, line)
	}
}

// step consumes one trimmed, non-empty line.
func (f *fold) step(lineNum int, line string) {
	// A confirmation message always wins and drops any open row, even when
	// its amount or date cannot be read.
	if txn, method, matched, ok := matchMessage(line, f.loc); matched {
		f.reset()
		if !ok {
			f.record(lineNum, line, resultSkipped, method)
			return
		}
		f.txns = append(f.txns, txn)
		f.record(lineNum, line, resultMessage, method)
		return
	}

	result := resultContinue
	switch {
	case rowStartPattern.MatchString(line):
		// An unterminated previous row is lost here.
		f.state, f.buf = accumulating, line
		result = resultRowStart
	case f.state == accumulating:
		f.buf += " " + line
	default:
		f.record(lineNum, line, resultSkipped, "")
		return
	}

	if !rowEndPattern.MatchString(f.buf) {
		f.record(lineNum, line, result, "")
		return
	}

	txn, err := extractRow(f.buf, f.loc)
	switch err {
	case nil:
		f.txns = append(f.txns, txn)
		f.reset()
		result = resultRowComplete
	case errRowInvalid:
		f.reset()
		result = resultSkipped
	}
	f.record(lineNum, line, result, methodStatementRow)
}

func (f *fold) reset() {
	f.state, f.buf = idle, ""
}

func (f *fold) record(lineNum int, line, result, method string) {
	if !f.tracing {
		return
	}
	f.trace = append(f.trace, models.DebugLine{
		LineNum: lineNum,
		Text:    line,
		Result:  result,
		Method:  method,
	})
}
