package models

import "time"

// TransactionType classifies the direction of a mobile-money transaction.
type TransactionType string

const (
	TypeSend    TransactionType = "SEND"
	TypeReceive TransactionType = "RECEIVE"
	TypePaybill TransactionType = "PAYBILL"
	TypeUnknown TransactionType = "UNKNOWN"
)

// Outgoing reports whether money left the account.
func (t TransactionType) Outgoing() bool {
	return t == TypeSend || t == TypePaybill
}

// Transaction represents a single normalized mobile-money transaction.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"` // always >= 0, direction is in Type
	Type        TransactionType `json:"type"`
	Raw         string          `json:"raw"`
	Account     string          `json:"account,omitempty"` // PAYBILL account reference
}

// Source identifies where the text or rows of a statement came from.
type Source string

const (
	SourceText        Source = "text"
	SourcePDF         Source = "pdf"
	SourceImage       Source = "image"
	SourceSpreadsheet Source = "spreadsheet"
)

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Result  string `json:"result"` // "message", "row-start", "continuation", "row-complete", "skipped"
	Method  string `json:"method,omitempty"`
}

// Statement bundles the transactions recovered from one input.
type Statement struct {
	Source       Source
	Transactions []Transaction
	DebugLines   []DebugLine
}
