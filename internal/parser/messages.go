package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

// messageShape is one single-line confirmation format. Every pattern names
// its captures: code, amount, party, date, time and optionally account.
type messageShape struct {
	method  string
	txnType models.TransactionType
	pattern *regexp.Regexp
}

const messageDateTime = `\s+on\s+(?P<date>\d{1,2}/\d{1,2}/\d{2,4})\s+at\s+(?P<time>\d{1,2}:\d{2}\s?(?:AM|PM))`

// messageShapes is evaluated in order and the first match wins. PAYBILL comes
// before SEND: "sent to X for account Y on ..." also satisfies the SEND
// pattern with X = "X for account Y".
var messageShapes = []messageShape{
	{
		method:  "paybill-message",
		txnType: models.TypePaybill,
		pattern: regexp.MustCompile(`(?i)(?P<code>[A-Z0-9]+)\s+Confirmed\.\s+Ksh(?P<amount>[0-9,.]+)\s+sent\s+to\s+(?P<party>.+?)\s+for\s+account\s+(?P<account>.+?)` + messageDateTime),
	},
	{
		method:  "send-message",
		txnType: models.TypeSend,
		pattern: regexp.MustCompile(`(?i)(?P<code>[A-Z0-9]+)\s+Confirmed\.\s+Ksh(?P<amount>[0-9,.]+)\s+sent\s+to\s+(?P<party>.+?)` + messageDateTime),
	},
	{
		method:  "receive-message",
		txnType: models.TypeReceive,
		pattern: regexp.MustCompile(`(?i)(?P<code>[A-Z0-9]+)\s+Confirmed\.\s+You\s+have\s+received\s+Ksh(?P<amount>[0-9,.]+)\s+from\s+(?P<party>.+?)` + messageDateTime),
	},
}

// extract builds a transaction from a matching line. It reports false when
// the line does not match or when the amount or date cannot be read.
func (s messageShape) extract(line string, loc *time.Location) (models.Transaction, bool) {
	m := s.pattern.FindStringSubmatch(line)
	if m == nil {
		return models.Transaction{}, false
	}
	group := func(name string) string {
		if i := s.pattern.SubexpIndex(name); i > 0 {
			return strings.TrimSpace(m[i])
		}
		return ""
	}

	amount, err := parseAmount(group("amount"))
	if err != nil || amount < 0 {
		return models.Transaction{}, false
	}
	date, err := parseMessageTime(group("date"), group("time"), loc)
	if err != nil {
		return models.Transaction{}, false
	}

	return models.Transaction{
		ID:          group("code"),
		Date:        date,
		Description: group("party"),
		Amount:      amount,
		Type:        s.txnType,
		Raw:         line,
		Account:     group("account"),
	}, true
}

// matchMessage tries every message shape in priority order. matched reports
// that a pattern fit the line; ok that its amount and date were also readable.
func matchMessage(line string, loc *time.Location) (txn models.Transaction, method string, matched, ok bool) {
	for _, shape := range messageShapes {
		if !shape.pattern.MatchString(line) {
			continue
		}
		txn, ok = shape.extract(line, loc)
		return txn, shape.method, true, ok
	}
	return models.Transaction{}, "", false, false
}
