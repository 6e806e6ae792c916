package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errEmptyAmount = errors.New("empty amount")

// parseAmount converts a string like "1,234.56", "Ksh1,500" or "-35.00" to a float64.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	// Remove currency markers and separators (including Unicode variants)
	for _, prefix := range []string{"Ksh", "KSh", "KSH", "KES"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space

	if s == "" || s == "-" {
		return 0, errEmptyAmount
	}

	return strconv.ParseFloat(s, 64)
}

// Confirmation messages write dates day-first: "5/6/24 at 2:30 PM" is 5 June 2024.
var messageTimeLayouts = []string{
	"2/1/06 3:04 PM",
	"2/1/2006 3:04 PM",
}

// parseMessageTime combines the date and time captures of a confirmation message.
func parseMessageTime(date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.ToUpper(strings.Join(strings.Fields(clock), ""))
	if n := len(clock); n > 2 {
		// "2:30PM" -> "2:30 PM"
		clock = clock[:n-2] + " " + clock[n-2:]
	}

	value := date + " " + clock
	var err error
	for _, layout := range messageTimeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// parseRowTime parses the ISO-style timestamp that opens a statement row.
func parseRowTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, loc)
}
