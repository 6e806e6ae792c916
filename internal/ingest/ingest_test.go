package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

const messages = `ABC123 Confirmed. Ksh1,500.00 sent to JOHN DOE on 5/6/24 at 2:30 PM
XYZ789 Confirmed. You have received Ksh2,000 from JANE on 1/1/25 at 9:00 AM`

func TestText(t *testing.T) {
	stmt := Text(messages, Options{Location: time.UTC})
	assert.Equal(t, models.SourceText, stmt.Source)
	require.Len(t, stmt.Transactions, 2)
	assert.Nil(t, stmt.DebugLines)

	traced := Text(messages, Options{Location: time.UTC, Trace: true})
	assert.Len(t, traced.DebugLines, 2)
	assert.Equal(t, stmt.Transactions, traced.Transactions)
}

func TestLoad_TextFile(t *testing.T) {
	stmt, err := Load(context.Background(), "sms-export.TXT", []byte(messages), Options{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, models.SourceText, stmt.Source)
	assert.Len(t, stmt.Transactions, 2)
}

func TestLoad_Spreadsheet(t *testing.T) {
	data := "Receipt No.,Completion Time,Details,Paid In,Withdrawn\n" +
		"TL6HZ097WP,2025-12-06 10:15:00,Merchant Payment,,-35.00\n"

	stmt, err := Load(context.Background(), "statement.csv", []byte(data), Options{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, models.SourceSpreadsheet, stmt.Source)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "TL6HZ097WP", stmt.Transactions[0].ID)
}

func TestLoad_UnsupportedType(t *testing.T) {
	_, err := Load(context.Background(), "statement.docx", []byte("irrelevant"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLoad_InvalidPDF(t *testing.T) {
	_, err := Load(context.Background(), "statement.pdf", []byte("not a pdf"), Options{})
	assert.Error(t, err)
}
