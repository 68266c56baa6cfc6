package parser

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/classifier"
)

func newTestParser() *Parser {
	return New(classifier.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// buildWorkbook writes rows into the first sheet starting at A1.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cellName, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_XLSX(t *testing.T) {
	t.Run("header on row 3 after title and blank row", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"פירוט עסקאות לכרטיס 1234"},
			{},
			{"תאריך עסקה", "שם בית העסק", "סכום חיוב"},
			{"15/01/2024", "שופרסל דיל", 120.5},
			{"16/01/2024", "זיכוי אמזון", -30},
		})

		rows := newTestParser().Parse(data, FormatXLSX, true)

		require.Len(t, rows, 2)
		assert.Equal(t, day(2024, time.January, 15), rows[0].Date)
		assert.Equal(t, "שופרסל דיל", rows[0].Description)
		assert.True(t, decimal.RequireFromString("120.5").Equal(rows[0].Amount))
		assert.Equal(t, common.TypeExpense, rows[0].Type)

		assert.Equal(t, common.TypeIncome, rows[1].Type)
		assert.True(t, decimal.NewFromInt(30).Equal(rows[1].Amount))
	})

	t.Run("bank sign convention is inverted", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"תאריך", "תיאור", "סכום"},
			{"01/02/2024", "משכורת", 12000},
			{"02/02/2024", "חשמל", -450.2},
		})

		rows := newTestParser().Parse(data, FormatXLSX, false)

		require.Len(t, rows, 2)
		assert.Equal(t, common.TypeIncome, rows[0].Type)
		assert.Equal(t, common.TypeExpense, rows[1].Type)
		assert.True(t, decimal.RequireFromString("450.2").Equal(rows[1].Amount))
	})

	t.Run("native date cells", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{day(2024, time.January, 15), "Coffee", -4.5},
		})

		rows := newTestParser().Parse(data, FormatXLSX, false)

		require.Len(t, rows, 1)
		assert.Equal(t, day(2024, time.January, 15), rows[0].Date)
	})

	t.Run("summary rows are skipped", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-01-15", "Coffee", 10},
			{"2024-01-31", "סה״כ", 10},
			{"2024-01-31", "Total", 10},
		})

		rows := newTestParser().Parse(data, FormatXLSX, true)

		require.Len(t, rows, 1)
		assert.Equal(t, "Coffee", rows[0].Description)
	})

	t.Run("debit and credit columns", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"תאריך", "הפעולה", "חובה", "זכות", "יתרה"},
			{"01/03/2024", "העברה מחשבון", "", 500, 1500},
			{"02/03/2024", "הוראת קבע ועד בית", 200, "", 1300},
			{"03/03/2024", "שורה ריקה", 0, 0, 1300},
		})

		rows := newTestParser().Parse(data, FormatXLSX, false)

		require.Len(t, rows, 2)
		assert.Equal(t, common.TypeIncome, rows[0].Type)
		assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount))
		assert.Equal(t, common.TypeExpense, rows[1].Type)
		assert.True(t, decimal.NewFromInt(200).Equal(rows[1].Amount))
	})

	t.Run("falls back to billing date", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"תאריך עסקה", "תיאור", "סכום", "תאריך חיוב"},
			{"", "מנוי", 50, "10/04/2024"},
			{"bad", "ללא תאריך", 50, ""},
		})

		rows := newTestParser().Parse(data, FormatXLSX, true)

		require.Len(t, rows, 1)
		assert.Equal(t, day(2024, time.April, 10), rows[0].Date)
	})

	t.Run("zero and unparseable amounts are skipped", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-01-15", "Zero", 0},
			{"2024-01-15", "Garbage", "n/a"},
			{"2024-01-15", "Kept", "₪1,234.50"},
		})

		rows := newTestParser().Parse(data, FormatXLSX, false)

		require.Len(t, rows, 1)
		assert.True(t, decimal.RequireFromString("1234.5").Equal(rows[0].Amount))
	})

	t.Run("installments and whitespace", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-01-15", "  תשלום 3 מתוך 12   -   סופרמרקט ", 99},
		})

		rows := newTestParser().Parse(data, FormatXLSX, true)

		require.Len(t, rows, 1)
		assert.Equal(t, "תשלום 3 מתוך 12 - סופרמרקט", rows[0].Description)
		assert.Equal(t, "תשלום 3/12", rows[0].InstallmentInfo)
	})

	t.Run("no header gives empty result", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"only"}, {"two", "cells"},
		})
		rows := newTestParser().Parse(data, FormatXLSX, false)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("no description column gives empty result", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Amount", "Balance"},
			{"2024-01-15", 10, 100},
		})
		assert.Empty(t, newTestParser().Parse(data, FormatXLSX, false))
	})

	t.Run("no amount column gives empty result", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Reference"},
			{"2024-01-15", "Shop", "A-1"},
		})
		rows := newTestParser().Parse(data, FormatXLSX, false)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("garbage bytes give empty result", func(t *testing.T) {
		assert.Empty(t, newTestParser().Parse([]byte("not a workbook"), FormatXLSX, false))
	})

	t.Run("parsing is deterministic", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-01-15", "A", 1},
			{"2024-01-16", "B", -2},
			{"2024-01-17", "C", 3},
		})
		p := newTestParser()
		assert.Equal(t, p.Parse(data, FormatXLSX, true), p.Parse(data, FormatXLSX, true))
	})
}

func TestParse_CSV(t *testing.T) {
	t.Run("utf-8 with bom and semicolons", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("תאריך;תיאור;סכום\n15/01/24;סופר;-12,50\n")...)

		rows := newTestParser().Parse(data, FormatCSV, false)

		require.Len(t, rows, 1)
		assert.Equal(t, day(2024, time.January, 15), rows[0].Date)
		assert.Equal(t, "סופר", rows[0].Description)
		assert.True(t, decimal.RequireFromString("12.5").Equal(rows[0].Amount))
		assert.Equal(t, common.TypeExpense, rows[0].Type)
	})

	t.Run("windows-1255 encoded", func(t *testing.T) {
		encoded, err := charmap.Windows1255.NewEncoder().String("תאריך,תיאור,סכום\n2024-01-15,מכולת,20\n")
		require.NoError(t, err)

		rows := newTestParser().Parse([]byte(encoded), FormatCSV, true)

		require.Len(t, rows, 1)
		assert.Equal(t, "מכולת", rows[0].Description)
	})

	t.Run("ragged rows", func(t *testing.T) {
		data := []byte("Report\nDate,Description,Amount\n2024-01-15,\"Shop, Ltd\",5\n2024-01-16,Short\n")

		rows := newTestParser().Parse(data, FormatCSV, true)

		require.Len(t, rows, 1)
		assert.Equal(t, "Shop, Ltd", rows[0].Description)
	})
}

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Format
		ok   bool
	}{
		{"xlsx", FormatXLSX, true},
		{".XLS", FormatXLSX, true},
		{"csv", FormatCSV, true},
		{"pdf", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatFromExtension(tt.ext)
		assert.Equal(t, tt.ok, ok, tt.ext)
		assert.Equal(t, tt.want, got, tt.ext)
	}
}

func BenchmarkParseGrid(b *testing.B) {
	grid := [][]string{{"Date", "Description", "Amount"}}
	for i := 0; i < 1000; i++ {
		grid = append(grid, []string{"15/01/2024", "תשלום 1 מתוך 3 חנות", "-12.50"})
	}
	p := New(classifier.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ParseGrid(grid, false)
	}
}
