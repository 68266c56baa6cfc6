// Package parser turns spreadsheet and CSV statement exports into normalized
// transaction rows. Layouts vary per bank and card issuer, so the header row
// and column roles are sniffed rather than configured.
package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/sniffer"
	"github.com/FACorreiaa/household-budget/pkg/money"
)

// Format selects the grid reader.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromExtension maps a lowercased file extension without the dot to
// a tabular format.
func FormatFromExtension(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "xlsx", "xls", "xlsm":
		return FormatXLSX, true
	case "csv":
		return FormatCSV, true
	}
	return "", false
}

// ParsedRow is one statement line. Amount is always a non-negative magnitude;
// direction lives in Type.
type ParsedRow struct {
	Date            time.Time              `json:"date"`
	Description     string                 `json:"description"`
	Amount          decimal.Decimal        `json:"amount"`
	Type            common.TransactionType `json:"type"`
	InstallmentInfo string                 `json:"installmentInfo,omitempty"`
}

// SummaryDetector recognises totals and balance lines.
type SummaryDetector interface {
	IsSummaryRow(description string) bool
}

// Parser converts raw statement bytes into rows.
type Parser struct {
	summary SummaryDetector
	logger  *slog.Logger
}

// New creates a parser. summary may be nil, in which case no row is treated
// as a summary line.
func New(summary SummaryDetector, logger *slog.Logger) *Parser {
	return &Parser{summary: summary, logger: logger}
}

// Parse reads the first sheet of data and returns its transactions in source
// order. Unreadable input, a missing header or a missing description column
// all yield an empty result.
func (p *Parser) Parse(data []byte, format Format, isCreditCard bool) []ParsedRow {
	var (
		grid [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		grid, err = readCSV(data)
	default:
		grid, err = readXLSX(data)
	}
	if err != nil {
		p.logger.Warn("failed to read statement grid",
			slog.String("format", string(format)),
			slog.Any("error", err),
		)
		return []ParsedRow{}
	}

	return p.ParseGrid(grid, isCreditCard)
}

// ParseGrid applies header sniffing and row conversion to an in-memory grid.
func (p *Parser) ParseGrid(grid [][]string, isCreditCard bool) []ParsedRow {
	rows := []ParsedRow{}

	layout, err := sniffer.Detect(grid)
	if err != nil {
		p.logger.Info("statement layout not recognised", slog.Any("error", err))
		return rows
	}
	cols := layout.Columns
	if !cols.HasAmount() {
		p.logger.Info("statement has no amount columns",
			slog.Any("headers", layout.Headers),
			slog.String("layout", layout.Fingerprint),
		)
		return rows
	}

	for i := layout.HeaderRow + 1; i < len(grid); i++ {
		record := grid[i]
		if isEmptyRecord(record) {
			continue
		}

		description := common.NormalizeDescription(cell(record, cols.Description))
		if description == "" {
			continue
		}
		if p.summary != nil && p.summary.IsSummaryRow(description) {
			continue
		}

		date, ok := ParseDate(cell(record, cols.Date))
		if !ok {
			date, ok = ParseDate(cell(record, cols.SecondaryDate))
		}
		if !ok {
			continue
		}

		amount, txType, ok := resolveAmount(record, cols, isCreditCard)
		if !ok {
			continue
		}

		rows = append(rows, ParsedRow{
			Date:            date,
			Description:     description,
			Amount:          amount,
			Type:            txType,
			InstallmentInfo: ExtractInstallment(description),
		})
	}

	p.logger.Debug("statement parsed",
		slog.String("layout", layout.Fingerprint),
		slog.Int("header_row", layout.HeaderRow),
		slog.Int("rows", len(rows)),
		slog.Bool("double_entry", cols.IsDoubleEntry()),
	)
	return rows
}

// resolveAmount picks magnitude and direction. With separate debit and
// credit columns a positive credit is income, otherwise the debit is an
// expense. With a single signed column the sign convention depends on the
// source: card statements list charges as positive, bank statements list
// withdrawals as negative.
func resolveAmount(record []string, cols sniffer.Columns, isCreditCard bool) (decimal.Decimal, common.TransactionType, bool) {
	if cols.IsDoubleEntry() {
		debit := parseCell(cell(record, cols.Debit))
		credit := parseCell(cell(record, cols.Credit))
		if credit.IsPositive() {
			return credit, common.TypeIncome, true
		}
		if debit.IsZero() {
			return decimal.Zero, "", false
		}
		return debit.Abs(), common.TypeExpense, true
	}

	if cols.Amount < 0 {
		return decimal.Zero, "", false
	}
	amount, err := money.ParseAmount(cell(record, cols.Amount))
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}

	negative := amount.IsNegative()
	var txType common.TransactionType
	switch {
	case isCreditCard && negative:
		txType = common.TypeIncome
	case isCreditCard:
		txType = common.TypeExpense
	case negative:
		txType = common.TypeExpense
	default:
		txType = common.TypeIncome
	}
	return amount.Abs(), txType, true
}

func parseCell(raw string) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, err := money.ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isEmptyRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
