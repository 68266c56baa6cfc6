// Package extractor reads transactions out of PDF statements and photos in a
// single model call that also categorizes them.
package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/categorizer"
	"github.com/FACorreiaa/household-budget/internal/domain/import/parser"
	"github.com/FACorreiaa/household-budget/pkg/llm"
)

// ExtractedRow is a transaction read from a document, already categorized.
type ExtractedRow struct {
	Date            time.Time
	Description     string
	Amount          decimal.Decimal
	Type            common.TransactionType
	InstallmentInfo string
	CategoryID      *uuid.UUID
	SubCategoryID   *uuid.UUID
	Confidence      common.Confidence
	IsTransfer      bool
	Reason          string
}

type modelRow struct {
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	CategoryID    *string         `json:"categoryId"`
	SubCategoryID *string         `json:"subCategoryId"`
	Confidence    string          `json:"confidence"`
	IsTransfer    bool            `json:"isTransfer"`
	Reason        string          `json:"reason"`
}

// Extractor runs document extraction.
type Extractor struct {
	gen    llm.Generator
	logger *slog.Logger
}

// New creates an extractor. With a nil generator every Extract returns no rows.
func New(gen llm.Generator, logger *slog.Logger) *Extractor {
	return &Extractor{gen: gen, logger: logger}
}

// Extract never fails: any problem is logged and yields an empty slice,
// which the caller reports as "no transactions found".
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string, tree categorization.Tree) []ExtractedRow {
	rows := []ExtractedRow{}
	if e.gen == nil {
		e.logger.Warn("document extraction skipped", slog.Any("error", llm.ErrMissingAPIKey))
		return rows
	}

	text, err := e.gen.Generate(ctx,
		llm.TextPart(buildPrompt(tree)),
		llm.Part{Data: data, MIMEType: mimeType},
	)
	if err != nil {
		e.logger.Error("document extraction failed",
			slog.String("mime_type", mimeType),
			slog.Int("bytes", len(data)),
			slog.Any("error", err),
		)
		return rows
	}

	var parsed []modelRow
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &parsed); err != nil {
		e.logger.Error("document extraction returned invalid JSON",
			slog.String("mime_type", mimeType),
			slog.Any("error", err),
		)
		return rows
	}

	dropped := 0
	for _, m := range parsed {
		row, ok := toRow(m, tree)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}

	e.logger.Info("document extracted",
		slog.String("mime_type", mimeType),
		slog.Int("rows", len(rows)),
		slog.Int("dropped", dropped),
	)
	return rows
}

func toRow(m modelRow, tree categorization.Tree) (ExtractedRow, bool) {
	date, ok := parser.ParseDate(m.Date)
	if !ok {
		return ExtractedRow{}, false
	}
	description := common.NormalizeDescription(m.Description)
	if description == "" || m.Amount.IsZero() {
		return ExtractedRow{}, false
	}

	// amounts are absolute, so a missing type defaults to expense
	txType, ok := common.ParseTransactionType(m.Type)
	if !ok {
		txType = common.TypeExpense
	}

	cat, sub := categorizer.ResolveIDs(tree, m.CategoryID, m.SubCategoryID)
	confidence := common.ParseConfidence(m.Confidence)
	if cat != nil {
		if c, found := tree.Find(*cat); found && c.Type.Valid() && c.Type != txType {
			cat, sub = nil, nil
		}
	}
	if cat == nil {
		confidence = common.ConfidenceUnknown
	}

	return ExtractedRow{
		Date:            date,
		Description:     description,
		Amount:          m.Amount.Abs(),
		Type:            txType,
		InstallmentInfo: parser.ExtractInstallment(description),
		CategoryID:      cat,
		SubCategoryID:   sub,
		Confidence:      confidence,
		IsTransfer:      m.IsTransfer,
		Reason:          m.Reason,
	}, true
}

func buildPrompt(tree categorization.Tree) string {
	var sb strings.Builder
	sb.WriteString("The attached document is a bank or credit card statement, possibly in Hebrew.\n")
	sb.WriteString("Extract every transaction and categorize it.\n\n")
	sb.WriteString("Categories (JSON, each with sub-categories in \"children\"):\n")
	sb.WriteString(categorizer.TreeJSON(tree))
	sb.WriteString(`

Rules:
- Skip totals, subtotals, balance lines and any other summary rows.
- When a row shows both a transaction date and a billing date, use the transaction date.
- "amount" is the absolute value. "type" is "EXPENSE" for money out and "INCOME" for money in or refunds.
- Choose a category whose type matches the transaction type, preferring the most specific sub-category. Use only ids from the list, or null.
- Set "isTransfer" to true for movements between the household's own accounts, deposits and credit card bill payments.
- "confidence" is "high", "low" or "unknown".
- Keep the description as printed, including any installment text.

Return ONLY a raw JSON array:
`)
	sb.WriteString(`[{"date": "YYYY-MM-DD", "description": "...", "amount": 12.5, "type": "EXPENSE", "categoryId": "...", "subCategoryId": null, "confidence": "high", "isTransfer": false, "reason": "short explanation"}]`)
	sb.WriteString("\n")
	return sb.String()
}
