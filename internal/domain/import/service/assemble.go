package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/categorizer"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
)

type rowFields struct {
	date            time.Time
	description     string
	amount          decimal.Decimal
	txType          common.TransactionType
	installmentInfo string
}

// assemble joins a row with its categorization and dedup verdict. A row
// flagged as a transfer only changes status when dedup called it new.
func (s *ImportService) assemble(index int, f rowFields, cat categorizer.Result, dup dedup.Result) ImportRow {
	isTransfer := cat.IsTransfer || s.heuristics.IsTransferSignal(f.description)

	status := dup.Status
	if status == "" {
		status = dedup.StatusNew
	}
	if isTransfer && status == dedup.StatusNew {
		status = dedup.StatusTransfer
	}

	confidence := cat.Confidence
	if confidence == "" {
		confidence = common.ConfidenceUnknown
	}

	return ImportRow{
		Index:           index,
		Date:            f.date.Format(common.DateLayout),
		Description:     f.description,
		Amount:          f.amount,
		Type:            f.txType,
		InstallmentInfo: f.installmentInfo,
		CategoryID:      cat.CategoryID,
		SubCategoryID:   cat.SubCategoryID,
		Confidence:      confidence,
		IsTransfer:      isTransfer,
		AIReason:        cat.Reason,
		Status:          status,
		DuplicateOfID:   dup.DuplicateOfID,
		DuplicateReason: dup.Reason,
		IsSelected:      status == dedup.StatusNew,
	}
}

// summarize counts the final rows. Dates are YYYY-MM-DD so they order as
// strings.
func summarize(rows []ImportRow) Summary {
	sum := Summary{TotalFound: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case dedup.StatusNew:
			sum.NewCount++
		case dedup.StatusDuplicate:
			sum.DuplicateCount++
		case dedup.StatusSuspect:
			sum.SuspectCount++
		case dedup.StatusTransfer:
			sum.TransferCount++
		case dedup.StatusRecurringMatch:
			sum.RecurringMatchCount++
		}

		if r.Date == "" {
			continue
		}
		if sum.DateRange == nil {
			sum.DateRange = &DateRange{From: r.Date, To: r.Date}
			continue
		}
		if r.Date < sum.DateRange.From {
			sum.DateRange.From = r.Date
		}
		if r.Date > sum.DateRange.To {
			sum.DateRange.To = r.Date
		}
	}
	return sum
}
