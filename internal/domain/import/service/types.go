package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
)

var (
	// ErrNoTransactions means the upload was readable but yielded no rows.
	ErrNoTransactions = errors.New("no transactions found in the file")
	// ErrNothingToCommit means no row is both selected and categorized.
	ErrNothingToCommit = errors.New("no selected transactions with a category to import")
)

// ValidationError is a user input problem with a message fit for display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Upload is a statement file as received from the client.
type Upload struct {
	FileName    string
	Size        int64
	Data        []byte
	SourceLabel string
	FileType    string // client hint, informational only
}

// ImportRow is a preview row. Index is the 1-based parse order and the
// only stable key through preview, edit and commit.
type ImportRow struct {
	Index           int                    `json:"index"`
	Date            string                 `json:"date"`
	Description     string                 `json:"description"`
	Amount          decimal.Decimal        `json:"amount"`
	Type            common.TransactionType `json:"type"`
	InstallmentInfo string                 `json:"installmentInfo,omitempty"`
	CategoryID      *uuid.UUID             `json:"categoryId"`
	SubCategoryID   *uuid.UUID             `json:"subCategoryId"`
	Confidence      common.Confidence      `json:"confidence"`
	IsTransfer      bool                   `json:"isTransfer"`
	AIReason        string                 `json:"aiReason,omitempty"`
	Status          dedup.Status           `json:"status"`
	DuplicateOfID   *uuid.UUID             `json:"duplicateOfId,omitempty"`
	DuplicateReason string                 `json:"duplicateReason,omitempty"`
	IsSelected      bool                   `json:"isSelected"`
}

// DateRange spans the preview rows' dates, formatted YYYY-MM-DD.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Summary counts preview rows by final status.
type Summary struct {
	TotalFound          int        `json:"totalFound"`
	NewCount            int        `json:"newCount"`
	DuplicateCount      int        `json:"duplicateCount"`
	SuspectCount        int        `json:"suspectCount"`
	TransferCount       int        `json:"transferCount"`
	RecurringMatchCount int        `json:"recurringMatchCount"`
	DateRange           *DateRange `json:"dateRange"`
}

// Preview is the response to an upload.
type Preview struct {
	Rows    []ImportRow `json:"rows"`
	Summary Summary     `json:"summary"`
	AIError string      `json:"aiError,omitempty"`
}

// CommitRequest carries the rows the user reviewed.
type CommitRequest struct {
	Rows        []ImportRow `json:"rows"`
	SourceLabel string      `json:"sourceLabel"`
	FileName    string      `json:"fileName"`
	FileType    string      `json:"fileType"`
}

// CommitResult reports a finished import.
type CommitResult struct {
	Success       bool      `json:"success"`
	BatchID       uuid.UUID `json:"batchId"`
	ImportedCount int       `json:"importedCount"`
	Message       string    `json:"message"`
}
