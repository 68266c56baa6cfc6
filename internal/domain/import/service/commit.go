package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
	"github.com/FACorreiaa/household-budget/internal/domain/import/repository"
	"github.com/FACorreiaa/household-budget/pkg/money"
)

// Commit persists the selected, categorized rows of a reviewed preview as
// one import batch. Counts on the batch describe the full row set.
func (s *ImportService) Commit(ctx context.Context, householdID uuid.UUID, req CommitRequest) (*CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Commit", trace.WithAttributes(
		attribute.String("household_id", householdID.String()),
		attribute.Int("rows", len(req.Rows)),
	))
	defer span.End()

	label := strings.TrimSpace(req.SourceLabel)
	if label == "" {
		return nil, invalid("choose the account or card this statement belongs to")
	}

	accepted := make([]ImportRow, 0, len(req.Rows))
	duplicates := 0
	for _, r := range req.Rows {
		if r.Status == dedup.StatusDuplicate {
			duplicates++
		}
		if r.IsSelected && resolvedCategory(r.CategoryID, r.SubCategoryID) != nil {
			accepted = append(accepted, r)
		}
	}
	if len(accepted) == 0 {
		return nil, ErrNothingToCommit
	}

	tree, err := s.categories.Tree(ctx, householdID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("commit import: %w", err)
	}

	txns, err := s.toTransactions(accepted, tree)
	if err != nil {
		return nil, err
	}

	batch := &repository.ImportBatch{
		HouseholdID:    householdID,
		SourceLabel:    label,
		FileName:       req.FileName,
		FileType:       req.FileType,
		TotalFound:     len(req.Rows),
		ImportedCount:  len(txns),
		DuplicateCount: duplicates,
		SkippedCount:   len(req.Rows) - len(txns),
	}
	if err := s.store.CommitImport(ctx, batch, txns); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, fmt.Errorf("commit import: %w", err)
	}

	if s.recorder != nil {
		s.recorder.ObserveCommit(len(txns))
	}
	s.logger.Info("import batch created",
		slog.String("household_id", householdID.String()),
		slog.String("batch_id", batch.ID.String()),
		slog.String("source_label", label),
		slog.Int("imported", batch.ImportedCount),
		slog.Int("skipped", batch.SkippedCount),
	)

	return &CommitResult{
		Success:       true,
		BatchID:       batch.ID,
		ImportedCount: len(txns),
		Message:       s.commitMessage(txns),
	}, nil
}

// toTransactions validates reviewed rows. Category ids come back from the
// client, so they must resolve in the household's own tree.
func (s *ImportService) toTransactions(rows []ImportRow, tree categorization.Tree) ([]repository.NewTransaction, error) {
	txns := make([]repository.NewTransaction, 0, len(rows))
	for _, r := range rows {
		if !r.Type.Valid() {
			return nil, invalid(fmt.Sprintf("row %d has an invalid type %q", r.Index, r.Type))
		}
		date, err := time.Parse(common.DateLayout, r.Date)
		if err != nil {
			return nil, invalid(fmt.Sprintf("row %d has an invalid date %q", r.Index, r.Date))
		}
		cents := money.ToCents(r.Amount.Abs(), s.opts.Currency)
		if cents == 0 {
			return nil, invalid(fmt.Sprintf("row %d has a zero amount", r.Index))
		}
		category := resolvedCategory(tree.Resolve(r.CategoryID, r.SubCategoryID))
		if category == nil {
			return nil, invalid(fmt.Sprintf("row %d has a category that does not exist", r.Index))
		}

		txns = append(txns, repository.NewTransaction{
			CategoryID:        *category,
			Type:              r.Type,
			AmountCents:       cents,
			Date:              date,
			Description:       r.Description,
			SourceDescription: r.Description,
			InstallmentInfo:   r.InstallmentInfo,
		})
	}
	return txns, nil
}

func (s *ImportService) commitMessage(txns []repository.NewTransaction) string {
	expenses := money.Zero(s.opts.Currency)
	income := money.Zero(s.opts.Currency)
	for _, t := range txns {
		amount := money.New(t.AmountCents, s.opts.Currency)
		var err error
		if t.Type == common.TypeIncome {
			income, err = income.Add(amount)
		} else {
			expenses, err = expenses.Add(amount)
		}
		if err != nil {
			s.logger.Warn("failed to total import", slog.Any("error", err))
			return fmt.Sprintf("Imported %d transactions", len(txns))
		}
	}
	return fmt.Sprintf("Imported %d transactions (expenses %s, income %s)",
		len(txns), expenses.Display(), income.Display())
}
