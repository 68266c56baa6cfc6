// Package repository persists the import core: the windowed transaction
// read used by duplicate detection, the commit transaction, and the
// household's recent source labels.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
	"github.com/FACorreiaa/household-budget/pkg/db"
)

// ErrShortCopy is returned when COPY wrote fewer rows than were given.
var ErrShortCopy = errors.New("copy wrote fewer transactions than requested")

// ImportBatch is the audit record of a confirmed import.
type ImportBatch struct {
	ID             uuid.UUID
	HouseholdID    uuid.UUID
	SourceLabel    string
	FileName       string
	FileType       string
	TotalFound     int
	ImportedCount  int
	DuplicateCount int
	SkippedCount   int
	CreatedAt      time.Time
}

// NewTransaction is one row written by a commit.
type NewTransaction struct {
	CategoryID        uuid.UUID
	Type              common.TransactionType
	AmountCents       int64
	Date              time.Time
	Description       string
	SourceDescription string
	InstallmentInfo   string
}

// Source is a source label with its last use.
type Source struct {
	Label      string    `json:"label"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}

var transactionColumns = []string{
	"household_id", "category_id", "type", "amount_cents", "date", "description",
	"source_label", "source_description", "installment_info", "import_batch_id",
}

// Repository handles database operations for imports
type Repository struct {
	db     db.DBTX
	logger *slog.Logger
}

// NewRepository creates a new import repository
func NewRepository(conn db.DBTX, logger *slog.Logger) *Repository {
	return &Repository{db: conn, logger: logger}
}

// TransactionsInWindow returns the household's transactions dated within
// [from, to], oldest first. It implements dedup.WindowReader.
func (r *Repository) TransactionsInWindow(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]dedup.Existing, error) {
	query := `
		SELECT id, date, amount_cents, type, category_id, source_label, source_description, is_fixed, is_recurring
		FROM transactions
		WHERE household_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, created_at, id
	`

	rows, err := r.db.Query(ctx, query, householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query transactions in window: %w", err)
	}
	defer rows.Close()

	var out []dedup.Existing
	for rows.Next() {
		var (
			e                 dedup.Existing
			txnType           string
			sourceLabel       *string
			sourceDescription *string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.AmountCents, &txnType, &e.CategoryID,
			&sourceLabel, &sourceDescription, &e.IsFixed, &e.IsRecurring); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		e.Type = common.TransactionType(txnType)
		e.SourceLabel = deref(sourceLabel)
		e.SourceDescription = deref(sourceDescription)
		out = append(out, e)
	}

	return out, rows.Err()
}

// CommitImport writes the audit batch, bumps the source label's recency and
// copies the transactions, all in one database transaction. batch.ID and
// batch.CreatedAt are filled in from the database.
func (r *Repository) CommitImport(ctx context.Context, batch *ImportBatch, txns []NewTransaction) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Warn("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	batchQuery := `
		INSERT INTO import_batches (household_id, source_label, file_name, file_type,
			total_found, imported_count, duplicate_count, skipped_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, batchQuery,
		batch.HouseholdID, batch.SourceLabel, batch.FileName, batch.FileType,
		batch.TotalFound, batch.ImportedCount, batch.DuplicateCount, batch.SkippedCount,
	).Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}

	sourceQuery := `
		INSERT INTO import_sources (household_id, label, last_used_at)
		VALUES ($1, $2, now())
		ON CONFLICT (household_id, label) DO UPDATE SET last_used_at = EXCLUDED.last_used_at
	`
	if _, err = tx.Exec(ctx, sourceQuery, batch.HouseholdID, batch.SourceLabel); err != nil {
		return fmt.Errorf("upsert import source: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"transactions"}, transactionColumns,
		pgx.CopyFromSlice(len(txns), func(i int) ([]any, error) {
			t := txns[i]
			return []any{
				batch.HouseholdID,
				t.CategoryID,
				string(t.Type),
				t.AmountCents,
				t.Date,
				t.Description,
				batch.SourceLabel,
				nullable(t.SourceDescription),
				nullable(t.InstallmentInfo),
				batch.ID,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy transactions: %w", err)
	}
	if copied != int64(len(txns)) {
		err = fmt.Errorf("%w: %d of %d", ErrShortCopy, copied, len(txns))
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	r.logger.Info("import committed",
		slog.String("batch_id", batch.ID.String()),
		slog.String("household_id", batch.HouseholdID.String()),
		slog.Int("transactions", len(txns)),
	)
	return nil
}

// ListSources returns the household's source labels, most recently used first.
func (r *Repository) ListSources(ctx context.Context, householdID uuid.UUID, limit int) ([]Source, error) {
	query := `
		SELECT label, last_used_at
		FROM import_sources
		WHERE household_id = $1
		ORDER BY last_used_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("query import sources: %w", err)
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.Label, &s.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan import source: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
