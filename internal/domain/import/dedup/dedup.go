// Package dedup matches freshly parsed statement rows against transactions
// the household already has, in three tiers: exact re-import, suspected
// hand-entered copy, and occurrence of a fixed or recurring charge.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/pkg/money"
)

// Status is the dedup verdict for one row.
type Status string

const (
	StatusNew            Status = "new"
	StatusDuplicate      Status = "duplicate"
	StatusSuspect        Status = "suspect"
	StatusRecurringMatch Status = "recurring_match"
	// StatusTransfer is never produced here; the orchestrator applies it
	// over StatusNew.
	StatusTransfer Status = "transfer"
)

const (
	defaultWindowDays  = 3
	defaultSuspectDays = 2
)

// Existing is a stored transaction as seen by the detector.
type Existing struct {
	ID                uuid.UUID
	Date              time.Time
	AmountCents       int64
	Type              common.TransactionType
	CategoryID        *uuid.UUID
	SourceLabel       string // empty for manually entered transactions
	SourceDescription string
	IsFixed           bool
	IsRecurring       bool
}

// Candidate is a parsed row about to be imported.
type Candidate struct {
	Date              time.Time
	SourceDescription string
	Amount            decimal.Decimal
	Type              common.TransactionType
	CategoryID        *uuid.UUID
}

// Result is the verdict for one candidate, in input order.
type Result struct {
	Status        Status     `json:"status"`
	DuplicateOfID *uuid.UUID `json:"duplicateOfId,omitempty"`
	Reason        string     `json:"duplicateReason,omitempty"`
}

// WindowReader loads the household's transactions dated within [from, to].
type WindowReader interface {
	TransactionsInWindow(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]Existing, error)
}

// Detector runs the tiered match.
type Detector struct {
	reader      WindowReader
	windowDays  int
	suspectDays int
	logger      *slog.Logger
}

// New creates a detector with a ±3 day query window and a 2 day suspect
// tolerance.
func New(reader WindowReader, logger *slog.Logger) *Detector {
	return &Detector{
		reader:      reader,
		windowDays:  defaultWindowDays,
		suspectDays: defaultSuspectDays,
		logger:      logger,
	}
}

// WithWindow overrides how many days around the candidates' date range are loaded.
func (d *Detector) WithWindow(days int) *Detector {
	if days >= 0 {
		d.windowDays = days
	}
	return d
}

// WithSuspectDays overrides the suspect tier's date tolerance.
func (d *Detector) WithSuspectDays(days int) *Detector {
	if days >= 0 {
		d.suspectDays = days
	}
	return d
}

// Detect classifies every candidate with a single windowed query. The
// first existing transaction in query order that satisfies a tier wins.
func (d *Detector) Detect(ctx context.Context, householdID uuid.UUID, sourceLabel string, candidates []Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	from, to := dateRange(candidates)
	from = from.AddDate(0, 0, -d.windowDays)
	to = to.AddDate(0, 0, d.windowDays)

	existing, err := d.reader.TransactionsInWindow(ctx, householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load transactions for dedup: %w", err)
	}

	results := make([]Result, len(candidates))
	counts := make(map[Status]int)
	for i, c := range candidates {
		results[i] = d.match(c, sourceLabel, existing)
		counts[results[i].Status]++
	}

	d.logger.Debug("dedup complete",
		slog.String("household_id", householdID.String()),
		slog.Int("candidates", len(candidates)),
		slog.Int("existing", len(existing)),
		slog.Int("duplicates", counts[StatusDuplicate]),
		slog.Int("suspects", counts[StatusSuspect]),
		slog.Int("recurring", counts[StatusRecurringMatch]),
	)
	return results, nil
}

func (d *Detector) match(c Candidate, sourceLabel string, existing []Existing) Result {
	cents := money.ToCents(c.Amount.Abs(), money.DefaultCurrency)
	date := common.TruncateDay(c.Date)
	dateKey := date.Format(common.DateLayout)

	for _, e := range existing {
		if e.SourceLabel != "" &&
			e.SourceLabel == sourceLabel &&
			e.SourceDescription == c.SourceDescription &&
			e.AmountCents == cents &&
			e.Date.Format(common.DateLayout) == dateKey {
			return found(StatusDuplicate, e,
				fmt.Sprintf("same transaction already imported from %s on %s", e.SourceLabel, dateKey))
		}
	}

	for _, e := range existing {
		if e.SourceLabel == "" &&
			e.AmountCents == cents &&
			absDays(date, common.TruncateDay(e.Date)) <= d.suspectDays {
			return found(StatusSuspect, e,
				fmt.Sprintf("manually entered transaction with the same amount on %s", e.Date.Format(common.DateLayout)))
		}
	}

	if c.CategoryID != nil {
		for _, e := range existing {
			if (e.IsFixed || e.IsRecurring) &&
				e.AmountCents == cents &&
				e.Type == c.Type &&
				e.CategoryID != nil && *e.CategoryID == *c.CategoryID &&
				e.Date.Year() == date.Year() && e.Date.Month() == date.Month() {
				return found(StatusRecurringMatch, e,
					fmt.Sprintf("matches a fixed or recurring transaction already recorded for %s", date.Format("2006-01")))
			}
		}
	}

	return Result{Status: StatusNew}
}

func found(status Status, e Existing, reason string) Result {
	id := e.ID
	return Result{Status: status, DuplicateOfID: &id, Reason: reason}
}

func dateRange(candidates []Candidate) (time.Time, time.Time) {
	from := common.TruncateDay(candidates[0].Date)
	to := from
	for _, c := range candidates[1:] {
		day := common.TruncateDay(c.Date)
		if day.Before(from) {
			from = day
		}
		if day.After(to) {
			to = day
		}
	}
	return from, to
}

func absDays(a, b time.Time) int {
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
