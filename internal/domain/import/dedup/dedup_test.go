package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/pkg/money"
)

type fakeReader struct {
	rows  []Existing
	err   error
	calls int
	from  time.Time
	to    time.Time
}

func (f *fakeReader) TransactionsInWindow(_ context.Context, _ uuid.UUID, from, to time.Time) ([]Existing, error) {
	f.calls++
	f.from, f.to = from, to
	return f.rows, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestDetect_Empty(t *testing.T) {
	reader := &fakeReader{}
	results, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa", nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, reader.calls)
}

func TestDetect_Window(t *testing.T) {
	reader := &fakeReader{}
	candidates := []Candidate{
		{Date: day(2024, time.January, 10), Amount: decimal.NewFromInt(1)},
		{Date: day(2024, time.January, 3), Amount: decimal.NewFromInt(1)},
		{Date: day(2024, time.January, 20), Amount: decimal.NewFromInt(1)},
	}

	results, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa", candidates)

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, day(2023, time.December, 31), reader.from)
	assert.Equal(t, day(2024, time.January, 23), reader.to)
}

func TestDetect_ReaderError(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection reset")}
	_, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa",
		[]Candidate{{Date: day(2024, time.January, 1), Amount: decimal.NewFromInt(5)}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDetect_Tiers(t *testing.T) {
	groceries := uuid.New()
	rent := uuid.New()
	exactID := uuid.New()
	manualID := uuid.New()
	recurringID := uuid.New()

	existing := []Existing{
		{ID: exactID, Date: day(2024, time.March, 5), AmountCents: 12050, Type: common.TypeExpense,
			SourceLabel: "Visa", SourceDescription: "SUPERMARKET"},
		{ID: manualID, Date: day(2024, time.March, 6), AmountCents: 12050, Type: common.TypeExpense},
		{ID: recurringID, Date: day(2024, time.March, 1), AmountCents: 450000, Type: common.TypeExpense,
			CategoryID: ptr(rent), SourceLabel: "Bank", IsFixed: true},
	}

	tests := []struct {
		name      string
		candidate Candidate
		want      Status
		wantID    *uuid.UUID
	}{
		{
			name: "exact beats suspect",
			candidate: Candidate{Date: day(2024, time.March, 5), SourceDescription: "SUPERMARKET",
				Amount: decimal.RequireFromString("120.50"), Type: common.TypeExpense},
			want: StatusDuplicate, wantID: &exactID,
		},
		{
			name: "different description falls to suspect",
			candidate: Candidate{Date: day(2024, time.March, 4), SourceDescription: "OTHER",
				Amount: decimal.RequireFromString("120.5"), Type: common.TypeExpense},
			want: StatusSuspect, wantID: &manualID,
		},
		{
			name: "suspect boundary is inclusive",
			candidate: Candidate{Date: day(2024, time.March, 8), SourceDescription: "OTHER",
				Amount: decimal.RequireFromString("120.5"), Type: common.TypeExpense},
			want: StatusSuspect, wantID: &manualID,
		},
		{
			name: "outside suspect tolerance",
			candidate: Candidate{Date: day(2024, time.March, 9), SourceDescription: "OTHER",
				Amount: decimal.RequireFromString("120.5"), Type: common.TypeExpense},
			want: StatusNew,
		},
		{
			name: "recurring needs same category month and type",
			candidate: Candidate{Date: day(2024, time.March, 28), SourceDescription: "RENT",
				Amount: decimal.NewFromInt(4500), Type: common.TypeExpense, CategoryID: ptr(rent)},
			want: StatusRecurringMatch, wantID: &recurringID,
		},
		{
			name: "recurring skipped without category",
			candidate: Candidate{Date: day(2024, time.March, 28), SourceDescription: "RENT",
				Amount: decimal.NewFromInt(4500), Type: common.TypeExpense},
			want: StatusNew,
		},
		{
			name: "recurring with other category",
			candidate: Candidate{Date: day(2024, time.March, 28), SourceDescription: "RENT",
				Amount: decimal.NewFromInt(4500), Type: common.TypeExpense, CategoryID: ptr(groceries)},
			want: StatusNew,
		},
		{
			name: "recurring in another month",
			candidate: Candidate{Date: day(2024, time.April, 1), SourceDescription: "RENT",
				Amount: decimal.NewFromInt(4500), Type: common.TypeExpense, CategoryID: ptr(rent)},
			want: StatusNew,
		},
		{
			name: "recurring with other type",
			candidate: Candidate{Date: day(2024, time.March, 28), SourceDescription: "RENT",
				Amount: decimal.NewFromInt(4500), Type: common.TypeIncome, CategoryID: ptr(rent)},
			want: StatusNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{rows: existing}
			results, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa", []Candidate{tt.candidate})
			require.NoError(t, err)
			require.Len(t, results, 1)

			assert.Equal(t, tt.want, results[0].Status)
			assert.Equal(t, tt.wantID, results[0].DuplicateOfID)
			if tt.want == StatusNew {
				assert.Empty(t, results[0].Reason)
			} else {
				assert.NotEmpty(t, results[0].Reason)
			}
		})
	}
}

func TestDetect_ExactNeedsSameSourceLabel(t *testing.T) {
	reader := &fakeReader{rows: []Existing{
		{ID: uuid.New(), Date: day(2024, time.March, 5), AmountCents: 1000, SourceLabel: "Mastercard", SourceDescription: "CAFE"},
	}}
	results, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa", []Candidate{
		{Date: day(2024, time.March, 5), SourceDescription: "CAFE", Amount: decimal.NewFromInt(10)},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusNew, results[0].Status)
}

func TestDetect_FirstMatchInQueryOrder(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	reader := &fakeReader{rows: []Existing{
		{ID: first, Date: day(2024, time.March, 5), AmountCents: 1000},
		{ID: second, Date: day(2024, time.March, 5), AmountCents: 1000},
	}}

	results, err := New(reader, testLogger()).Detect(context.Background(), uuid.New(), "Visa", []Candidate{
		{Date: day(2024, time.March, 5), SourceDescription: "CAFE", Amount: decimal.NewFromInt(10)},
	})

	require.NoError(t, err)
	require.NotNil(t, results[0].DuplicateOfID)
	assert.Equal(t, first, *results[0].DuplicateOfID)
}

func TestDetect_ReimportIsAllDuplicates(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(42)
	from, to := day(2024, time.January, 1), day(2024, time.January, 31)

	var (
		candidates []Candidate
		existing   []Existing
	)
	for i := 0; i < 50; i++ {
		c := Candidate{
			Date:              gen.Date(from, to),
			SourceDescription: gen.Merchant(),
			Amount:            gen.Amount(1, 2000),
			Type:              common.TypeExpense,
		}
		candidates = append(candidates, c)
		existing = append(existing, Existing{
			ID:                uuid.New(),
			Date:              c.Date,
			AmountCents:       money.ToCents(c.Amount, money.DefaultCurrency),
			Type:              c.Type,
			SourceLabel:       "Isracard",
			SourceDescription: c.SourceDescription,
		})
	}

	results, err := New(&fakeReader{rows: existing}, testLogger()).
		Detect(context.Background(), uuid.New(), "Isracard", candidates)

	require.NoError(t, err)
	require.Len(t, results, len(candidates))
	for i, r := range results {
		assert.Equal(t, StatusDuplicate, r.Status, "row %d", i)
	}
}

func TestDetector_Options(t *testing.T) {
	reader := &fakeReader{}
	d := New(reader, testLogger()).WithWindow(7).WithSuspectDays(-1)
	assert.Equal(t, 7, d.windowDays)
	assert.Equal(t, defaultSuspectDays, d.suspectDays)
}
