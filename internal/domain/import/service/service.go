// Package service orchestrates statement imports: it validates the upload,
// parses or extracts the rows, runs duplicate detection and categorization
// side by side, assembles the preview, and later commits what the user
// accepted.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/internal/domain/import/categorizer"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
	"github.com/FACorreiaa/household-budget/internal/domain/import/extractor"
	"github.com/FACorreiaa/household-budget/internal/domain/import/parser"
	"github.com/FACorreiaa/household-budget/internal/domain/import/repository"
	"github.com/FACorreiaa/household-budget/pkg/money"
)

// Store is the persistence the service writes through.
type Store interface {
	CommitImport(ctx context.Context, batch *repository.ImportBatch, txns []repository.NewTransaction) error
	ListSources(ctx context.Context, householdID uuid.UUID, limit int) ([]repository.Source, error)
}

// CategorySource loads the household's category tree and mapping cache.
type CategorySource interface {
	Snapshot(ctx context.Context, householdID uuid.UUID) (*categorization.Snapshot, error)
	Tree(ctx context.Context, householdID uuid.UUID) (categorization.Tree, error)
}

// TabularParser reads spreadsheet and CSV statements.
type TabularParser interface {
	Parse(data []byte, format parser.Format, isCreditCard bool) []parser.ParsedRow
}

// Heuristics are the keyword checks on labels and descriptions.
type Heuristics interface {
	IsCreditCardSource(sourceLabel string) bool
	IsTransferSignal(description string) bool
}

// DuplicateDetector classifies rows against stored transactions.
type DuplicateDetector interface {
	Detect(ctx context.Context, householdID uuid.UUID, sourceLabel string, candidates []dedup.Candidate) ([]dedup.Result, error)
}

// Categorizer assigns categories to tabular rows.
type Categorizer interface {
	Categorize(ctx context.Context, inputs []categorizer.Input, tree categorization.Tree, cache *categorization.MappingCache) categorizer.Outcome
}

// DocumentExtractor reads PDF and image statements.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string, tree categorization.Tree) []extractor.ExtractedRow
}

// Recorder receives import counters; *metrics.Metrics implements it.
type Recorder interface {
	ObservePreviewRows(status string, n int)
	ObserveCommit(n int)
}

// Options are the service limits.
type Options struct {
	MaxUploadBytes  int64
	SourceListLimit int
	Currency        string
}

// ImportService runs previews and commits
type ImportService struct {
	store       Store
	categories  CategorySource
	parser      TabularParser
	heuristics  Heuristics
	detector    DuplicateDetector
	categorizer Categorizer
	extractor   DocumentExtractor
	logger      *slog.Logger
	opts        Options
	recorder    Recorder
	tracer      trace.Tracer
}

// NewImportService creates a new import service
func NewImportService(
	store Store,
	categories CategorySource,
	tabular TabularParser,
	heuristics Heuristics,
	detector DuplicateDetector,
	cat Categorizer,
	docs DocumentExtractor,
	logger *slog.Logger,
	opts Options,
) *ImportService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.SourceListLimit <= 0 {
		opts.SourceListLimit = 20
	}
	if opts.Currency == "" {
		opts.Currency = money.DefaultCurrency
	}
	return &ImportService{
		store:       store,
		categories:  categories,
		parser:      tabular,
		heuristics:  heuristics,
		detector:    detector,
		categorizer: cat,
		extractor:   docs,
		logger:      logger,
		opts:        opts,
		tracer:      otel.Tracer("household-budget/import"),
	}
}

// WithRecorder adds metrics to the import service
func (s *ImportService) WithRecorder(r Recorder) *ImportService {
	s.recorder = r
	return s
}

// WithTracer replaces the global tracer
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// MaxUploadBytes is the configured upload limit.
func (s *ImportService) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// Preview validates and processes an upload into reviewable rows.
func (s *ImportService) Preview(ctx context.Context, householdID uuid.UUID, upload Upload) (*Preview, error) {
	ctx, span := s.tracer.Start(ctx, "import.Preview", trace.WithAttributes(
		attribute.String("household_id", householdID.String()),
		attribute.String("file_name", upload.FileName),
		attribute.Int64("file_size", int64(len(upload.Data))),
	))
	defer span.End()

	kind, err := validateUpload(upload, s.opts.MaxUploadBytes)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	start := time.Now()
	var preview *Preview
	if kind.kind == kindDocument {
		preview, err = s.previewDocument(ctx, householdID, upload, kind)
	} else {
		preview, err = s.previewTabular(ctx, householdID, upload, kind)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.observePreview(preview.Summary)
	span.SetAttributes(attribute.Int("rows", len(preview.Rows)))
	s.logger.Info("import preview ready",
		slog.String("household_id", householdID.String()),
		slog.String("source_label", upload.SourceLabel),
		slog.String("file_type", kind.ext),
		slog.Int("rows", preview.Summary.TotalFound),
		slog.Int("new", preview.Summary.NewCount),
		slog.Int("duplicates", preview.Summary.DuplicateCount),
		slog.Bool("ai_error", preview.AIError != ""),
		slog.Duration("elapsed", time.Since(start)),
	)
	return preview, nil
}

func (s *ImportService) previewTabular(ctx context.Context, householdID uuid.UUID, upload Upload, kind uploadKind) (*Preview, error) {
	isCreditCard := s.heuristics.IsCreditCardSource(upload.SourceLabel)

	_, parseSpan := s.tracer.Start(ctx, "import.parse")
	rows := s.parser.Parse(upload.Data, kind.format, isCreditCard)
	parseSpan.SetAttributes(attribute.Int("rows", len(rows)), attribute.Bool("credit_card", isCreditCard))
	parseSpan.End()

	if len(rows) == 0 {
		return nil, ErrNoTransactions
	}

	snapshot, err := s.categories.Snapshot(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	candidates := make([]dedup.Candidate, len(rows))
	inputs := make([]categorizer.Input, len(rows))
	for i, r := range rows {
		candidates[i] = dedup.Candidate{
			Date:              r.Date,
			SourceDescription: r.Description,
			Amount:            r.Amount,
			Type:              r.Type,
		}
		inputs[i] = categorizer.Input{Index: i + 1, Description: r.Description, Type: r.Type}
	}

	var (
		dedupResults []dedup.Result
		outcome      categorizer.Outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.detector.Detect(gctx, householdID, upload.SourceLabel, candidates)
		if err != nil {
			return fmt.Errorf("detect duplicates: %w", err)
		}
		dedupResults = res
		return nil
	})
	g.Go(func() error {
		outcome = s.categorizer.Categorize(gctx, inputs, snapshot.Tree, snapshot.Mappings)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byIndex := make(map[int]categorizer.Result, len(outcome.Results))
	for _, r := range outcome.Results {
		byIndex[r.Index] = r
	}

	previewRows := make([]ImportRow, len(rows))
	for i, r := range rows {
		cat, ok := byIndex[i+1]
		if !ok {
			cat = categorizer.Result{Index: i + 1, Confidence: common.ConfidenceUnknown}
		}
		previewRows[i] = s.assemble(i+1, rowFields{
			date:            r.Date,
			description:     r.Description,
			amount:          r.Amount,
			txType:          r.Type,
			installmentInfo: r.InstallmentInfo,
		}, cat, dedupResults[i])
	}

	return &Preview{Rows: previewRows, Summary: summarize(previewRows), AIError: outcome.Err}, nil
}

func (s *ImportService) previewDocument(ctx context.Context, householdID uuid.UUID, upload Upload, kind uploadKind) (*Preview, error) {
	snapshot, err := s.categories.Snapshot(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	extracted := s.extractor.Extract(ctx, upload.Data, kind.mimeType, snapshot.Tree)
	if len(extracted) == 0 {
		return nil, ErrNoTransactions
	}

	candidates := make([]dedup.Candidate, len(extracted))
	for i, r := range extracted {
		candidates[i] = dedup.Candidate{
			Date:              r.Date,
			SourceDescription: r.Description,
			Amount:            r.Amount,
			Type:              r.Type,
			CategoryID:        resolvedCategory(r.CategoryID, r.SubCategoryID),
		}
	}

	dedupResults, err := s.detector.Detect(ctx, householdID, upload.SourceLabel, candidates)
	if err != nil {
		return nil, fmt.Errorf("detect duplicates: %w", err)
	}

	previewRows := make([]ImportRow, len(extracted))
	for i, r := range extracted {
		previewRows[i] = s.assemble(i+1, rowFields{
			date:            r.Date,
			description:     r.Description,
			amount:          r.Amount,
			txType:          r.Type,
			installmentInfo: r.InstallmentInfo,
		}, categorizer.Result{
			Index:         i + 1,
			CategoryID:    r.CategoryID,
			SubCategoryID: r.SubCategoryID,
			Confidence:    r.Confidence,
			IsTransfer:    r.IsTransfer,
			Reason:        r.Reason,
		}, dedupResults[i])
	}

	return &Preview{Rows: previewRows, Summary: summarize(previewRows)}, nil
}

// ListSources returns the household's recent source labels for the upload form.
func (s *ImportService) ListSources(ctx context.Context, householdID uuid.UUID) ([]repository.Source, error) {
	sources, err := s.store.ListSources(ctx, householdID, s.opts.SourceListLimit)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

func (s *ImportService) observePreview(sum Summary) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObservePreviewRows(string(dedup.StatusNew), sum.NewCount)
	s.recorder.ObservePreviewRows(string(dedup.StatusDuplicate), sum.DuplicateCount)
	s.recorder.ObservePreviewRows(string(dedup.StatusSuspect), sum.SuspectCount)
	s.recorder.ObservePreviewRows(string(dedup.StatusTransfer), sum.TransferCount)
	s.recorder.ObservePreviewRows(string(dedup.StatusRecurringMatch), sum.RecurringMatchCount)
}

// resolvedCategory is the id a stored transaction would carry: the
// sub-category when there is one.
func resolvedCategory(cat, sub *uuid.UUID) *uuid.UUID {
	if sub != nil {
		return sub
	}
	return cat
}
