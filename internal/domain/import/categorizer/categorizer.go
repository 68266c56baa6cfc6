// Package categorizer assigns categories to statement rows. Rows whose
// description the household has categorized before are answered from the
// mapping cache; the rest go to the language model in concurrent batches,
// each of which may fail on its own without affecting the others.
package categorizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/pkg/llm"
)

// ErrUnavailable is reported when no model credential is configured.
var ErrUnavailable = errors.New("automatic categorization is unavailable: no AI credential configured")

const (
	reasonCacheHit      = "matched a previous categorization"
	reasonFailed        = "categorization failed"
	reasonNotReturned   = "not returned by model"
	reasonUnavailable   = "categorization unavailable"
	reasonTypeMismatch  = "suggested category has the wrong type"
	defaultBatchSize    = 30
	defaultExampleLimit = 50
)

// Input is one row to categorize. Index is the row's global 1-based index.
type Input struct {
	Index       int
	Description string
	Type        common.TransactionType
}

// Options tunes batching.
type Options struct {
	BatchSize       int
	ExampleMappings int
	MaxConcurrency  int // 0 means every batch at once
}

// Recorder receives categorizer counters; *metrics.Metrics implements it.
type Recorder interface {
	ObserveBatch(outcome string)
	ObserveCacheHits(n int)
}

// Categorizer runs cache lookups and model batches.
type Categorizer struct {
	gen      llm.Generator
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// New creates a categorizer. A nil generator yields one that answers every
// row with unknown confidence and reports ErrUnavailable.
func New(gen llm.Generator, opts Options, logger *slog.Logger, recorder Recorder) *Categorizer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.ExampleMappings <= 0 {
		opts.ExampleMappings = defaultExampleLimit
	}
	return &Categorizer{
		gen:      gen,
		opts:     opts,
		logger:   logger,
		recorder: recorder,
		tracer:   otel.Tracer("household-budget/categorizer"),
	}
}

// Categorize returns exactly one result per input, sorted by index.
func (c *Categorizer) Categorize(ctx context.Context, inputs []Input, tree categorization.Tree, cache *categorization.MappingCache) Outcome {
	if len(inputs) == 0 {
		return Outcome{Results: []Result{}}
	}

	if c.gen == nil {
		results := make([]Result, 0, len(inputs))
		for _, in := range inputs {
			results = append(results, unknownResult(in.Index, reasonUnavailable))
		}
		sortByIndex(results)
		return Outcome{Results: results, Err: ErrUnavailable.Error()}
	}

	ctx, span := c.tracer.Start(ctx, "categorizer.Categorize", trace.WithAttributes(
		attribute.Int("rows", len(inputs)),
	))
	defer span.End()

	results := make([]Result, 0, len(inputs))
	var misses []Input
	for _, in := range inputs {
		if m, ok := cache.Lookup(in.Description); ok {
			results = append(results, fromMapping(in.Index, m))
			continue
		}
		misses = append(misses, in)
	}
	if hits := len(results); hits > 0 && c.recorder != nil {
		c.recorder.ObserveCacheHits(hits)
	}

	outcomes := c.runBatches(ctx, misses, tree, cache)
	for _, o := range outcomes {
		results = append(results, o.Results...)
	}
	sortByIndex(results)

	aggregate := AggregateErrors(outcomes)
	span.SetAttributes(
		attribute.Int("cache_hits", len(inputs)-len(misses)),
		attribute.Int("batches", len(outcomes)),
	)
	if aggregate != "" {
		c.logger.Warn("categorization degraded", slog.String("error", aggregate))
	}
	return Outcome{Results: results, Err: aggregate}
}

// runBatches dispatches every batch concurrently. Batch goroutines never
// return an error, so one failure does not cancel the others.
func (c *Categorizer) runBatches(ctx context.Context, misses []Input, tree categorization.Tree, cache *categorization.MappingCache) []BatchOutcome {
	if len(misses) == 0 {
		return nil
	}

	batches := split(misses, c.opts.BatchSize)
	outcomes := make([]BatchOutcome, len(batches))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, batch := range batches {
		g.Go(func() error {
			outcomes[i] = c.runBatch(ctx, i, batch, tree, cache)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (c *Categorizer) runBatch(ctx context.Context, n int, batch []Input, tree categorization.Tree, cache *categorization.MappingCache) BatchOutcome {
	out := BatchOutcome{
		Index: n,
		From:  batch[0].Index,
		To:    batch[len(batch)-1].Index,
	}

	descriptions := make([]string, len(batch))
	for i, in := range batch {
		descriptions[i] = in.Description
	}
	examples := cache.Examples(descriptions, c.opts.ExampleMappings)

	results, err := c.callModel(ctx, tree, examples, batch)
	if err != nil {
		c.logger.Error("categorization batch failed",
			slog.Int("batch", n),
			slog.Int("from", out.From),
			slog.Int("to", out.To),
			slog.Any("error", err),
		)
		out.Err = err
		out.Results = make([]Result, 0, len(batch))
		for _, in := range batch {
			out.Results = append(out.Results, unknownResult(in.Index, reasonFailed))
		}
		c.record("failed")
		return out
	}

	out.Results = results
	c.record("ok")
	return out
}

func (c *Categorizer) callModel(ctx context.Context, tree categorization.Tree, examples []categorization.Mapping, batch []Input) ([]Result, error) {
	prompt := buildBatchPrompt(tree, examples, batch)

	text, err := c.gen.Generate(ctx, llm.TextPart(prompt))
	if err != nil {
		return nil, err
	}

	var rows []ModelRow
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &rows); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	byIndex := make(map[int]ModelRow, len(rows))
	for _, r := range rows {
		if _, seen := byIndex[r.Index]; !seen {
			byIndex[r.Index] = r
		}
	}

	results := make([]Result, 0, len(batch))
	for _, in := range batch {
		r, ok := byIndex[in.Index]
		if !ok {
			results = append(results, unknownResult(in.Index, reasonNotReturned))
			continue
		}
		results = append(results, r.toResult(in, tree))
	}
	return results, nil
}

func (c *Categorizer) record(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveBatch(outcome)
	}
}

// ModelRow is one element of the model's JSON answer. Ids arrive as strings
// so a malformed id drops only that field.
type ModelRow struct {
	Index         int     `json:"index"`
	CategoryID    *string `json:"categoryId"`
	SubCategoryID *string `json:"subCategoryId"`
	Confidence    string  `json:"confidence"`
	IsTransfer    bool    `json:"isTransfer"`
	Reason        string  `json:"reason"`
}

func (r ModelRow) toResult(in Input, tree categorization.Tree) Result {
	cat, sub := ResolveIDs(tree, r.CategoryID, r.SubCategoryID)
	res := Result{
		Index:         in.Index,
		CategoryID:    cat,
		SubCategoryID: sub,
		Confidence:    common.ParseConfidence(r.Confidence),
		IsTransfer:    r.IsTransfer,
		Reason:        r.Reason,
	}

	if cat != nil && in.Type.Valid() {
		if parent, ok := tree.Find(*cat); ok && parent.Type.Valid() && parent.Type != in.Type {
			res.CategoryID, res.SubCategoryID = nil, nil
			res.Reason = reasonTypeMismatch
		}
	}
	if res.CategoryID == nil {
		res.Confidence = common.ConfidenceUnknown
	}
	return res
}

// ResolveIDs parses model-supplied ids and validates them against the tree.
func ResolveIDs(tree categorization.Tree, categoryID, subCategoryID *string) (*uuid.UUID, *uuid.UUID) {
	return tree.Resolve(parseID(categoryID), parseID(subCategoryID))
}

func parseID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

func fromMapping(index int, m categorization.Mapping) Result {
	res := Result{
		Index:      index,
		Confidence: common.ConfidenceHigh,
		Reason:     reasonCacheHit,
	}
	id := m.CategoryID
	if m.ParentCategoryID != nil {
		parent := *m.ParentCategoryID
		res.CategoryID = &parent
		res.SubCategoryID = &id
	} else {
		res.CategoryID = &id
	}
	return res
}

func split(inputs []Input, size int) [][]Input {
	var batches [][]Input
	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))
		batches = append(batches, inputs[start:end])
	}
	return batches
}

func sortByIndex(results []Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Index < results[j].Index })
}
