package categorizer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
)

// Result is the categorization of one row, keyed by its global 1-based index.
type Result struct {
	Index         int               `json:"index"`
	CategoryID    *uuid.UUID        `json:"categoryId"`
	SubCategoryID *uuid.UUID        `json:"subCategoryId"`
	Confidence    common.Confidence `json:"confidence"`
	IsTransfer    bool              `json:"isTransfer"`
	Reason        string            `json:"reason,omitempty"`
}

// BatchOutcome is what one model call produced. Err is set when the call or
// its response parsing failed; Results then holds the degraded rows.
type BatchOutcome struct {
	Index   int // 0-based batch number
	From    int // first row index in the batch
	To      int // last row index in the batch
	Results []Result
	Err     error
}

// Failed reports whether the batch degraded.
func (b BatchOutcome) Failed() bool {
	return b.Err != nil
}

// Outcome is the full categorization of an upload. Err is empty, a soft
// warning when some batches failed, or a hard message when all did.
type Outcome struct {
	Results []Result
	Err     string
}

// AggregateErrors summarises batch failures for the user. Outcomes are
// expected in batch order; the last failure is reported when all failed.
func AggregateErrors(outcomes []BatchOutcome) string {
	var (
		failed  int
		lastErr error
	)
	for _, o := range outcomes {
		if o.Failed() {
			failed++
			lastErr = o.Err
		}
	}

	switch {
	case failed == 0:
		return ""
	case failed == len(outcomes):
		return fmt.Sprintf("automatic categorization failed completely: %v", lastErr)
	default:
		return fmt.Sprintf("automatic categorization failed for %d of %d batches", failed, len(outcomes))
	}
}

func unknownResult(index int, reason string) Result {
	return Result{
		Index:      index,
		Confidence: common.ConfidenceUnknown,
		Reason:     reason,
	}
}
