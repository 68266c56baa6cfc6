package categorizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateErrors(t *testing.T) {
	ok := BatchOutcome{}
	failed := func(msg string) BatchOutcome { return BatchOutcome{Err: errors.New(msg)} }

	tests := []struct {
		name     string
		outcomes []BatchOutcome
		want     string
	}{
		{"no batches", nil, ""},
		{"none failed", []BatchOutcome{ok, ok}, ""},
		{"some failed", []BatchOutcome{ok, failed("timeout"), ok, failed("quota")}, "automatic categorization failed for 2 of 4 batches"},
		{"all failed reports last error", []BatchOutcome{failed("timeout"), failed("quota")}, "automatic categorization failed completely: quota"},
		{"single failed batch", []BatchOutcome{failed("bad json")}, "automatic categorization failed completely: bad json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateErrors(tt.outcomes))
		})
	}
}

func TestSplit(t *testing.T) {
	inputs := make([]Input, 61)
	for i := range inputs {
		inputs[i].Index = i + 1
	}

	batches := split(inputs, 30)

	assert.Len(t, batches, 3)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, 31, batches[1][0].Index)
	assert.Equal(t, 61, batches[2][0].Index)
}
