package llm

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `[{"index":1}]`, `[{"index":1}]`},
		{"json fence", "```json\n[{\"index\":1}]\n```", `[{"index":1}]`},
		{"bare fence", "```\n[1,2]\n```\n", `[1,2]`},
		{"prose around array", "Here you go:\n[1, 2]\nHope this helps", `[1, 2]`},
		{"no array", `{"a":1}`, `{"a":1}`},
		{"single line fence", "```[]```", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.raw))
		})
	}
}

func TestNewGemini_MissingKey(t *testing.T) {
	g, err := NewGemini(context.Background(), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, g)
}

func TestToGenaiParts(t *testing.T) {
	parts := toGenaiParts([]Part{
		TextPart("extract"),
		{Data: []byte("%PDF-1.4"), MIMEType: "application/pdf"},
	})

	require.Len(t, parts, 2)
	assert.Equal(t, "extract", parts[0].Text)
	assert.Nil(t, parts[0].InlineData)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "application/pdf", parts[1].InlineData.MIMEType)
}
