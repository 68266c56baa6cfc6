package classifier

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Match(t *testing.T) {
	engine := NewEngine([]Rule{
		{Tag: "fuel", Mode: MatchContains, Keywords: []string{"paz", "סונול", "דלק"}},
		{Tag: "coffee", Mode: MatchContains, Keywords: []string{"aroma", "ארומה"}},
		{Tag: "closing", Mode: MatchExact, Keywords: []string{"total"}},
	})

	t.Run("contains rule", func(t *testing.T) {
		tags := engine.Match("תחנת דלק סונול הרצליה")
		assert.True(t, tags.Has("fuel"))
		assert.False(t, tags.Has("coffee"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.True(t, engine.Match("PAZ YELLOW TLV").Has("fuel"))
	})

	t.Run("multiple tags in one pass", func(t *testing.T) {
		tags := engine.Match("aroma at paz station")
		assert.Len(t, tags, 2)
		assert.True(t, tags.Has("coffee"))
		assert.True(t, tags.Has("fuel"))
	})

	t.Run("exact rule ignores surrounding punctuation", func(t *testing.T) {
		assert.True(t, engine.Match("  Total: ").Has("closing"))
		assert.False(t, engine.Match("total energies").Has("closing"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, engine.Match("random text"))
		assert.Empty(t, engine.Match(""))
	})
}

func TestEngine_DuplicateKeywords(t *testing.T) {
	engine := NewEngine([]Rule{
		{Tag: "a", Keywords: []string{"Shared", "shared "}},
		{Tag: "b", Keywords: []string{"SHARED"}},
	})

	require.Len(t, engine.patterns, 1)
	tags := engine.Match("a shared word")
	assert.Len(t, tags, 2)
	assert.True(t, tags.Has("a"))
	assert.True(t, tags.Has("b"))
}

func TestEngine_Empty(t *testing.T) {
	engine := NewEngine(nil)
	assert.Empty(t, engine.patterns)
	assert.Empty(t, engine.Match("anything"))
}

func TestEngine_ConcurrentMatch(t *testing.T) {
	c := New()

	const (
		workers    = 16
		iterations = 5000
	)
	var missed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if !c.IsTransferDescription("העברה לחשבון חיסכון transfer") {
					missed.Add(1)
				}
				if !c.IsSummaryRow("סה\"כ לחיוב") {
					missed.Add(1)
				}
				if !c.IsCreditCardSource("כרטיס אשראי ויזה") {
					missed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, missed.Load())
}

func TestNormalize_Gershayim(t *testing.T) {
	assert.Equal(t, normalize("סה\"כ"), normalize("סה״כ"))
	assert.Equal(t, "a b", normalize("  A \t B "))
}

func BenchmarkEngine_Match(b *testing.B) {
	engine := NewEngine(DefaultRules)
	for i := 0; i < b.N; i++ {
		engine.Match("העברה מחשבון 12-345-678 לפיקדון חודשי")
	}
}
