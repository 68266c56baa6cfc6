package categorization

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingCache_Lookup(t *testing.T) {
	newer := uuid.New()
	older := uuid.New()
	cache := NewMappingCache([]Mapping{
		{Description: "שופרסל  דיל   רמת גן", CategoryID: newer, CategoryName: "סופרמרקט"},
		{Description: "שופרסל דיל רמת גן", CategoryID: older, CategoryName: "מזון"},
		{Description: "   ", CategoryID: uuid.New()},
	})

	assert.Equal(t, 1, cache.Len())

	t.Run("normalized hit keeps newest", func(t *testing.T) {
		m, ok := cache.Lookup("  שופרסל דיל  רמת גן ")
		require.True(t, ok)
		assert.Equal(t, newer, m.CategoryID)
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := cache.Lookup("שופרסל")
		assert.False(t, ok)
	})

	t.Run("nil cache", func(t *testing.T) {
		var c *MappingCache
		_, ok := c.Lookup("anything")
		assert.False(t, ok)
		assert.Nil(t, c.Examples([]string{"x"}, 5))
	})
}

func TestMappingCache_Examples(t *testing.T) {
	cache := NewMappingCache([]Mapping{
		{Description: "PAZ GAS STATION", CategoryID: uuid.New()},
		{Description: "NETFLIX.COM", CategoryID: uuid.New()},
		{Description: "SUPER PHARM TLV", CategoryID: uuid.New()},
		{Description: "WOLT TEL AVIV", CategoryID: uuid.New()},
	})

	t.Run("similar first then recent", func(t *testing.T) {
		got := cache.Examples([]string{"WOLT ORDER 1234"}, 3)
		require.Len(t, got, 3)
		assert.Equal(t, "WOLT TEL AVIV", got[0].Description)
		assert.Equal(t, "PAZ GAS STATION", got[1].Description)
		assert.Equal(t, "NETFLIX.COM", got[2].Description)
	})

	t.Run("limit larger than cache", func(t *testing.T) {
		got := cache.Examples(nil, 50)
		assert.Len(t, got, 4)
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Empty(t, cache.Examples([]string{"WOLT"}, 0))
	})
}
