package categorization

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
)

// Mapping is a description the household already categorized, projected
// from its most recent imported transaction with that description.
type Mapping struct {
	Description      string     `json:"description"`
	CategoryID       uuid.UUID  `json:"categoryId"`
	ParentCategoryID *uuid.UUID `json:"parentCategoryId,omitempty"`
	CategoryName     string     `json:"categoryName"`
}

// MappingCache answers exact lookups by normalized description and picks
// prompt examples. It is built per request and never mutated afterwards.
type MappingCache struct {
	mappings []Mapping // newest first
	byKey    map[string]int
	keys     []string
}

// NewMappingCache indexes mappings. The first mapping for a normalized
// description wins, so callers pass them newest first.
func NewMappingCache(mappings []Mapping) *MappingCache {
	c := &MappingCache{
		byKey: make(map[string]int, len(mappings)),
	}
	for _, m := range mappings {
		key := cacheKey(m.Description)
		if key == "" {
			continue
		}
		if _, dup := c.byKey[key]; dup {
			continue
		}
		c.byKey[key] = len(c.mappings)
		c.mappings = append(c.mappings, m)
		c.keys = append(c.keys, key)
	}
	return c
}

// Lookup returns the mapping whose normalized description equals the
// normalized input.
func (c *MappingCache) Lookup(description string) (Mapping, bool) {
	if c == nil {
		return Mapping{}, false
	}
	i, ok := c.byKey[cacheKey(description)]
	if !ok {
		return Mapping{}, false
	}
	return c.mappings[i], true
}

// Len returns the number of distinct cached descriptions.
func (c *MappingCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.mappings)
}

// Examples returns up to limit mappings for a prompt. Mappings that fuzzily
// match the leading word of any of the given descriptions come first, closest
// first; the rest is filled with the most recent mappings.
func (c *MappingCache) Examples(descriptions []string, limit int) []Mapping {
	if c == nil || limit <= 0 || len(c.mappings) == 0 {
		return nil
	}

	type scored struct {
		idx      int
		distance int
	}
	best := make(map[int]int)
	for _, d := range descriptions {
		token := leadingToken(d)
		if token == "" {
			continue
		}
		for _, r := range fuzzy.RankFindNormalizedFold(token, c.keys) {
			if prev, ok := best[r.OriginalIndex]; !ok || r.Distance < prev {
				best[r.OriginalIndex] = r.Distance
			}
		}
	}

	ranked := make([]scored, 0, len(best))
	for idx, dist := range best {
		ranked = append(ranked, scored{idx: idx, distance: dist})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].idx < ranked[j].idx
	})

	out := make([]Mapping, 0, min(limit, len(c.mappings)))
	taken := make(map[int]bool, limit)
	for _, r := range ranked {
		if len(out) == limit {
			return out
		}
		out = append(out, c.mappings[r.idx])
		taken[r.idx] = true
	}
	for i := range c.mappings {
		if len(out) == limit {
			break
		}
		if !taken[i] {
			out = append(out, c.mappings[i])
		}
	}
	return out
}

func cacheKey(description string) string {
	return common.NormalizeDescription(description)
}

// leadingToken is the first word of at least two runes, which for statement
// lines is usually the merchant.
func leadingToken(description string) string {
	for _, f := range strings.Fields(description) {
		if len([]rune(f)) >= 2 {
			return f
		}
	}
	return ""
}
