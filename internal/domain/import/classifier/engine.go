package classifier

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// MatchMode controls how a rule's keywords are compared with the text.
type MatchMode int

const (
	// MatchContains fires when a keyword appears anywhere in the text.
	MatchContains MatchMode = iota
	// MatchExact fires when the whole text, trimmed of surrounding
	// punctuation, equals a keyword.
	MatchExact
)

// Tag names what a matching rule says about the text.
type Tag string

// Rule is one row of the keyword table.
type Rule struct {
	Tag      Tag
	Mode     MatchMode
	Keywords []string
}

// TagSet is the set of tags fired for one text.
type TagSet map[Tag]struct{}

// Has reports whether tag fired.
func (s TagSet) Has(tag Tag) bool {
	_, ok := s[tag]
	return ok
}

// Engine evaluates a rule table in one pass over the text. Contains rules
// are compiled into a single Aho-Corasick automaton, so the cost does not
// grow with the number of keywords. Matching is case-insensitive.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	tags     [][]Tag // tags for each pattern, same order as patterns
	exact    map[string][]Tag
}

// NewEngine compiles rules. Match is safe for concurrent use; the matcher is
// only queried through MatchThreadSafe.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{exact: make(map[string][]Tag)}

	patternToIndex := make(map[string]int)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			clean := normalize(kw)
			if clean == "" {
				continue
			}
			switch rule.Mode {
			case MatchExact:
				e.exact[clean] = appendTag(e.exact[clean], rule.Tag)
			default:
				if idx, ok := patternToIndex[clean]; ok {
					e.tags[idx] = appendTag(e.tags[idx], rule.Tag)
					continue
				}
				patternToIndex[clean] = len(e.patterns)
				e.patterns = append(e.patterns, clean)
				e.tags = append(e.tags, []Tag{rule.Tag})
			}
		}
	}

	if len(e.patterns) > 0 {
		bytePatterns := make([][]byte, len(e.patterns))
		for i, p := range e.patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	}
	return e
}

// Match returns every tag fired by text.
func (e *Engine) Match(text string) TagSet {
	set := make(TagSet)
	normalized := normalize(text)
	if normalized == "" {
		return set
	}

	for _, tag := range e.exact[trimPunct(normalized)] {
		set[tag] = struct{}{}
	}

	if e.matcher == nil {
		return set
	}
	for _, idx := range e.matcher.MatchThreadSafe([]byte(normalized)) {
		if idx < 0 || idx >= len(e.tags) {
			continue
		}
		for _, tag := range e.tags[idx] {
			set[tag] = struct{}{}
		}
	}
	return set
}

func appendTag(tags []Tag, tag Tag) []Tag {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// normalize lowercases and collapses whitespace. Hebrew geresh/gershayim
// variants are folded to ASCII quotes so "סה״כ" and "סה"כ" match alike.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u05f4', '\u201c', '\u201d':
			return '"'
		case '\u05f3', '\u2019':
			return '\''
		}
		return r
	}, s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func trimPunct(s string) string {
	return strings.Trim(s, " :.-*")
}
