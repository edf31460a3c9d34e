// Package recommend maps a free-text repository summary to candidate rules.
//
// Matching is plain substring containment against a fixed keyword table;
// there is no tokenization or scoring. All keywords are found in a single
// pass with an Aho-Corasick automaton using overlapping iteration, so a
// keyword nested in another ("java" in "javascript") still counts.
package recommend

import (
	"fmt"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Recommendation is one suggested rule.
type Recommendation struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Reason      string   `json:"reason"`
}

// Recommender holds a compiled keyword automaton. It is safe for
// concurrent use.
type Recommender struct {
	ac       ahocorasick.AhoCorasick
	keywords []string
	rules    [][]string
}

// New compiles the built-in keyword table.
func New() *Recommender {
	r := &Recommender{
		keywords: make([]string, len(keywordTable)),
		rules:    make([][]string, len(keywordTable)),
	}
	for i, e := range keywordTable {
		r.keywords[i] = e.Keyword
		r.rules[i] = e.Rules
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch,
	})
	r.ac = builder.Build(r.keywords)
	return r
}

var defaultRecommender = New()

// Recommend uses the built-in table.
func Recommend(summary string) []Recommendation {
	return defaultRecommender.Recommend(summary)
}

// Recommend returns the baseline rules followed by the rules of every
// keyword contained in summary, in table order, each name at most once.
func (r *Recommender) Recommend(summary string) []Recommendation {
	matched := r.match(strings.ToLower(summary))

	seen := make(map[string]bool)
	var out []Recommendation
	add := func(name, reason string) {
		if seen[name] {
			return
		}
		seen[name] = true
		rule, _ := Lookup(name)
		out = append(out, Recommendation{
			Name:        name,
			Description: rule.Description,
			Category:    rule.Category,
			Reason:      reason,
		})
	}

	for _, name := range Baseline {
		add(name, "baseline rule recommended for every repository")
	}
	for i, kw := range r.keywords {
		if !matched[i] {
			continue
		}
		for _, name := range r.rules[i] {
			add(name, fmt.Sprintf("summary mentions %q", kw))
		}
	}
	return out
}

// match returns the indexes of all keywords occurring in text.
func (r *Recommender) match(text string) map[int]bool {
	matched := make(map[int]bool)
	iter := r.ac.IterOverlapping(text)
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		matched[m.Pattern()] = true
	}
	return matched
}
