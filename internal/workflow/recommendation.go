package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/rulewright/internal/recommend"
	"github.com/HendryAvila/rulewright/internal/rules"
)

// categoryPriority is the default priority for each category.
var categoryPriority = map[recommend.Category]rules.Priority{
	recommend.CategoryErrorHandling:  rules.PriorityHigh,
	recommend.CategorySecurity:       rules.PriorityHigh,
	recommend.CategoryFramework:      rules.PriorityHigh,
	recommend.CategoryStyle:          rules.PriorityMedium,
	recommend.CategoryTesting:        rules.PriorityMedium,
	recommend.CategoryArchitecture:   rules.PriorityMedium,
	recommend.CategoryData:           rules.PriorityMedium,
	recommend.CategoryDocumentation:  rules.PriorityLow,
	recommend.CategoryInfrastructure: rules.PriorityLow,
}

func priorityFor(c recommend.Category) rules.Priority {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return rules.PriorityMedium
}

// recommendation is phase 2.
func (e *Engine) recommendation(s *State) (PhaseResult, error) {
	recs := recommend.Recommend(summary(s))

	seen := map[string]bool{}
	list := make([]RecommendedRule, 0, len(recs))
	for _, r := range recs {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		list = append(list, RecommendedRule{
			Name:         r.Name,
			Description:  r.Description,
			Category:     string(r.Category),
			Priority:     priorityFor(r.Category),
			Dependencies: []string{},
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority.Rank() < list[j].Priority.Rank()
	})

	var style []string
	categorized := map[string][]string{}
	for _, r := range list {
		categorized[r.Category] = append(categorized[r.Category], r.Name)
		if r.Category == string(recommend.CategoryStyle) {
			style = append(style, r.Name)
		}
	}
	for i := range list {
		if list[i].Category == string(recommend.CategoryDocumentation) {
			list[i].Dependencies = append(list[i].Dependencies, style...)
		}
	}

	s.RecommendedRules = list
	s.CategorizedRules = categorized

	res := complete(PhaseRecommendation, s, fmt.Sprintf("Recommended %d rules.", len(list)))
	res.NextSteps = []string{"Review the recommended rules, then run phase 3 with the returned state."}
	return res, nil
}

// summary is the text fed to the recommender.
func summary(s *State) string {
	info := s.RepositoryInfo
	parts := []string{info.Description}
	parts = append(parts, info.MainLanguages...)
	parts = append(parts, info.KeyFeatures...)
	if a := s.AnalysisResults; a != nil {
		parts = append(parts, a.RepositoryType)
		parts = append(parts, a.RecommendedRules...)
	}
	return strings.Join(parts, " ")
}
