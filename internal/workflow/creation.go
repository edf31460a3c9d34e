package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/rulewright/internal/instructions"
	"github.com/HendryAvila/rulewright/internal/recommend"
	"github.com/HendryAvila/rulewright/internal/rules"
)

// categoryPatterns is the fallback when neither the catalog nor the
// repository supplies file patterns.
var categoryPatterns = map[recommend.Category][]string{
	recommend.CategoryDocumentation:  {"*.md"},
	recommend.CategoryInfrastructure: {"*.yml", "*.yaml", "Dockerfile"},
}

// ruleCreation is phase 4. Rules already listed in created_rules are
// skipped, so re-running after a partial result only retries failures.
func (e *Engine) ruleCreation(s *State) (PhaseResult, error) {
	if len(s.RuleFileMapping) == 0 {
		return PhaseResult{}, errors.New("no prepared rule files: rule_file_mapping is empty")
	}

	created := map[string]bool{}
	for _, c := range s.CreatedRules {
		created[c.RuleName] = true
	}
	recommended := map[string]RecommendedRule{}
	for _, r := range s.RecommendedRules {
		recommended[r.Name] = r
	}

	var (
		insts    []instructions.Instruction
		failures []CreationError
		newCount int
	)
	for _, m := range s.RuleFileMapping {
		if created[m.RuleName] {
			continue
		}
		text, err := e.generate(e.ruleSpec(s, recommended[m.RuleName], m.RuleName))
		if err != nil {
			failures = append(failures, CreationError{RuleName: m.RuleName, Error: err.Error()})
			continue
		}
		inst, err := instructions.SaveDocument(m.DraftPath, text)
		if err != nil {
			failures = append(failures, CreationError{RuleName: m.RuleName, Error: err.Error()})
			continue
		}
		if e.generated != nil {
			e.generated(m.RuleName, text)
		}
		insts = append(insts, inst)
		s.CreatedRules = append(s.CreatedRules, RuleStatus{RuleName: m.RuleName, Status: "created", Path: m.DraftPath})
		newCount++
	}
	s.CreationErrors = failures

	steps := []string{"Execute each save instruction's operations in order."}
	switch {
	case len(failures) == 0:
		res := complete(PhaseRuleCreation, s, fmt.Sprintf("Created %d rules.", newCount))
		res.Instructions = insts
		res.NextSteps = append(steps, "Then run phase 5 with the returned state.")
		return res, nil
	case len(s.CreatedRules) > 0:
		return PhaseResult{
			Status:       StatusPartial,
			State:        *s,
			NextPhase:    phasePtr(PhaseRuleCreation),
			Instructions: insts,
			Message:      fmt.Sprintf("Created %d rules, %d failed.", newCount, len(failures)),
			NextSteps: append(steps,
				"Run phase 4 again to retry the rules listed in creation_errors.",
				"A rule that keeps failing blocks deployment: remove its entry from rule_file_mapping and run phase 4 again to complete without it."),
		}, nil
	default:
		return PhaseResult{
			Status:    StatusError,
			State:     *s,
			NextPhase: phasePtr(PhaseRuleCreation),
			Message:   fmt.Sprintf("No rules could be created (%d failed).", len(failures)),
			NextSteps: []string{
				"Check creation_errors, then run phase 4 again.",
				"Entries removed from rule_file_mapping are not retried.",
			},
		}, nil
	}
}

// ruleSpec fills in everything the caller did not specify from the rule's
// catalog entry, the repository, or its category.
func (e *Engine) ruleSpec(s *State, rec RecommendedRule, name string) rules.Spec {
	entry, _ := recommend.Lookup(name)
	category := recommend.Category(rec.Category)
	if category == "" {
		category = entry.Category
	}

	patterns := entry.FilePatterns
	if len(patterns) == 0 && s.AnalysisResults != nil {
		patterns = s.AnalysisResults.CommonPatterns
	}
	if len(patterns) == 0 {
		patterns = s.RepositoryInfo.FilePatterns
	}
	if len(patterns) == 0 {
		patterns = categoryPatterns[category]
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	description := rec.Description
	if description == "" {
		description = entry.Description
	}
	if description == "" {
		description = "Guidelines for " + strings.ToLower(rules.Title(name))
	}

	priority := rec.Priority
	if priority == "" {
		priority = priorityFor(category)
	}

	return rules.Spec{
		Name:            name,
		Description:     description,
		FilePatterns:    patterns,
		ContentPatterns: entry.ContentPatterns,
		ActionMessage:   fmt.Sprintf("Follow %s: %s.", rules.Title(name), strings.TrimSuffix(description, ".")),
		Tags:            ruleTags(category, s.RepositoryInfo.MainLanguages),
		Priority:        priority,
	}
}

func ruleTags(category recommend.Category, languages []string) []string {
	seen := map[string]bool{}
	var tags []string
	add := func(t string) {
		t = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), " ", "-")
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	add(string(category))
	for _, l := range languages {
		add(l)
	}
	return tags
}
