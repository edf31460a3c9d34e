package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation is the outcome of Validate. Issues make a document invalid;
// warnings point at sections Parse would silently leave empty.
type Validation struct {
	Valid          bool           `json:"valid"`
	Issues         []string       `json:"issues"`
	Warnings       []string       `json:"warnings"`
	Classification Classification `json:"classification"`
}

var requiredFrontmatter = []string{"description", "globs", "alwaysApply"}

var commaNoSpaceRe = regexp.MustCompile(`,\S`)

// Validate checks text against the rule document format and reports every
// problem it finds.
func Validate(text string) Validation {
	v := Validation{
		Issues:         []string{},
		Warnings:       []string{},
		Classification: ClassUnknown,
	}

	if open, closing := strings.Count(text, "{"), strings.Count(text, "}"); open != closing {
		v.Issues = append(v.Issues, fmt.Sprintf("unbalanced braces: %d '{' but %d '}'", open, closing))
	}

	fm := splitFrontmatter(text)
	switch {
	case !fm.found:
		v.Issues = append(v.Issues, "missing frontmatter: document must start with a --- line")
	case !fm.closed:
		v.Issues = append(v.Issues, "missing closing --- for frontmatter")
	}

	if fm.found {
		for _, key := range requiredFrontmatter {
			if _, ok := fm.fields[key]; !ok {
				v.Issues = append(v.Issues, fmt.Sprintf("missing required frontmatter field: %s", key))
			}
		}
		v.Issues = append(v.Issues, globIssues(fm.fields["globs"])...)

		class, issues := classifyRaw(
			strings.ToLower(fm.fields["alwaysApply"]),
			fm.fields["description"],
			fm.fields["globs"],
		)
		v.Classification = class
		v.Issues = append(v.Issues, issues...)
	}

	v.Warnings = bodyWarnings(fm.rest)
	v.Valid = len(v.Issues) == 0
	return v
}

func globIssues(globs string) []string {
	if globs == "" {
		return nil
	}
	var issues []string
	if strings.HasPrefix(globs, "[") || strings.HasPrefix(globs, "{") {
		issues = append(issues, "globs must not use array or object syntax")
	}
	if strings.ContainsAny(globs, `"'`) {
		issues = append(issues, "globs must not be quoted")
	}
	if commaNoSpaceRe.MatchString(globs) {
		issues = append(issues, "globs must have a space after each comma")
	}
	return issues
}

func bodyWarnings(rest string) []string {
	warnings := []string{}
	m := ruleSpanRe.FindStringSubmatch(rest)
	if m == nil {
		if strings.Contains(rest, "<rule>") {
			return append(warnings, "<rule> body is not closed with </rule>")
		}
		return append(warnings, "missing <rule> body")
	}
	if n := ruleNameRe.FindStringSubmatch(m[1]); n == nil || n[1] == "" {
		warnings = append(warnings, "rule body has no name")
	}
	if len(listItems(splitSections(m[1])["filters"])) == 0 {
		warnings = append(warnings, "rule body has no filters")
	}
	return warnings
}
