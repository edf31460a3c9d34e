// Package rules models rule documents: Cursor-style .mdc files made of a
// YAML-like frontmatter block followed by a <rule>...</rule> body.
//
// Generate renders a document, Parse recovers one on a best-effort basis,
// and Validate reports every formatting problem it finds in one pass.
// Parse never fails; Validate is the only place a missing section becomes
// a reported problem.
package rules

import "fmt"

// Priority ranks a rule. The zero value is invalid.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority validates a priority name.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q: must be one of: high, medium, low", s)
	}
}

// Rank orders priorities: high sorts before medium before low. Unknown
// priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Frontmatter is the leading ----delimited block.
type Frontmatter struct {
	Description string   `json:"description"`
	Globs       []string `json:"globs"`
	AlwaysApply bool     `json:"alwaysApply"`
}

// Filter selects files or content a rule applies to.
type Filter struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// Action is what the assistant does when a rule matches.
type Action struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Example pairs an input with the expected output.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Metadata trails the rule body.
type Metadata struct {
	Priority Priority `json:"priority"`
	Version  string   `json:"version"`
	Tags     []string `json:"tags"`
}

// Document is the structured form of a rule file.
type Document struct {
	Frontmatter Frontmatter `json:"frontmatter"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Name        string      `json:"name"`
	Filters     []Filter    `json:"filters"`
	Actions     []Action    `json:"actions"`
	Examples    []Example   `json:"examples"`
	Metadata    Metadata    `json:"metadata"`
}

// Classification is how Cursor decides when to attach a rule.
type Classification string

const (
	ClassAlways                    Classification = "Always"
	ClassAgentSelected             Classification = "AgentSelected"
	ClassAutoSelect                Classification = "AutoSelect"
	ClassAutoSelectWithDescription Classification = "AutoSelectWithDescription"
	ClassManual                    Classification = "Manual"
	ClassUnknown                   Classification = "Unknown"
)

// Classify applies the attachment decision table. For alwaysApply rules a
// non-empty description or globs value is reported as an issue.
func Classify(alwaysApply bool, description, globs string) (Classification, []string) {
	raw := "false"
	if alwaysApply {
		raw = "true"
	}
	return classifyRaw(raw, description, globs)
}

// classifyRaw classifies using the frontmatter's literal alwaysApply text,
// so values other than true/false land in Unknown.
func classifyRaw(alwaysApply, description, globs string) (Classification, []string) {
	hasDesc := description != ""
	hasGlobs := globs != ""

	switch alwaysApply {
	case "true":
		var issues []string
		if hasDesc {
			issues = append(issues, "description should be empty when alwaysApply is true")
		}
		if hasGlobs {
			issues = append(issues, "globs should be empty when alwaysApply is true")
		}
		return ClassAlways, issues
	case "false":
		switch {
		case hasDesc && !hasGlobs:
			return ClassAgentSelected, nil
		case !hasDesc && hasGlobs:
			return ClassAutoSelect, nil
		case hasDesc && hasGlobs:
			return ClassAutoSelectWithDescription, nil
		default:
			return ClassManual, nil
		}
	}
	return ClassUnknown, []string{fmt.Sprintf("invalid combination: alwaysApply=%q must be true or false", alwaysApply)}
}
