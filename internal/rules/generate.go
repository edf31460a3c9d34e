package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultVersion is written into every generated document's metadata.
const DefaultVersion = "1.0"

// Spec is the input to Generate.
type Spec struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	FilePatterns    []string  `json:"file_patterns"`
	ContentPatterns []string  `json:"content_patterns"`
	ActionMessage   string    `json:"action_message"`
	Examples        []Example `json:"examples"`
	Tags            []string  `json:"tags"`
	Priority        Priority  `json:"priority"`
}

// Generate renders a rule document. It fails when the name is empty, no
// file patterns are given, or the priority is not high, medium or low.
func Generate(s Spec) (string, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return "", fmt.Errorf("rule name is required")
	}
	globs := nonEmpty(s.FilePatterns)
	if len(globs) == 0 {
		return "", fmt.Errorf("rule %q: at least one file pattern is required", name)
	}
	priority, err := ParsePriority(string(s.Priority))
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", name, err)
	}

	description := singleLine(s.Description)

	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "description: %s\n", description)
	fmt.Fprintf(&b, "globs: %s\n", strings.Join(globs, ", "))
	b.WriteString("alwaysApply: false\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", Title(name))
	fmt.Fprintf(&b, "%s\n\n", description)

	b.WriteString("<rule>\n")
	fmt.Fprintf(&b, "name: %s\n", name)
	fmt.Fprintf(&b, "description: %s\n", description)

	b.WriteString("filters:\n")
	b.WriteString("  - type: file_extension\n")
	fmt.Fprintf(&b, "    pattern: %s\n", strconv.Quote(extensionPattern(globs)))
	b.WriteString("  - type: content\n")
	fmt.Fprintf(&b, "    pattern: %s\n", strconv.Quote(contentPattern(s.ContentPatterns)))
	b.WriteString("\n")

	b.WriteString("actions:\n")
	b.WriteString("  - type: suggest\n")
	b.WriteString("    message: |\n")
	writeIndented(&b, s.ActionMessage, "      ")
	b.WriteString("\n")

	if len(s.Examples) == 0 {
		b.WriteString("examples: []\n")
	} else {
		b.WriteString("examples:\n")
		for _, ex := range s.Examples {
			b.WriteString("  - input: |\n")
			writeIndented(&b, ex.Input, "      ")
			fmt.Fprintf(&b, "    output: %s\n", strconv.Quote(singleLine(ex.Output)))
		}
	}
	b.WriteString("\n")

	b.WriteString("metadata:\n")
	fmt.Fprintf(&b, "  priority: %s\n", priority)
	fmt.Fprintf(&b, "  version: %s\n", DefaultVersion)
	tags := nonEmpty(s.Tags)
	if len(tags) == 0 {
		b.WriteString("  tags: []\n")
	} else {
		b.WriteString("  tags:\n")
		for _, tag := range tags {
			fmt.Fprintf(&b, "    - %s\n", tag)
		}
	}
	b.WriteString("</rule>\n")

	return b.String(), nil
}

// Title turns a rule name into a heading: hyphens become spaces and each
// word is capitalised.
func Title(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// extensionPattern converts globs to one anchored alternation, e.g.
// ["*.py", "*.pyi"] becomes `\.py$|\.pyi$`. A glob with nothing after its
// last star matches every file and collapses the whole pattern to `.*`.
func extensionPattern(globs []string) string {
	parts := make([]string, 0, len(globs))
	seen := make(map[string]bool, len(globs))
	for _, g := range globs {
		suffix := g
		if i := strings.LastIndex(g, "*"); i >= 0 {
			suffix = g[i+1:]
		}
		if suffix == "" {
			return ".*"
		}
		for _, alt := range expandBraces(suffix) {
			p := regexp.QuoteMeta(alt) + "$"
			if !seen[p] {
				seen[p] = true
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, "|")
}

// expandBraces expands one {a,b} group: ".{ts,tsx}" gives [".ts", ".tsx"].
func expandBraces(s string) []string {
	open := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if open < 0 || end < open {
		return []string{s}
	}
	var out []string
	for _, alt := range strings.Split(s[open+1:end], ",") {
		out = append(out, s[:open]+alt+s[end+1:])
	}
	return out
}

// contentPattern keeps each pattern verbatim: surrounding spaces are part
// of the regex ("def " must not match "default").
func contentPattern(patterns []string) string {
	pats := nonBlank(patterns)
	if len(pats) == 0 {
		return "(?s)(.*)"
	}
	return "(?s)(" + strings.Join(pats, "|") + ")"
}

func writeIndented(b *strings.Builder, text, indent string) {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		b.WriteString(indent + "\n")
		return
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(indent + line + "\n")
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// nonBlank drops whitespace-only entries without trimming the rest.
func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
