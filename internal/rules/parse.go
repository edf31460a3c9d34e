package rules

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ruleSpanRe  = regexp.MustCompile(`(?s)<rule>(.*?)</rule>`)
	ruleNameRe  = regexp.MustCompile(`(?m)^name:[ \t]*(.*?)[ \t]*$`)
	ruleDescRe  = regexp.MustCompile(`(?m)^description:[ \t]*(.*?)[ \t]*$`)
	fieldLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*):(?:[ \t]+(.*))?$`)
)

// bodySections lists the <rule> sections in their fixed order.
var bodySections = map[string]bool{
	"name":        true,
	"description": true,
	"filters":     true,
	"actions":     true,
	"examples":    true,
	"metadata":    true,
}

// frontmatter is the raw key/value view of the leading --- block.
type frontmatter struct {
	found  bool
	closed bool
	fields map[string]string
	rest   string
}

func splitFrontmatter(text string) frontmatter {
	fm := frontmatter{fields: map[string]string{}, rest: text}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return fm
	}
	fm.found = true

	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			fm.closed = true
			fm.rest = strings.Join(lines[i+1:], "\n")
			return fm
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fm.fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	fm.rest = ""
	return fm
}

// Parse extracts a Document from text. It never fails: anything it cannot
// find is left empty. Use Validate to learn what is missing.
func Parse(text string) Document {
	var doc Document

	fm := splitFrontmatter(text)
	doc.Frontmatter = Frontmatter{
		Description: fm.fields["description"],
		Globs:       splitGlobs(fm.fields["globs"]),
		AlwaysApply: strings.EqualFold(fm.fields["alwaysApply"], "true"),
	}

	doc.Title, doc.Description = titleAndParagraph(fm.rest)

	body := ""
	if m := ruleSpanRe.FindStringSubmatch(fm.rest); m != nil {
		body = m[1]
	}
	if m := ruleNameRe.FindStringSubmatch(body); m != nil {
		doc.Name = unquote(m[1])
	}
	if doc.Description == "" {
		if m := ruleDescRe.FindStringSubmatch(body); m != nil {
			doc.Description = unquote(m[1])
		}
	}

	sections := splitSections(body)
	for _, item := range listItems(sections["filters"]) {
		doc.Filters = append(doc.Filters, Filter{Type: item["type"], Pattern: item["pattern"]})
	}
	for _, item := range listItems(sections["actions"]) {
		doc.Actions = append(doc.Actions, Action{Type: item["type"], Message: item["message"]})
	}
	for _, item := range listItems(sections["examples"]) {
		doc.Examples = append(doc.Examples, Example{Input: item["input"], Output: item["output"]})
	}
	doc.Metadata = parseMetadata(sections["metadata"])

	return doc
}

func splitGlobs(raw string) []string {
	var globs []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			globs = append(globs, g)
		}
	}
	return globs
}

// titleAndParagraph returns the first "# " heading and the first plain
// paragraph after it.
func titleAndParagraph(text string) (string, string) {
	lines := strings.Split(text, "\n")
	i := 0
	title := ""
	for ; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "# ") {
			title = strings.TrimSpace(lines[i][2:])
			i++
			break
		}
	}
	if title == "" {
		return "", ""
	}

	var para []string
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "" && len(para) > 0:
			return title, strings.Join(para, " ")
		case line == "", strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "<rule>"):
			return title, strings.Join(para, " ")
		default:
			para = append(para, line)
		}
	}
	return title, strings.Join(para, " ")
}

// splitSections groups body lines under the unindented section keyword
// that precedes them. A section runs until the next known keyword.
func splitSections(body string) map[string][]string {
	sections := map[string][]string{}
	current := ""
	for _, line := range strings.Split(body, "\n") {
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			if m := fieldLineRe.FindStringSubmatch(strings.TrimRight(line, " \t")); m != nil && bodySections[m[1]] {
				current = m[1]
				sections[current] = nil
				continue
			}
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// listItems reads "- key: value" entries. Values written as "|" block
// scalars are collected from the deeper-indented lines that follow.
func listItems(lines []string) []map[string]string {
	var items []map[string]string
	var cur map[string]string

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		indent := indentOf(lines[i])
		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			cur = map[string]string{}
			items = append(items, cur)
			trimmed = strings.TrimSpace(trimmed[1:])
			indent += 2
			if trimmed == "" {
				continue
			}
		}
		if cur == nil {
			continue
		}
		m := fieldLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		key, value := m[1], strings.TrimSpace(m[2])
		if isBlockIndicator(value) {
			block, next := readBlock(lines, i+1, indent)
			cur[key] = block
			i = next - 1
			continue
		}
		cur[key] = unquote(value)
	}
	return items
}

func parseMetadata(lines []string) Metadata {
	var md Metadata
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		m := fieldLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		key, value := m[1], strings.TrimSpace(m[2])
		switch key {
		case "priority":
			md.Priority = Priority(strings.ToLower(unquote(value)))
		case "version":
			md.Version = unquote(value)
		case "tags":
			if value != "" {
				md.Tags = inlineList(value)
				continue
			}
			indent := indentOf(lines[i])
			for i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if next == "" || indentOf(lines[i+1]) <= indent || !strings.HasPrefix(next, "-") {
					break
				}
				if tag := unquote(strings.TrimSpace(next[1:])); tag != "" {
					md.Tags = append(md.Tags, tag)
				}
				i++
			}
		}
	}
	return md
}

// inlineList accepts "[a, b]" as well as a bare "a, b".
func inlineList(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = unquote(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isBlockIndicator(v string) bool {
	switch v {
	case "|", "|-", "|+", ">", ">-":
		return true
	}
	return false
}

// readBlock collects the lines indented deeper than keyIndent starting at
// start and returns them dedented, plus the index of the first line past
// the block.
func readBlock(lines []string, start, keyIndent int) (string, int) {
	end := start
	for end < len(lines) {
		if strings.TrimSpace(lines[end]) != "" && indentOf(lines[end]) <= keyIndent {
			break
		}
		end++
	}
	block := lines[start:end]
	for len(block) > 0 && strings.TrimSpace(block[len(block)-1]) == "" {
		block = block[:len(block)-1]
	}

	minIndent := -1
	for _, l := range block {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := indentOf(l); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	out := make([]string, len(block))
	for i, l := range block {
		if len(l) >= minIndent && minIndent > 0 {
			out[i] = l[minIndent:]
		} else {
			out[i] = strings.TrimSpace(l)
		}
	}
	return strings.Join(out, "\n"), end
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func unquote(v string) string {
	if len(v) >= 2 {
		switch {
		case v[0] == '"' && v[len(v)-1] == '"':
			if s, err := strconv.Unquote(v); err == nil {
				return s
			}
			return v[1 : len(v)-1]
		case v[0] == '\'' && v[len(v)-1] == '\'':
			return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
		}
	}
	return v
}
