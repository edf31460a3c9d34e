package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/rulewright/internal/instructions"
)

// languagePatterns maps a lower-case language name to its usual globs.
var languagePatterns = map[string][]string{
	"python":     {"*.py"},
	"go":         {"*.go"},
	"golang":     {"*.go"},
	"typescript": {"*.ts", "*.tsx"},
	"javascript": {"*.js", "*.jsx"},
	"java":       {"*.java"},
	"kotlin":     {"*.kt"},
	"rust":       {"*.rs"},
	"ruby":       {"*.rb"},
	"c#":         {"*.cs"},
	"c++":        {"*.cpp", "*.hpp"},
	"c":          {"*.c", "*.h"},
	"php":        {"*.php"},
	"swift":      {"*.swift"},
	"shell":      {"*.sh"},
	"bash":       {"*.sh"},
	"markdown":   {"*.md"},
}

// repositoryTypes is checked in order; the first keyword found wins.
var repositoryTypes = []struct {
	keywords []string
	kind     string
}{
	{[]string{"command-line", "command line", "cli"}, "cli-tool"},
	{[]string{"library", "sdk", "package"}, "library"},
	{[]string{"web app", "frontend", "react", "vue", "angular", "website"}, "web-application"},
	{[]string{"api", "service", "server", "backend"}, "service"},
	{[]string{"terraform", "kubernetes", "infrastructure", "helm"}, "infrastructure"},
	{[]string{"machine learning", "data pipeline", "notebook"}, "data-science"},
}

// analysis is phase 1. The first time it runs it also asks the caller to
// create the drafts and deploy directories.
func (e *Engine) analysis(s *State) (PhaseResult, error) {
	info := s.RepositoryInfo
	if strings.TrimSpace(info.Description) == "" && len(info.MainLanguages) == 0 {
		return PhaseResult{}, errors.New("repository_info needs a description or main_languages")
	}

	var insts []instructions.Instruction
	if !s.WorkspaceInitialized {
		inst, err := instructions.PrepareWorkspace(e.cfg.DraftsDir, e.cfg.DeployDir)
		if err != nil {
			return PhaseResult{}, err
		}
		insts = append(insts, inst)
		s.WorkspaceInitialized = true
	}

	s.AnalysisResults = &AnalysisResults{
		RepositoryType:   repositoryType(info),
		CommonPatterns:   commonPatterns(info),
		RecommendedRules: ruleHints(info),
	}

	res := complete(PhaseAnalysis, s, fmt.Sprintf("Analysed a %s repository.", s.AnalysisResults.RepositoryType))
	res.Instructions = insts
	if len(insts) > 0 {
		res.NextSteps = append(res.NextSteps, "Execute the workspace instructions.")
	}
	res.NextSteps = append(res.NextSteps, "Run phase 2 with the returned state.")
	return res, nil
}

func repositoryType(info RepositoryInfo) string {
	text := strings.ToLower(info.Description + " " + strings.Join(info.KeyFeatures, " "))
	for _, rt := range repositoryTypes {
		for _, kw := range rt.keywords {
			if strings.Contains(text, kw) {
				return rt.kind
			}
		}
	}
	return "general"
}

// commonPatterns prefers the caller's patterns and otherwise derives them
// from the main languages.
func commonPatterns(info RepositoryInfo) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if p = strings.TrimSpace(p); p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range info.FilePatterns {
		add(p)
	}
	if len(out) > 0 {
		return out
	}
	for _, lang := range info.MainLanguages {
		for _, p := range languagePatterns[strings.ToLower(strings.TrimSpace(lang))] {
			add(p)
		}
	}
	return out
}

// ruleHints is the human-readable list of rule areas worth covering.
func ruleHints(info RepositoryInfo) []string {
	hints := []string{"documentation standards", "error handling patterns"}
	for _, lang := range info.MainLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			hints = append(hints, lang+" coding standards")
		}
	}
	for _, feature := range info.KeyFeatures {
		if feature = strings.TrimSpace(feature); feature != "" {
			hints = append(hints, feature+" guidelines")
		}
	}
	return hints
}
