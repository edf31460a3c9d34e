package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/HendryAvila/rulewright/internal/instructions"
)

// taskfileHeader starts a Taskfile created from scratch.
const taskfileHeader = "version: '3'\n\ntasks:\n"

// workspacePrep is phase 3.
func (e *Engine) workspacePrep(s *State) (PhaseResult, error) {
	if len(s.RecommendedRules) == 0 {
		return PhaseResult{}, errors.New("no recommended rules to prepare files for")
	}

	names := make([]string, len(s.RecommendedRules))
	for i, r := range s.RecommendedRules {
		names[i] = r.Name
	}
	mapping := make([]FileMapping, 0, len(names))
	for i, fileName := range FileSafeNames(names) {
		mapping = append(mapping, FileMapping{
			RuleName:     names[i],
			FileName:     fileName,
			DraftPath:    e.cfg.DraftPath(fileName),
			DeployedPath: e.cfg.DeployedPath(fileName),
		})
	}

	task, err := instructions.Build(instructions.BuilderContext{
		Kind:   instructions.KindBuildTask,
		Path:   e.cfg.TaskFile,
		Name:   e.cfg.TaskName,
		Text:   e.taskBody(),
		Header: taskfileHeader,
	}, nil)
	if err != nil {
		return PhaseResult{}, err
	}
	ignore, err := instructions.EnsureIgnoreEntry(e.cfg.IgnoreFile, e.cfg.IgnoreEntry, nil)
	if err != nil {
		return PhaseResult{}, err
	}
	insts := []instructions.Instruction{task, ignore}
	for _, m := range mapping {
		inst, err := instructions.SaveDocument(m.DraftPath, "")
		if err != nil {
			return PhaseResult{}, err
		}
		insts = append(insts, inst)
	}

	s.RuleFileMapping = mapping

	res := complete(PhaseWorkspacePrep, s, fmt.Sprintf("Prepared %d rule files.", len(mapping)))
	res.Instructions = insts
	res.NextSteps = []string{
		"Execute each instruction's operations in order.",
		"For instructions with requires_result, send the results and context to process_instruction_results and execute what it returns.",
		"Then run phase 4 with the returned state.",
	}
	return res, nil
}

// taskBody is the Taskfile entry that copies drafts to the deploy
// directory, dropping the draft extension and skipping README files.
func (e *Engine) taskBody() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s:\n", e.cfg.TaskName)
	fmt.Fprintf(&b, "    desc: Copy drafted rules from %s to %s\n", e.cfg.DraftsDir, e.cfg.DeployDir)
	b.WriteString("    cmds:\n")
	fmt.Fprintf(&b, "      - mkdir -p %s\n", e.cfg.DeployDir)
	b.WriteString("      - |\n")
	fmt.Fprintf(&b, "        for f in %s/*%s; do\n", e.cfg.DraftsDir, e.cfg.DraftExt)
	b.WriteString("          [ -e \"$f\" ] || continue\n")
	fmt.Fprintf(&b, "          name=$(basename \"$f\" %s)\n", e.cfg.DraftExt)
	b.WriteString("          case \"$name\" in README*) continue ;; esac\n")
	fmt.Fprintf(&b, "          cp \"$f\" \"%s/$name%s\"\n", e.cfg.DeployDir, e.cfg.DeployExt)
	b.WriteString("        done\n")
	return b.String()
}

// FileSafeNames maps rule names to unique file-safe names: lower case,
// spaces and hyphens become underscores, other punctuation is dropped, and
// a repeated name gets a numeric suffix starting at _2.
func FileSafeNames(names []string) []string {
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		base := fileSafe(name)
		candidate := base
		for n := 2; used[candidate]; n++ {
			candidate = base + "_" + strconv.Itoa(n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func fileSafe(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "rule"
	}
	return b.String()
}
