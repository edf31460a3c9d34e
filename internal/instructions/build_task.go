package instructions

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/ops"
)

// EnsureBuildTask makes sure the Taskfile at p defines taskName. A missing
// file is written with taskBody alone; an existing file without the task
// gets taskBody appended.
func EnsureBuildTask(p, taskName, taskBody string, prior ops.Results) (Instruction, error) {
	return buildTask(BuilderContext{Kind: KindBuildTask, Path: p, Name: taskName, Text: taskBody}, prior)
}

func buildTask(bc BuilderContext, prior ops.Results) (Instruction, error) {
	if strings.TrimSpace(bc.Name) == "" {
		return Instruction{}, apperr.New(apperr.ErrInvalidInput, "task name is required")
	}
	clean, err := ops.CleanPath(bc.Path)
	if err != nil {
		return Instruction{}, err
	}
	bc.Path = clean
	if prior == nil {
		return readRequest(bc, "whether task "+bc.Name+" exists")
	}
	content, exists, err := readState(prior, bc.Path)
	if err != nil {
		return Instruction{}, err
	}
	switch {
	case !exists:
		return writeInstruction(KindBuildTask, bc.Path, bc.Header+bc.Text, ActionCreate,
			"Create "+bc.Path+" with task "+bc.Name+".")
	case hasTask(content, bc.Name):
		return noop(KindBuildTask, bc.Path, "Task "+bc.Name+" already exists in "+bc.Path+"."), nil
	default:
		return writeInstruction(KindBuildTask, bc.Path, appendText(content, bc.Text), ActionAppend,
			"Append task "+bc.Name+" to "+bc.Path+".")
	}
}

type taskfile struct {
	Tasks map[string]yaml.Node `yaml:"tasks"`
}

// hasTask decodes content as a Taskfile and looks the task up. Content that
// is not a YAML Taskfile falls back to a "<name>:" line-prefix check.
func hasTask(content, name string) bool {
	var tf taskfile
	if err := yaml.Unmarshal([]byte(content), &tf); err == nil && tf.Tasks != nil {
		_, ok := tf.Tasks[name]
		return ok
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), name+":") {
			return true
		}
	}
	return false
}
