// Package instructions holds the "ensure X" builders.
//
// A builder never touches storage. Called without prior results it asks the
// caller to read what it needs; called with the executor's results it
// decides what to do and returns the operations that do it. The
// BuilderContext in every Instruction is what the caller echoes back with
// those results.
package instructions

import (
	"path"
	"strings"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/ops"
)

// Kind identifies a builder.
type Kind string

const (
	KindBuildTask    Kind = "build_task"
	KindIgnoreEntry  Kind = "ignore_entry"
	KindSaveDocument Kind = "save_document"

	// KindPrepareWorkspace and KindRunTask are single-call batches emitted
	// by the workflow. They never take prior results.
	KindPrepareWorkspace Kind = "prepare_workspace"
	KindRunTask          Kind = "run_task"
)

// ParseKind validates a builder name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBuildTask, KindIgnoreEntry, KindSaveDocument:
		return k, nil
	default:
		return "", apperr.Newf(apperr.ErrInvalidInput,
			"unknown instruction kind %q: must be one of: build_task, ignore_entry, save_document", s)
	}
}

// Action records the decision a builder took.
type Action string

const (
	ActionRead   Action = "read"
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionAppend Action = "append"
	ActionWrite  Action = "write"
	ActionRun    Action = "run"
)

// BuilderContext is the state a two-call builder needs between calls.
type BuilderContext struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
	// Name is the task name for KindBuildTask.
	Name string `json:"name,omitempty"`
	// Text is the task body, the ignore entry, or the document content.
	Text string `json:"text"`
	// Header prefixes Text when KindBuildTask creates a new file.
	Header string `json:"header,omitempty"`
}

// Instruction is what a builder returns: operations to run and whether
// their results must come back.
type Instruction struct {
	Kind           Kind            `json:"kind"`
	Path           string          `json:"path"`
	Operations     ops.List        `json:"operations"`
	RequiresResult bool            `json:"requires_result"`
	ActionTaken    Action          `json:"action_taken"`
	Message        string          `json:"message"`
	Context        *BuilderContext `json:"context,omitempty"`
}

// Build dispatches bc to its builder. prior is nil on the first call.
func Build(bc BuilderContext, prior ops.Results) (Instruction, error) {
	switch bc.Kind {
	case KindBuildTask:
		return buildTask(bc, prior)
	case KindIgnoreEntry:
		return EnsureIgnoreEntry(bc.Path, bc.Text, prior)
	case KindSaveDocument:
		return SaveDocument(bc.Path, bc.Text)
	default:
		_, err := ParseKind(string(bc.Kind))
		return Instruction{}, err
	}
}

// Process is the second half of the two-call shape: it feeds executor
// results back into the builder named by bc.
func Process(results ops.Results, bc BuilderContext) (Instruction, error) {
	if results == nil {
		return Instruction{}, apperr.New(apperr.ErrProtocol, "operation results are required")
	}
	if bc.Kind == KindSaveDocument {
		return verifyWrite(results, bc)
	}
	return Build(bc, results)
}

// readRequest is the first call of every read-then-act builder.
func readRequest(bc BuilderContext, what string) (Instruction, error) {
	check, err := ops.NewCheckExists(bc.Path)
	if err != nil {
		return Instruction{}, err
	}
	read, err := ops.NewReadFile(bc.Path)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		Kind:           bc.Kind,
		Path:           bc.Path,
		Operations:     ops.List{check, read},
		RequiresResult: true,
		ActionTaken:    ActionRead,
		Message:        "Run these operations and send the results back to check " + what + ".",
		Context:        &bc,
	}, nil
}

// readState interprets the merged check_exists/read_file result for p.
func readState(results ops.Results, p string) (content string, exists bool, err error) {
	r, ok := results[p]
	if !ok {
		return "", false, apperr.Newf(apperr.ErrProtocol, "operation results missing entry for %q", p)
	}
	if r.Exists == nil {
		if !r.Success && r.Error == ops.NotFound {
			return "", false, nil
		}
		return "", false, apperr.Newf(apperr.ErrProtocol, "result for %q is missing key \"exists\"", p)
	}
	if !*r.Exists {
		return "", false, nil
	}
	if !r.Success {
		return "", true, apperr.Newf(apperr.ErrExecutor, "reading %q failed: %s", p, r.Error)
	}
	if r.Content == nil {
		return "", true, apperr.Newf(apperr.ErrProtocol, "result for %q reports exists but is missing key \"content\"", p)
	}
	return *r.Content, true, nil
}

func writeInstruction(kind Kind, p, content string, action Action, message string) (Instruction, error) {
	w, err := ops.NewWriteFile(p, content)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		Kind:        kind,
		Path:        w.Path,
		Operations:  ops.List{w},
		ActionTaken: action,
		Message:     message,
	}, nil
}

func noop(kind Kind, p, message string) Instruction {
	return Instruction{Kind: kind, Path: p, Operations: ops.List{}, ActionTaken: ActionNone, Message: message}
}

// appendText joins existing content and addition, inserting a newline
// when existing content does not end with one.
func appendText(existing, addition string) string {
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return existing + addition
}

// SaveDocument always writes: the parent directory is created first and
// the file is overwritten.
func SaveDocument(p, content string) (Instruction, error) {
	w, err := ops.NewWriteFile(p, content)
	if err != nil {
		return Instruction{}, err
	}
	dir, err := ops.NewCreateDirectory(path.Dir(w.Path))
	if err != nil {
		return Instruction{}, err
	}
	bc := BuilderContext{Kind: KindSaveDocument, Path: w.Path}
	return Instruction{
		Kind:        KindSaveDocument,
		Path:        w.Path,
		Operations:  ops.List{dir, w},
		ActionTaken: ActionWrite,
		Message:     "Run these operations to save " + w.Path + ".",
		Context:     &bc,
	}, nil
}

func verifyWrite(results ops.Results, bc BuilderContext) (Instruction, error) {
	r, ok := results[bc.Path]
	if !ok {
		return Instruction{}, apperr.Newf(apperr.ErrProtocol, "operation results missing entry for %q", bc.Path)
	}
	if !r.Success {
		return Instruction{}, apperr.Newf(apperr.ErrExecutor, "writing %q failed: %s", bc.Path, r.Error)
	}
	return noop(KindSaveDocument, bc.Path, bc.Path+" saved."), nil
}

// PrepareWorkspace creates every directory in dirs.
func PrepareWorkspace(dirs ...string) (Instruction, error) {
	list := make(ops.List, 0, len(dirs))
	for _, d := range dirs {
		op, err := ops.NewCreateDirectory(d)
		if err != nil {
			return Instruction{}, err
		}
		list = append(list, op)
	}
	return Instruction{
		Kind:        KindPrepareWorkspace,
		Operations:  list,
		ActionTaken: ActionWrite,
		Message:     "Run these operations to create the workspace directories.",
	}, nil
}

// RunTask ensures outDir exists and then runs `task <taskName>` from the
// base directory.
func RunTask(outDir, taskName string) (Instruction, error) {
	dir, err := ops.NewCreateDirectory(outDir)
	if err != nil {
		return Instruction{}, err
	}
	run, err := ops.NewRunProcess("", "task", taskName)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		Kind:        KindRunTask,
		Path:        run.Key(),
		Operations:  ops.List{dir, run},
		ActionTaken: ActionRun,
		Message:     "Run these operations and check that " + run.Key() + " exits with status 0.",
	}, nil
}
