// Package ops defines the operation-descriptor protocol.
//
// An Operation describes one deferred filesystem or process effect. The
// engine only ever builds operations and reads result maps; applying them is
// the job of an executor on the caller's side. Operations are a closed set of
// value types, one per kind, so every variant's required fields are checked
// by its constructor instead of by convention.
package ops

import (
	"path"
	"strings"

	"github.com/HendryAvila/rulewright/internal/apperr"
)

// Kind names an operation variant on the wire.
type Kind string

const (
	KindCreateDirectory Kind = "create_directory"
	KindWriteFile       Kind = "write_file"
	KindReadFile        Kind = "read_file"
	KindCheckExists     Kind = "check_exists"
	KindRunProcess      Kind = "run_process"
)

// Options carries per-operation flags. Only the fields meaningful for a
// kind are set by its constructor.
type Options struct {
	Parents  bool   `json:"parents,omitempty"`
	ExistOK  bool   `json:"exist_ok,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Cwd      string `json:"cwd,omitempty"`
}

// Operation is implemented by the five variants in this package only.
type Operation interface {
	Kind() Kind
	// Key is the result-map key the executor reports this operation under.
	Key() string
	Descriptor() Descriptor
	isOperation()
}

// CreateDirectory ensures a directory exists. It is always idempotent.
type CreateDirectory struct {
	Path    string
	Parents bool
}

// WriteFile truncates and writes Content to Path, creating parents.
type WriteFile struct {
	Path    string
	Content string
	Mode    string
}

// ReadFile reads Path. A missing file is reported as data, not an error.
type ReadFile struct {
	Path     string
	Encoding string
}

// CheckExists reports whether Path exists.
type CheckExists struct {
	Path string
}

// RunProcess runs Args in Dir, capturing exit code and both streams.
type RunProcess struct {
	Args []string
	Dir  string
}

// NewCreateDirectory builds a create_directory operation with parents
// and exist_ok semantics.
func NewCreateDirectory(p string) (CreateDirectory, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return CreateDirectory{}, err
	}
	return CreateDirectory{Path: clean, Parents: true}, nil
}

// NewWriteFile builds a write_file operation. Empty content is allowed.
func NewWriteFile(p, content string) (WriteFile, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return WriteFile{}, err
	}
	return WriteFile{Path: clean, Content: content, Mode: "0644"}, nil
}

// NewReadFile builds a read_file operation.
func NewReadFile(p string) (ReadFile, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return ReadFile{}, err
	}
	return ReadFile{Path: clean, Encoding: "utf-8"}, nil
}

// NewCheckExists builds a check_exists operation.
func NewCheckExists(p string) (CheckExists, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return CheckExists{}, err
	}
	return CheckExists{Path: clean}, nil
}

// NewRunProcess builds a run_process operation. dir may be empty, meaning
// the executor's base directory.
func NewRunProcess(dir string, args ...string) (RunProcess, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return RunProcess{}, apperr.New(apperr.ErrInvalidInput, "run_process requires a command")
	}
	clean := ""
	if dir != "" {
		var err error
		if clean, err = CleanPath(dir); err != nil {
			return RunProcess{}, err
		}
	}
	argv := make([]string, len(args))
	copy(argv, args)
	return RunProcess{Args: argv, Dir: clean}, nil
}

func (CreateDirectory) Kind() Kind { return KindCreateDirectory }
func (WriteFile) Kind() Kind       { return KindWriteFile }
func (ReadFile) Kind() Kind        { return KindReadFile }
func (CheckExists) Kind() Kind     { return KindCheckExists }
func (RunProcess) Kind() Kind      { return KindRunProcess }

func (o CreateDirectory) Key() string { return o.Path }
func (o WriteFile) Key() string       { return o.Path }
func (o ReadFile) Key() string        { return o.Path }
func (o CheckExists) Key() string     { return o.Path }
func (o RunProcess) Key() string      { return ProcessKey(o.Args) }

func (CreateDirectory) isOperation() {}
func (WriteFile) isOperation()       {}
func (ReadFile) isOperation()        {}
func (CheckExists) isOperation()     {}
func (RunProcess) isOperation()      {}

// ProcessKey is the synthetic result key for a run_process operation.
func ProcessKey(args []string) string {
	return "process:" + strings.Join(args, " ")
}

// CleanPath validates a base-relative path and normalises it to slash form.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", apperr.New(apperr.ErrInvalidInput, "operation path is required")
	}
	if strings.HasPrefix(p, "/") {
		return "", apperr.Newf(apperr.ErrInvalidInput, "operation path %q must be relative to the base directory", p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", apperr.Newf(apperr.ErrInvalidInput, "operation path %q escapes the base directory", p)
	}
	return clean, nil
}
