package ops

import (
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/rulewright/internal/apperr"
)

// Descriptor is the JSON wire form shared by every operation kind.
type Descriptor struct {
	Kind    Kind     `json:"kind"`
	Path    string   `json:"path"`
	Content *string  `json:"content,omitempty"`
	Args    []string `json:"args,omitempty"`
	Options Options  `json:"options"`
}

func (o CreateDirectory) Descriptor() Descriptor {
	return Descriptor{Kind: KindCreateDirectory, Path: o.Path, Options: Options{Parents: o.Parents, ExistOK: true}}
}

func (o WriteFile) Descriptor() Descriptor {
	content := o.Content
	return Descriptor{Kind: KindWriteFile, Path: o.Path, Content: &content, Options: Options{Mode: o.Mode}}
}

func (o ReadFile) Descriptor() Descriptor {
	return Descriptor{Kind: KindReadFile, Path: o.Path, Options: Options{Encoding: o.Encoding}}
}

func (o CheckExists) Descriptor() Descriptor {
	return Descriptor{Kind: KindCheckExists, Path: o.Path}
}

func (o RunProcess) Descriptor() Descriptor {
	args := make([]string, len(o.Args))
	copy(args, o.Args)
	return Descriptor{Kind: KindRunProcess, Path: o.Dir, Args: args, Options: Options{Cwd: o.Dir}}
}

// Decode turns a wire descriptor back into its typed variant. Unknown kinds
// and variants missing required fields are protocol errors.
func Decode(d Descriptor) (Operation, error) {
	switch d.Kind {
	case KindCreateDirectory:
		op, err := NewCreateDirectory(d.Path)
		if err != nil {
			return nil, protocolErr(d, err)
		}
		op.Parents = d.Options.Parents
		return op, nil
	case KindWriteFile:
		content := ""
		if d.Content != nil {
			content = *d.Content
		}
		op, err := NewWriteFile(d.Path, content)
		if err != nil {
			return nil, protocolErr(d, err)
		}
		if d.Options.Mode != "" {
			op.Mode = d.Options.Mode
		}
		return op, nil
	case KindReadFile:
		op, err := NewReadFile(d.Path)
		if err != nil {
			return nil, protocolErr(d, err)
		}
		if d.Options.Encoding != "" {
			op.Encoding = d.Options.Encoding
		}
		return op, nil
	case KindCheckExists:
		op, err := NewCheckExists(d.Path)
		if err != nil {
			return nil, protocolErr(d, err)
		}
		return op, nil
	case KindRunProcess:
		dir := d.Options.Cwd
		if dir == "" {
			dir = d.Path
		}
		op, err := NewRunProcess(dir, d.Args...)
		if err != nil {
			return nil, protocolErr(d, err)
		}
		return op, nil
	default:
		return nil, apperr.Newf(apperr.ErrProtocol, "unknown operation kind %q", d.Kind)
	}
}

func protocolErr(d Descriptor, err error) error {
	return apperr.Wrapf(err, apperr.ErrProtocol, "invalid %s descriptor", d.Kind)
}

// List is an ordered operation list. It marshals as an array of descriptors.
type List []Operation

// MarshalJSON encodes the list as descriptors, preserving order.
func (l List) MarshalJSON() ([]byte, error) {
	out := make([]Descriptor, len(l))
	for i, op := range l {
		out[i] = op.Descriptor()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes descriptors into typed operations.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []Descriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Wrap(err, apperr.ErrProtocol, "decoding operation list")
	}
	out := make(List, 0, len(raw))
	for i, d := range raw {
		op, err := Decode(d)
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		out = append(out, op)
	}
	*l = out
	return nil
}

// NotFound is the error text executors report for a missing read_file path.
const NotFound = "not found"

// Result is what an executor reports for one key. Pointer fields distinguish
// "not reported" from a zero value (an empty file, a false exists).
type Result struct {
	Success  bool    `json:"success"`
	Content  *string `json:"content,omitempty"`
	Exists   *bool   `json:"exists,omitempty"`
	Stdout   *string `json:"stdout,omitempty"`
	Stderr   *string `json:"stderr,omitempty"`
	ExitCode *int    `json:"exit_code,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Results maps result keys (paths, or ProcessKey for processes) to results.
type Results map[string]Result

// Merge folds r into the entry at key. Fields reported by r replace earlier
// values; Success and Error always reflect the latest operation.
func (rs Results) Merge(key string, r Result) {
	prev, ok := rs[key]
	if !ok {
		rs[key] = r
		return
	}
	if r.Content != nil {
		prev.Content = r.Content
	}
	if r.Exists != nil {
		prev.Exists = r.Exists
	}
	if r.Stdout != nil {
		prev.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		prev.Stderr = r.Stderr
	}
	if r.ExitCode != nil {
		prev.ExitCode = r.ExitCode
	}
	prev.Success = r.Success
	prev.Error = r.Error
	rs[key] = prev
}

// StringPtr, BoolPtr and IntPtr help build results in executors and tests.
func StringPtr(s string) *string { return &s }
func BoolPtr(b bool) *bool       { return &b }
func IntPtr(i int) *int          { return &i }
