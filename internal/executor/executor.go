// Package executor applies operation lists on the caller's side.
//
// It is the only component that touches the filesystem or spawns
// processes on behalf of the workflow. Operations are applied strictly in
// list order because later entries may depend on earlier ones (a
// create_directory before a write_file into it). Failures are reported as
// data in the result map; Apply itself never returns an error.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/rulewright/internal/logging"
	"github.com/HendryAvila/rulewright/internal/ops"
)

// DefaultProcessTimeout bounds a single run_process operation.
const DefaultProcessTimeout = 5 * time.Minute

// ProcessRunner runs argv in dir. A non-zero exit must be reported through
// exitCode with a nil error; err is reserved for failing to start at all.
type ProcessRunner func(ctx context.Context, dir string, args []string) (stdout, stderr string, exitCode int, err error)

// Executor applies operations relative to a base directory.
type Executor struct {
	fsys    hackpadfs.FS
	root    string // base directory in fsys path form; "" means fsys root
	baseDir string // base directory in OS form, used as process cwd
	dryRun  bool
	timeout time.Duration
	run     ProcessRunner
	logger  zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithDryRun logs operations and reports success without applying them.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithProcessTimeout overrides DefaultProcessTimeout.
func WithProcessTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithProcessRunner replaces the os/exec based runner.
func WithProcessRunner(r ProcessRunner) Option {
	return func(e *Executor) { e.run = r }
}

// New creates an executor over the OS filesystem rooted at baseDir.
func New(baseDir string, opts ...Option) (*Executor, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	fsys := osfs.NewFS()
	root, err := fsys.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("mapping base directory %s: %w", abs, err)
	}
	e := NewWithFS(fsys, root, opts...)
	e.baseDir = abs
	return e, nil
}

// NewWithFS creates an executor over an arbitrary hackpadfs filesystem.
// root is the base directory inside fsys ("" or "." for the fs root).
func NewWithFS(fsys hackpadfs.FS, root string, opts ...Option) *Executor {
	if root == "." {
		root = ""
	}
	e := &Executor{
		fsys:    fsys,
		root:    root,
		timeout: DefaultProcessTimeout,
		run:     runProcess,
		logger:  logging.Get("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply executes list in order and returns the merged result map.
// A cancelled context marks every remaining operation as failed.
func (e *Executor) Apply(ctx context.Context, list ops.List) ops.Results {
	results := ops.Results{}
	for i, op := range list {
		if err := ctx.Err(); err != nil {
			results.Merge(op.Key(), ops.Result{Success: false, Error: err.Error()})
			continue
		}

		e.logger.Debug().
			Int("index", i).
			Str("kind", string(op.Kind())).
			Str("key", op.Key()).
			Bool("dryRun", e.dryRun).
			Msg("applying operation")

		if e.dryRun {
			results.Merge(op.Key(), e.dryRunResult(op))
			continue
		}

		r := e.apply(ctx, op)
		if !r.Success {
			e.logger.Warn().
				Str("kind", string(op.Kind())).
				Str("key", op.Key()).
				Str("error", r.Error).
				Msg("operation failed")
		}
		results.Merge(op.Key(), r)
	}
	return results
}

func (e *Executor) apply(ctx context.Context, op ops.Operation) ops.Result {
	switch o := op.(type) {
	case ops.CreateDirectory:
		return e.createDirectory(o)
	case ops.WriteFile:
		return e.writeFile(o)
	case ops.ReadFile:
		return e.readFile(o)
	case ops.CheckExists:
		return e.checkExists(o)
	case ops.RunProcess:
		return e.runProcess(ctx, o)
	default:
		return ops.Result{Success: false, Error: fmt.Sprintf("unsupported operation kind %q", op.Kind())}
	}
}

func (e *Executor) createDirectory(o ops.CreateDirectory) ops.Result {
	p := e.fsPath(o.Path)
	var err error
	if o.Parents {
		err = hackpadfs.MkdirAll(e.fsys, p, 0o755)
	} else {
		err = hackpadfs.Mkdir(e.fsys, p, 0o755)
		if errors.Is(err, fs.ErrExist) {
			err = nil
		}
	}
	if err != nil {
		return ops.Result{Success: false, Error: err.Error()}
	}
	info, err := hackpadfs.Stat(e.fsys, p)
	if err != nil || !info.IsDir() {
		return ops.Result{Success: false, Error: fmt.Sprintf("%s exists and is not a directory", o.Path)}
	}
	return ops.Result{Success: true, Exists: ops.BoolPtr(true)}
}

func (e *Executor) writeFile(o ops.WriteFile) ops.Result {
	p := e.fsPath(o.Path)
	if dir := path.Dir(p); dir != "." && dir != "" {
		if err := hackpadfs.MkdirAll(e.fsys, dir, 0o755); err != nil {
			return ops.Result{Success: false, Error: err.Error()}
		}
	}
	if err := hackpadfs.WriteFullFile(e.fsys, p, []byte(o.Content), parseMode(o.Mode)); err != nil {
		return ops.Result{Success: false, Error: err.Error()}
	}
	return ops.Result{Success: true}
}

func (e *Executor) readFile(o ops.ReadFile) ops.Result {
	data, err := hackpadfs.ReadFile(e.fsys, e.fsPath(o.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ops.Result{Success: false, Exists: ops.BoolPtr(false), Error: ops.NotFound}
		}
		return ops.Result{Success: false, Error: err.Error()}
	}
	return ops.Result{Success: true, Exists: ops.BoolPtr(true), Content: ops.StringPtr(string(data))}
}

func (e *Executor) checkExists(o ops.CheckExists) ops.Result {
	_, err := hackpadfs.Stat(e.fsys, e.fsPath(o.Path))
	return ops.Result{Success: true, Exists: ops.BoolPtr(err == nil)}
}

func (e *Executor) runProcess(ctx context.Context, o ops.RunProcess) ops.Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	dir := e.baseDir
	if o.Dir != "" {
		dir = filepath.Join(e.baseDir, filepath.FromSlash(o.Dir))
	}

	e.logger.Info().Strs("args", o.Args).Str("dir", dir).Msg("running process")

	stdout, stderr, code, err := e.run(ctx, dir, o.Args)
	r := ops.Result{
		Success:  err == nil && code == 0,
		Stdout:   ops.StringPtr(stdout),
		Stderr:   ops.StringPtr(stderr),
		ExitCode: ops.IntPtr(code),
	}
	if err != nil {
		r.Error = err.Error()
	} else if code != 0 {
		r.Error = fmt.Sprintf("exit status %d", code)
	}
	return r
}

func (e *Executor) dryRunResult(op ops.Operation) ops.Result {
	e.logger.Info().Str("kind", string(op.Kind())).Str("key", op.Key()).Msg("dry run: operation not applied")
	switch o := op.(type) {
	case ops.CheckExists:
		return e.checkExists(o)
	case ops.ReadFile:
		return e.readFile(o)
	default:
		return ops.Result{Success: true}
	}
}

func (e *Executor) fsPath(p string) string {
	if e.root == "" {
		return p
	}
	if p == "." {
		return e.root
	}
	return path.Join(e.root, p)
}

func parseMode(mode string) fs.FileMode {
	if mode == "" {
		return 0o644
	}
	m, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0o644
	}
	return fs.FileMode(m)
}

func runProcess(ctx context.Context, dir string, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return stdout.String(), stderr.String(), -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}
