package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/rulewright/internal/ops"
)

func newMemExecutor(t *testing.T, opts ...Option) (*Executor, hackpadfs.FS) {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	return NewWithFS(fsys, "", opts...), fsys
}

func mustList(t *testing.T, items ...ops.Operation) ops.List {
	t.Helper()
	return ops.List(items)
}

func TestApply_CreateDirectoryThenWriteInOrder(t *testing.T) {
	e, fsys := newMemExecutor(t)
	mk, _ := ops.NewCreateDirectory("hack/drafts/cursor_rules")
	wf, _ := ops.NewWriteFile("hack/drafts/cursor_rules/a.mdc.md", "body")

	results := e.Apply(context.Background(), mustList(t, mk, wf))

	assert.True(t, results["hack/drafts/cursor_rules"].Success)
	assert.True(t, results["hack/drafts/cursor_rules/a.mdc.md"].Success)

	data, err := hackpadfs.ReadFile(fsys, "hack/drafts/cursor_rules/a.mdc.md")
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))
}

func TestApply_CreateDirectoryIsIdempotent(t *testing.T) {
	e, _ := newMemExecutor(t)
	mk, _ := ops.NewCreateDirectory("a/b")

	first := e.Apply(context.Background(), mustList(t, mk))
	second := e.Apply(context.Background(), mustList(t, mk))

	assert.True(t, first["a/b"].Success)
	assert.True(t, second["a/b"].Success)
}

func TestApply_WriteFileCreatesParentsAndTruncates(t *testing.T) {
	e, fsys := newMemExecutor(t)
	long, _ := ops.NewWriteFile("deep/nested/file.txt", "a much longer original body")
	short, _ := ops.NewWriteFile("deep/nested/file.txt", "short")

	results := e.Apply(context.Background(), mustList(t, long, short))
	require.True(t, results["deep/nested/file.txt"].Success)

	data, err := hackpadfs.ReadFile(fsys, "deep/nested/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestApply_WriteFileEmptyContent(t *testing.T) {
	e, fsys := newMemExecutor(t)
	wf, _ := ops.NewWriteFile("empty.md", "")

	results := e.Apply(context.Background(), mustList(t, wf))
	require.True(t, results["empty.md"].Success)

	data, err := hackpadfs.ReadFile(fsys, "empty.md")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestApply_ReadMissingFileReportsNotFound(t *testing.T) {
	e, _ := newMemExecutor(t)
	rf, _ := ops.NewReadFile("Taskfile.yml")

	results := e.Apply(context.Background(), mustList(t, rf))

	got := results["Taskfile.yml"]
	assert.False(t, got.Success)
	assert.Equal(t, ops.NotFound, got.Error)
	require.NotNil(t, got.Exists)
	assert.False(t, *got.Exists)
}

func TestApply_CheckExistsThenReadMergesUnderOneKey(t *testing.T) {
	e, fsys := newMemExecutor(t)
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "Taskfile.yml", []byte("version: '3'\n"), 0o644))

	ce, _ := ops.NewCheckExists("Taskfile.yml")
	rf, _ := ops.NewReadFile("Taskfile.yml")
	results := e.Apply(context.Background(), mustList(t, ce, rf))

	got := results["Taskfile.yml"]
	assert.True(t, got.Success)
	require.NotNil(t, got.Exists)
	assert.True(t, *got.Exists)
	require.NotNil(t, got.Content)
	assert.Equal(t, "version: '3'\n", *got.Content)
}

func TestApply_CheckExistsNeverFails(t *testing.T) {
	e, _ := newMemExecutor(t)
	ce, _ := ops.NewCheckExists("nope/nothing")

	got := e.Apply(context.Background(), mustList(t, ce))["nope/nothing"]
	assert.True(t, got.Success)
	require.NotNil(t, got.Exists)
	assert.False(t, *got.Exists)
}

func TestApply_RunProcessNonZeroExitIsData(t *testing.T) {
	runner := func(ctx context.Context, dir string, args []string) (string, string, int, error) {
		return "partial", "boom", 2, nil
	}
	e, _ := newMemExecutor(t, WithProcessRunner(runner))
	rp, _ := ops.NewRunProcess("", "task", "update-cursor-rules")

	got := e.Apply(context.Background(), mustList(t, rp))[rp.Key()]
	assert.False(t, got.Success)
	require.NotNil(t, got.ExitCode)
	assert.Equal(t, 2, *got.ExitCode)
	assert.Equal(t, "boom", *got.Stderr)
	assert.Equal(t, "partial", *got.Stdout)
}

func TestApply_RunProcessStartFailure(t *testing.T) {
	runner := func(ctx context.Context, dir string, args []string) (string, string, int, error) {
		return "", "", -1, errors.New("executable file not found")
	}
	e, _ := newMemExecutor(t, WithProcessRunner(runner))
	rp, _ := ops.NewRunProcess("", "missing-binary")

	got := e.Apply(context.Background(), mustList(t, rp))[rp.Key()]
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "not found")
}

func TestApply_PreservesOrderAcrossKinds(t *testing.T) {
	var seen []string
	runner := func(ctx context.Context, dir string, args []string) (string, string, int, error) {
		seen = append(seen, "process")
		return "", "", 0, nil
	}
	e, fsys := newMemExecutor(t, WithProcessRunner(runner))
	wf, _ := ops.NewWriteFile("out/a.txt", "1")
	rp, _ := ops.NewRunProcess("", "true")
	ce, _ := ops.NewCheckExists("out/a.txt")

	results := e.Apply(context.Background(), mustList(t, wf, rp, ce))

	assert.Equal(t, []string{"process"}, seen)
	assert.True(t, *results["out/a.txt"].Exists, "check_exists after write_file must see the file")
	_, err := hackpadfs.Stat(fsys, "out/a.txt")
	assert.NoError(t, err)
}

func TestApply_DryRunDoesNotWrite(t *testing.T) {
	e, fsys := newMemExecutor(t, WithDryRun(true))
	wf, _ := ops.NewWriteFile("a.txt", "x")

	results := e.Apply(context.Background(), mustList(t, wf))
	assert.True(t, results["a.txt"].Success)

	_, err := hackpadfs.Stat(fsys, "a.txt")
	assert.Error(t, err)
}

func TestApply_CancelledContextFailsRemaining(t *testing.T) {
	e, _ := newMemExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wf, _ := ops.NewWriteFile("a.txt", "x")

	got := e.Apply(ctx, mustList(t, wf))["a.txt"]
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Error)
}

func TestNew_OSBackedWritesUnderBase(t *testing.T) {
	base := t.TempDir()
	e, err := New(base)
	require.NoError(t, err)

	wf, _ := ops.NewWriteFile(".cursor/rules/a.mdc", "rule")
	results := e.Apply(context.Background(), mustList(t, wf))
	require.True(t, results[".cursor/rules/a.mdc"].Success, results[".cursor/rules/a.mdc"].Error)

	data, err := os.ReadFile(filepath.Join(base, ".cursor", "rules", "a.mdc"))
	require.NoError(t, err)
	assert.Equal(t, "rule", string(data))
}
