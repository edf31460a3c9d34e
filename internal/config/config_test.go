package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/rulewright/internal/workflow"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, workflow.DefaultConfig(), cfg.Workflow())
	assert.Equal(t, 5*time.Minute, cfg.Executor.ProcessTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, filepath.IsAbs(cfg.BaseDir))
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `
drafts_dir = "docs/rules"
task_name = "sync-rules"
log_level = "debug"

[executor]
process_timeout = "30s"

[cache]
enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "docs/rules", cfg.DraftsDir)
	assert.Equal(t, "sync-rules", cfg.TaskName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Executor.ProcessTimeout)
	assert.False(t, cfg.Cache.Enabled)
	// Untouched keys keep their defaults.
	assert.Equal(t, ".cursor/rules", cfg.DeployDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`task_name = "from-file"`), 0o644))
	t.Setenv("RULEWRIGHT_TASK_NAME", "from-env")
	t.Setenv("RULEWRIGHT_EXECUTOR__PROCESS_TIMEOUT", "2m")
	t.Setenv("RULEWRIGHT_CACHE__ENABLED", "false")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.TaskName)
	assert.Equal(t, 2*time.Minute, cfg.Executor.ProcessTimeout)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not = [valid"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RULEWRIGHT_TASK_NAME", " ")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_name")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log_level", envKey("RULEWRIGHT_LOG_LEVEL"))
	assert.Equal(t, "executor.process_timeout", envKey("RULEWRIGHT_EXECUTOR__PROCESS_TIMEOUT"))
}
