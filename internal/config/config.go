// Package config loads rulewright's layered configuration.
//
// Layers, lowest precedence first: built-in defaults, .rulewright.toml in
// the base directory, then RULEWRIGHT_* environment variables. Nested keys
// use a double underscore in the environment, so
// RULEWRIGHT_EXECUTOR__PROCESS_TIMEOUT sets executor.process_timeout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/HendryAvila/rulewright/internal/workflow"
)

// FileName is the per-repository config file.
const FileName = ".rulewright.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RULEWRIGHT_"

// Config is the resolved configuration.
type Config struct {
	BaseDir     string         `koanf:"base_dir"`
	DraftsDir   string         `koanf:"drafts_dir"`
	DraftExt    string         `koanf:"draft_ext"`
	DeployDir   string         `koanf:"deploy_dir"`
	DeployExt   string         `koanf:"deploy_ext"`
	TaskFile    string         `koanf:"task_file"`
	TaskName    string         `koanf:"task_name"`
	IgnoreFile  string         `koanf:"ignore_file"`
	IgnoreEntry string         `koanf:"ignore_entry"`
	DataDir     string         `koanf:"data_dir"`
	LogLevel    string         `koanf:"log_level"`
	Executor    ExecutorConfig `koanf:"executor"`
	Cache       CacheConfig    `koanf:"cache"`
}

// ExecutorConfig tunes the caller-side executor.
type ExecutorConfig struct {
	ProcessTimeout time.Duration `koanf:"process_timeout"`
}

// CacheConfig controls the SQLite artifact cache.
type CacheConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Defaults returns the built-in layer for baseDir.
func Defaults(baseDir string) map[string]any {
	wf := workflow.DefaultConfig()
	return map[string]any{
		"base_dir":                 baseDir,
		"drafts_dir":               wf.DraftsDir,
		"draft_ext":                wf.DraftExt,
		"deploy_dir":               wf.DeployDir,
		"deploy_ext":               wf.DeployExt,
		"task_file":                wf.TaskFile,
		"task_name":                wf.TaskName,
		"ignore_file":              wf.IgnoreFile,
		"ignore_entry":             wf.IgnoreEntry,
		"data_dir":                 filepath.Join(xdg.DataHome, "rulewright"),
		"log_level":                "warn",
		"executor.process_timeout": "5m",
		"cache.enabled":            true,
	}
}

// Load resolves configuration for baseDir. An empty baseDir means the
// current directory. A missing config file is not an error.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base dir %q: %w", baseDir, err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(abs), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := filepath.Join(abs, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps RULEWRIGHT_EXECUTOR__PROCESS_TIMEOUT to executor.process_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c *Config) validate() error {
	required := map[string]string{
		"drafts_dir": c.DraftsDir,
		"deploy_dir": c.DeployDir,
		"task_file":  c.TaskFile,
		"task_name":  c.TaskName,
	}
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("config: %s must not be empty", key)
		}
	}
	if c.Executor.ProcessTimeout <= 0 {
		return fmt.Errorf("config: executor.process_timeout must be positive, got %s", c.Executor.ProcessTimeout)
	}
	return nil
}

// Workflow returns the paths the workflow engine writes.
func (c *Config) Workflow() workflow.Config {
	return workflow.Config{
		DraftsDir:   c.DraftsDir,
		DraftExt:    c.DraftExt,
		DeployDir:   c.DeployDir,
		DeployExt:   c.DeployExt,
		TaskFile:    c.TaskFile,
		TaskName:    c.TaskName,
		IgnoreFile:  c.IgnoreFile,
		IgnoreEntry: c.IgnoreEntry,
	}
}
