package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HendryAvila/rulewright/internal/config"
	"github.com/HendryAvila/rulewright/internal/workflow"
)

func testConfig(t *testing.T, cacheEnabled bool) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.DataDir = t.TempDir()
	cfg.Cache.Enabled = cacheEnabled
	return cfg
}

func call(t *testing.T, cfg *config.Config, method string) string {
	t.Helper()
	s, cleanup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()

	msg := `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{}}`
	resp := s.HandleMessage(context.Background(), json.RawMessage(msg))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("encoding response: %v", err)
	}
	return string(data)
}

func TestNew_RegistersTools(t *testing.T) {
	out := call(t, testConfig(t, true), "tools/list")
	for _, name := range []string{
		"run_phase", "run_workflow", "build_ensure_instructions", "process_instruction_results",
		"generate_rule_document", "validate_rule_document", "recommend_rules",
	} {
		if !strings.Contains(out, `"`+name+`"`) {
			t.Errorf("tools/list should include %s", name)
		}
	}
}

func TestNew_RegistersPromptsAndResources(t *testing.T) {
	cfg := testConfig(t, false)
	if out := call(t, cfg, "prompts/list"); !strings.Contains(out, "rules-start") || !strings.Contains(out, "rules-resume") {
		t.Errorf("prompts/list = %s", out)
	}
	if out := call(t, cfg, "resources/list"); !strings.Contains(out, "rules://format/reference") {
		t.Errorf("resources/list = %s", out)
	}
}

func TestNew_CacheFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.DataDir = "/dev/null/not-a-dir"

	s, cleanup, err := New(cfg)
	if err != nil {
		t.Fatalf("New should survive a broken cache: %v", err)
	}
	if s == nil || cleanup == nil {
		t.Fatal("server and cleanup must be non-nil")
	}
	cleanup()
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions(workflow.DefaultConfig())
	for _, want := range []string{"run_workflow", "process_instruction_results", "rules://format/reference"} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions should mention %s", want)
		}
	}
}

func TestServerInstructions_FollowConfig(t *testing.T) {
	text := serverInstructions(workflow.DefaultConfig())
	for _, want := range []string{".dockerignore entry", "Taskfile.yml task", "update-cursor-rules", ".cursor/rules"} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions should mention %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, ".gitignore") || strings.Contains(text, "%!") {
		t.Errorf("instructions do not match the configuration:\n%s", text)
	}

	wf := workflow.DefaultConfig()
	wf.IgnoreFile = ".gitignore"
	if !strings.Contains(serverInstructions(wf), ".gitignore entry") {
		t.Error("a configured ignore file should appear in the instructions")
	}
}
