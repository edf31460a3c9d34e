package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HendryAvila/rulewright/internal/cache"
	"github.com/HendryAvila/rulewright/internal/instructions"
	"github.com/HendryAvila/rulewright/internal/ops"
	"github.com/HendryAvila/rulewright/internal/recommend"
	"github.com/HendryAvila/rulewright/internal/rules"
	"github.com/HendryAvila/rulewright/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Test helpers ---

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if err := json.Unmarshal([]byte(getResultText(result)), out); err != nil {
		t.Fatalf("decoding result: %v\n%s", err, getResultText(result))
	}
}

func decodeError(t *testing.T, result *mcp.CallToolResult) errorPayload {
	t.Helper()
	if !isErrorResult(result) {
		t.Fatalf("expected error result, got: %s", getResultText(result))
	}
	var p errorPayload
	if err := json.Unmarshal([]byte(getResultText(result)), &p); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	return p
}

// stateArg turns a State into the map shape an MCP client sends.
func stateArg(t *testing.T, s workflow.State) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func newBridge(t *testing.T) *CacheBridge {
	t.Helper()
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewCacheBridge(store)
}

// --- run_phase ---

func TestRunPhase_FirstCallStartsSession(t *testing.T) {
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":          float64(1),
		"description":    "A CLI tool written in Go",
		"main_languages": []interface{}{"go"},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var res workflow.PhaseResult
	decodeResult(t, result, &res)
	if res.Status != workflow.StatusComplete {
		t.Fatalf("status = %q, want complete (%s)", res.Status, res.Message)
	}
	if res.State.SessionID == "" {
		t.Error("a session id should be assigned")
	}
	if !res.State.Phase1Complete {
		t.Error("phase 1 should be complete")
	}
	if res.State.AnalysisResults == nil || res.State.AnalysisResults.RepositoryType != "cli-tool" {
		t.Errorf("analysis = %+v, want repository type cli-tool", res.State.AnalysisResults)
	}
}

func TestRunPhase_MissingPhase(t *testing.T) {
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"description": "anything",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	p := decodeError(t, result)
	if p.Code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", p.Code)
	}
	if len(p.NextSteps) == 0 {
		t.Error("error should carry next steps")
	}
}

func TestRunPhase_PrerequisiteNotMet(t *testing.T) {
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":       float64(3),
		"description": "A web app",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var res workflow.PhaseResult
	decodeResult(t, result, &res)
	if res.Status != workflow.StatusPrerequisiteNotMet {
		t.Errorf("status = %q, want prerequisite_not_met", res.Status)
	}
}

func TestRunPhase_BadStateShape(t *testing.T) {
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":          float64(2),
		"workflow_state": "not json",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p := decodeError(t, result); !strings.Contains(p.Message, "workflow_state") {
		t.Errorf("message = %q, should name workflow_state", p.Message)
	}
}

func TestRunPhase_ExplicitStateIsThreaded(t *testing.T) {
	engine := workflow.New(workflow.DefaultConfig())
	tool := NewRunPhaseTool(engine, nil)

	first, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":       float64(1),
		"description": "A Python web app using FastAPI",
	}))
	var r1 workflow.PhaseResult
	decodeResult(t, first, &r1)

	second, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":          float64(2),
		"workflow_state": stateArg(t, r1.State),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var r2 workflow.PhaseResult
	decodeResult(t, second, &r2)
	if r2.Status != workflow.StatusComplete {
		t.Fatalf("status = %q, want complete (%s)", r2.Status, r2.Message)
	}
	if r2.State.SessionID != r1.State.SessionID {
		t.Errorf("session id changed: %q -> %q", r1.State.SessionID, r2.State.SessionID)
	}
	if len(r2.State.RecommendedRules) == 0 {
		t.Error("phase 2 should recommend rules")
	}
}

func TestRunPhase_ResumesCachedSession(t *testing.T) {
	bridge := newBridge(t)
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), bridge)

	first, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":       float64(1),
		"session_id":  "sess-1",
		"description": "A TypeScript React app",
	}))
	var r1 workflow.PhaseResult
	decodeResult(t, first, &r1)
	if r1.State.SessionID != "sess-1" {
		t.Fatalf("session id = %q, want sess-1", r1.State.SessionID)
	}

	// No workflow_state: the cached snapshot is picked up.
	second, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"phase":      float64(2),
		"session_id": "sess-1",
	}))
	var r2 workflow.PhaseResult
	decodeResult(t, second, &r2)
	if r2.Status != workflow.StatusComplete {
		t.Errorf("status = %q, want complete (%s)", r2.Status, r2.Message)
	}
}

// --- run_workflow ---

func TestRunWorkflow_StopsAtInstructions(t *testing.T) {
	tool := NewRunWorkflowTool(workflow.New(workflow.DefaultConfig()), nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"description":    "A Go service with a REST API",
		"main_languages": "go",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var run WorkflowRun
	decodeResult(t, result, &run)

	// Phase 1 prepares the workspace on the first run, so it stops there.
	if len(run.PhasesRun) != 1 || run.PhasesRun[0].Phase != workflow.PhaseAnalysis {
		t.Fatalf("phases run = %+v, want only analysis", run.PhasesRun)
	}
	if len(run.Result.Instructions) == 0 {
		t.Error("result should carry the workspace instructions")
	}
	if run.SessionID == "" || run.SessionID != run.Result.State.SessionID {
		t.Errorf("session id = %q, state session = %q", run.SessionID, run.Result.State.SessionID)
	}
}

func TestAdvance_ChainsToCompletion(t *testing.T) {
	engine := workflow.New(workflow.DefaultConfig())
	state := workflow.State{
		SessionID:      "s",
		RepositoryInfo: workflow.RepositoryInfo{Description: "A Go library", MainLanguages: []string{"go"}},
	}

	var phases []workflow.Phase
	for i := 0; i < 10; i++ {
		run := Advance(engine, state)
		for _, p := range run.PhasesRun {
			phases = append(phases, p.Phase)
		}
		state = run.Result.State
		if run.Result.Status == workflow.StatusAlreadyComplete {
			break
		}
		if run.Result.Status != workflow.StatusComplete {
			t.Fatalf("phase %d: status %q (%s)", run.Result.Phase, run.Result.Status, run.Result.Message)
		}
	}

	if state.NextPhase() != 0 {
		t.Fatalf("workflow not finished, next phase %d", state.NextPhase())
	}
	want := []workflow.Phase{1, 2, 3, 4, 5}
	seen := map[workflow.Phase]bool{}
	for _, p := range phases {
		seen[p] = true
	}
	for _, p := range want {
		if !seen[p] {
			t.Errorf("phase %d never ran (ran %v)", p, phases)
		}
	}

	done := Advance(engine, state)
	if done.Result.Status != workflow.StatusAlreadyComplete {
		t.Errorf("finished workflow status = %q, want already_complete", done.Result.Status)
	}
}

// --- build_ensure_instructions / process_instruction_results ---

func TestBuildInstructions_TwoCallShape(t *testing.T) {
	build := NewBuildInstructionsTool()
	process := NewProcessResultsTool()

	first, err := build.Handle(context.Background(), request(map[string]interface{}{
		"kind": "ignore_entry",
		"path": ".gitignore",
		"text": "hack/drafts/",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var read instructions.Instruction
	decodeResult(t, first, &read)
	if !read.RequiresResult || read.Context == nil {
		t.Fatalf("first call should ask for results with a context, got %+v", read)
	}

	contextArg := map[string]interface{}{}
	data, _ := json.Marshal(read.Context)
	_ = json.Unmarshal(data, &contextArg)

	second, err := process.Handle(context.Background(), request(map[string]interface{}{
		"builder_context": contextArg,
		"operation_results": map[string]interface{}{
			".gitignore": map[string]interface{}{"success": true, "exists": true, "content": "node_modules/\n"},
		},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var write instructions.Instruction
	decodeResult(t, second, &write)
	if write.ActionTaken != instructions.ActionAppend {
		t.Errorf("action = %q, want append", write.ActionTaken)
	}
	if len(write.Operations) != 1 {
		t.Fatalf("operations = %d, want 1", len(write.Operations))
	}
	wf, ok := write.Operations[0].(ops.WriteFile)
	if !ok || wf.Content != "node_modules/\nhack/drafts/\n" {
		t.Errorf("write = %#v", write.Operations[0])
	}
}

func TestBuildInstructions_PriorResultsInline(t *testing.T) {
	tool := NewBuildInstructionsTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"kind": "build_task",
		"path": "Taskfile.yml",
		"name": "update-cursor-rules",
		"text": "  update-cursor-rules:\n    cmds:\n      - echo hi\n",
		"prior_results": map[string]interface{}{
			"Taskfile.yml": map[string]interface{}{"success": false, "error": "not found"},
		},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var inst instructions.Instruction
	decodeResult(t, result, &inst)
	if inst.ActionTaken != instructions.ActionCreate {
		t.Errorf("action = %q, want create", inst.ActionTaken)
	}
}

func TestBuildInstructions_UnknownKind(t *testing.T) {
	tool := NewBuildInstructionsTool()

	result, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"kind": "frobnicate",
		"path": "x",
		"text": "y",
	}))
	if p := decodeError(t, result); p.Code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", p.Code)
	}
}

func TestProcessResults_MissingResults(t *testing.T) {
	tool := NewProcessResultsTool()

	result, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"builder_context": map[string]interface{}{"kind": "ignore_entry", "path": ".gitignore", "text": "x"},
	}))
	p := decodeError(t, result)
	if !strings.Contains(p.Message, "operation_results") {
		t.Errorf("message = %q, should name operation_results", p.Message)
	}
}

func TestProcessResults_ProtocolError(t *testing.T) {
	tool := NewProcessResultsTool()

	result, _ := tool.Handle(context.Background(), request(map[string]interface{}{
		"builder_context":   map[string]interface{}{"kind": "ignore_entry", "path": ".gitignore", "text": "x"},
		"operation_results": map[string]interface{}{},
	}))
	if p := decodeError(t, result); p.Code != "PROTOCOL" {
		t.Errorf("code = %q, want PROTOCOL", p.Code)
	}
}

// --- generate / validate / recommend ---

func TestGenerateRule_RoundTripsThroughValidate(t *testing.T) {
	bridge := newBridge(t)
	gen := NewGenerateRuleTool(bridge)
	val := NewValidateRuleTool()

	result, err := gen.Handle(context.Background(), request(map[string]interface{}{
		"name":           "go-error-handling",
		"description":    "Wrap errors with context",
		"file_patterns":  []interface{}{"*.go"},
		"action_message": "Wrap errors with fmt.Errorf and %w.",
		"examples": []interface{}{
			map[string]interface{}{"input": "return err", "output": "return fmt.Errorf(\"x: %w\", err)"},
		},
		"tags":     []interface{}{"go", "errors"},
		"priority": "high",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("generate failed: %s", getResultText(result))
	}
	text := getResultText(result)

	vres, _ := val.Handle(context.Background(), request(map[string]interface{}{"text": text}))
	var v rules.Validation
	decodeResult(t, vres, &v)
	if !v.Valid {
		t.Errorf("generated document invalid: %v", v.Issues)
	}

	entry, err := bridge.store.Get(context.Background(), cache.RuleKey("go-error-handling"))
	if err != nil {
		t.Fatalf("rule not cached: %v", err)
	}
	if entry.Value != text {
		t.Error("cached rule differs from the returned document")
	}
}

func TestGenerateRule_ContentPatternsKeepWhitespace(t *testing.T) {
	tool := NewGenerateRuleTool(nil)

	tests := []struct {
		name     string
		patterns interface{}
		want     string
	}{
		{"list", []interface{}{"def ", " ", "class "}, `(?s)(def |class )`},
		{"single string", "def ", `(?s)(def )`},
		{"string with comma", "a{1,2}", `(?s)(a{1,2})`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := tool.Handle(context.Background(), request(map[string]interface{}{
				"name":             "python-defs",
				"file_patterns":    []interface{}{"*.py"},
				"content_patterns": tt.patterns,
			}))
			if isErrorResult(result) {
				t.Fatalf("generate failed: %s", getResultText(result))
			}
			if text := getResultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("content filter should contain %q:\n%s", tt.want, text)
			}
		})
	}
}

func TestGenerateRule_Errors(t *testing.T) {
	tool := NewGenerateRuleTool(nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"file_patterns": []interface{}{"*.go"}}},
		{"no patterns", map[string]interface{}{"name": "x"}},
		{"bad priority", map[string]interface{}{"name": "x", "file_patterns": []interface{}{"*.go"}, "priority": "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := tool.Handle(context.Background(), request(tt.args))
			if p := decodeError(t, result); p.Code != "GENERATION" {
				t.Errorf("code = %q, want GENERATION", p.Code)
			}
		})
	}
}

func TestValidateRule_Unbalanced(t *testing.T) {
	tool := NewValidateRuleTool()

	result, _ := tool.Handle(context.Background(), request(map[string]interface{}{"text": "{{{"}))
	var v rules.Validation
	decodeResult(t, result, &v)
	if v.Valid {
		t.Fatal("unbalanced text should be invalid")
	}
	found := false
	for _, issue := range v.Issues {
		if strings.Contains(issue, "unbalanced braces") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want an unbalanced braces issue", v.Issues)
	}
}

func TestRecommend_BaselineAndMatches(t *testing.T) {
	tool := NewRecommendTool(recommend.New())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"summary": "A PYTHON web app using FastAPI and React",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var recs []recommend.Recommendation
	decodeResult(t, result, &recs)

	count := map[string]int{}
	for _, r := range recs {
		count[r.Name]++
	}
	for _, name := range []string{"documentation-standards", "error-handling-patterns", "fastapi-best-practices", "react-component-patterns"} {
		if count[name] != 1 {
			t.Errorf("%s appears %d times, want 1", name, count[name])
		}
	}
}

func TestRecommend_EmptySummary(t *testing.T) {
	tool := NewRecommendTool(recommend.New())

	result, _ := tool.Handle(context.Background(), request(map[string]interface{}{"summary": "  "}))
	if !isErrorResult(result) {
		t.Error("empty summary should be an error")
	}
}

// --- CacheBridge ---

func TestCacheBridge_NilIsSafe(t *testing.T) {
	var b *CacheBridge
	b.SaveSession(context.Background(), workflow.State{SessionID: "x"})
	b.SaveRule(context.Background(), "r", "text")
	if _, ok := b.LoadSession(context.Background(), "x"); ok {
		t.Error("nil bridge should not load anything")
	}
	if NewCacheBridge(nil) != nil {
		t.Error("NewCacheBridge(nil) should return nil")
	}
	if artifactsOrNil(b) != nil {
		t.Error("typed nil bridge should collapse to a nil Artifacts")
	}
}

func TestCacheBridge_SessionRoundTrip(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	if _, ok := b.LoadSession(ctx, "missing"); ok {
		t.Error("unknown session should not load")
	}

	s := workflow.State{SessionID: "abc", Phase1Complete: true}
	s.RepositoryInfo.Description = "demo"
	b.SaveSession(ctx, s)

	got, ok := b.LoadSession(ctx, "abc")
	if !ok {
		t.Fatal("saved session should load")
	}
	if !got.Phase1Complete || got.RepositoryInfo.Description != "demo" {
		t.Errorf("loaded state = %+v", got)
	}
}

func TestCacheBridge_DropSession(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	b.SaveSession(ctx, workflow.State{SessionID: "abc"})
	b.DropSession(ctx, "abc")
	if _, ok := b.LoadSession(ctx, "abc"); ok {
		t.Error("dropped session should not load")
	}
	b.DropSession(ctx, "never-saved")

	var nilBridge *CacheBridge
	nilBridge.DropSession(ctx, "abc")
}

func TestRunPhase_FinishedSessionIsNotCached(t *testing.T) {
	bridge := newBridge(t)
	ctx := context.Background()
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), bridge)

	done := workflow.State{
		SessionID:      "finished",
		Phase1Complete: true,
		Phase2Complete: true,
		Phase3Complete: true,
		Phase4Complete: true,
		Phase5Complete: true,
	}
	bridge.SaveSession(ctx, done)

	result, err := tool.Handle(ctx, request(map[string]interface{}{
		"phase":          float64(5),
		"workflow_state": stateArg(t, done),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var res workflow.PhaseResult
	decodeResult(t, result, &res)
	if res.Status != workflow.StatusAlreadyComplete {
		t.Fatalf("status = %q, want already_complete (%s)", res.Status, res.Message)
	}
	if _, ok := bridge.LoadSession(ctx, "finished"); ok {
		t.Error("a finished workflow should not leave a snapshot behind")
	}
}

func TestRunPhase_UnfinishedSessionIsCached(t *testing.T) {
	bridge := newBridge(t)
	ctx := context.Background()
	tool := NewRunPhaseTool(workflow.New(workflow.DefaultConfig()), bridge)

	_, _ = tool.Handle(ctx, request(map[string]interface{}{
		"phase":       float64(1),
		"session_id":  "open",
		"description": "A Go library",
	}))
	got, ok := bridge.LoadSession(ctx, "open")
	if !ok {
		t.Fatal("an unfinished workflow should be cached")
	}
	if got.NextPhase() == 0 {
		t.Error("cached snapshot should still have phases to run")
	}
}

func TestCacheBridge_StoreFailuresAreSwallowed(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()
	if err := b.store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b.SaveRule(ctx, "go-style", "text")
	b.SaveSession(ctx, workflow.State{SessionID: "abc"})
	b.DropSession(ctx, "abc")
	if _, ok := b.LoadSession(ctx, "abc"); ok {
		t.Error("a closed store should not load anything")
	}
}
