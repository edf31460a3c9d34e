package tools

import (
	"context"

	"github.com/HendryAvila/rulewright/internal/workflow"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunPhaseTool handles the run_phase MCP tool. It is a thin dispatcher:
// every phase is reached through workflow.Engine.Run.
type RunPhaseTool struct {
	engine    *workflow.Engine
	artifacts Artifacts
}

// NewRunPhaseTool creates a RunPhaseTool. artifacts may be nil.
func NewRunPhaseTool(engine *workflow.Engine, artifacts Artifacts) *RunPhaseTool {
	return &RunPhaseTool{engine: engine, artifacts: artifactsOrNil(artifacts)}
}

// Definition returns the MCP tool definition for registration.
func (t *RunPhaseTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Run one phase of the Cursor rules workflow: 1 analysis, 2 recommendation, " +
				"3 workspace preparation, 4 rule creation, 5 deployment. " +
				"Pass the workflow_state returned by the previous call, or only session_id to resume " +
				"a cached session. Execute the returned instructions with your own tools, in order.",
		),
		mcp.WithNumber("phase",
			mcp.Required(),
			mcp.Description("Phase number, 1 to 5"),
		),
		mcp.WithObject("workflow_state",
			mcp.Description("The state object from the previous phase result. Omit on the first call."),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to resume when workflow_state is omitted"),
		),
	}
	opts = append(opts, withRepositoryArgs()...)
	return mcp.NewTool("run_phase", opts...)
}

// Handle processes the run_phase tool call.
func (t *RunPhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !hasArg(req, "phase") {
		return errorResult(errMissing("phase"), "Call run_phase with phase 1 to start a new workflow."), nil
	}
	phase := workflow.Phase(intArg(req, "phase", 0))

	state, err := resolveState(ctx, req, t.artifacts)
	if err != nil {
		return errorResult(err, "Pass workflow_state exactly as it was returned by the previous phase."), nil
	}

	res := t.engine.Run(phase, state)
	persistSession(ctx, t.artifacts, res.State)
	return jsonResult(res)
}

// resolveState picks the state a call works on: the explicit
// workflow_state, else the cached snapshot for session_id, else a fresh
// session. Repository arguments are overlaid until analysis completes.
func resolveState(ctx context.Context, req mcp.CallToolRequest, artifacts Artifacts) (workflow.State, error) {
	var state workflow.State
	sessionID := req.GetString("session_id", "")

	switch {
	case hasArg(req, "workflow_state"):
		if err := decodeArg(req, "workflow_state", &state); err != nil {
			return workflow.State{}, err
		}
	case sessionID != "" && artifacts != nil:
		if cached, ok := artifacts.LoadSession(ctx, sessionID); ok {
			state = cached
		}
	}

	if state.SessionID == "" {
		state.SessionID = sessionID
	}
	if state.SessionID == "" {
		state.SessionID = uuid.NewString()
	}
	if !state.Complete(workflow.PhaseAnalysis) {
		mergeRepositoryInfo(&state.RepositoryInfo, repositoryInfo(req))
	}
	return state, nil
}
