package tools

import (
	"context"

	"github.com/HendryAvila/rulewright/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunWorkflowTool handles the run_workflow MCP tool. It is the only
// caller that chains phases, and it does so through the same dispatcher
// run_phase uses.
type RunWorkflowTool struct {
	engine    *workflow.Engine
	artifacts Artifacts
}

// NewRunWorkflowTool creates a RunWorkflowTool. artifacts may be nil.
func NewRunWorkflowTool(engine *workflow.Engine, artifacts Artifacts) *RunWorkflowTool {
	return &RunWorkflowTool{engine: engine, artifacts: artifactsOrNil(artifacts)}
}

// PhaseSummary is one step of a run_workflow call.
type PhaseSummary struct {
	Phase   workflow.Phase  `json:"phase"`
	Name    string          `json:"name"`
	Status  workflow.Status `json:"status"`
	Message string          `json:"message"`
}

// WorkflowRun is the run_workflow response. Result is the last phase run,
// carrying the state to pass back and any pending instructions.
type WorkflowRun struct {
	SessionID string               `json:"session_id"`
	PhasesRun []PhaseSummary       `json:"phases_run"`
	Result    workflow.PhaseResult `json:"result"`
}

// Definition returns the MCP tool definition for registration.
func (t *RunWorkflowTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Advance the Cursor rules workflow as far as possible. Runs the next incomplete phase " +
				"and keeps going until a phase returns instructions for you to execute, or stops " +
				"with a non-complete status. Execute the instructions, then call run_workflow again " +
				"with the returned state.",
		),
		mcp.WithObject("workflow_state",
			mcp.Description("The state object from the previous result. Omit on the first call."),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to resume when workflow_state is omitted"),
		),
	}
	opts = append(opts, withRepositoryArgs()...)
	return mcp.NewTool("run_workflow", opts...)
}

// Handle processes the run_workflow tool call.
func (t *RunWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := resolveState(ctx, req, t.artifacts)
	if err != nil {
		return errorResult(err, "Pass workflow_state exactly as it was returned by the previous call."), nil
	}

	run := Advance(t.engine, state)
	persistSession(ctx, t.artifacts, run.Result.State)
	return jsonResult(run)
}

// Advance runs phases from the first incomplete one until a phase hands
// back instructions or does not complete. With every phase done it reports
// the last phase as already complete.
func Advance(engine *workflow.Engine, state workflow.State) WorkflowRun {
	run := WorkflowRun{SessionID: state.SessionID}

	next := state.NextPhase()
	if next == 0 {
		next = workflow.LastPhase
	}
	for p := next; p <= workflow.LastPhase; p++ {
		res := engine.Run(p, state)
		run.PhasesRun = append(run.PhasesRun, PhaseSummary{
			Phase:   p,
			Name:    p.String(),
			Status:  res.Status,
			Message: res.Message,
		})
		run.Result = res
		state = res.State
		if res.Status != workflow.StatusComplete || len(res.Instructions) > 0 {
			break
		}
	}
	return run
}
