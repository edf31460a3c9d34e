package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResumePrompt handles the rules-resume MCP prompt.
// It picks up a cached workflow session by id.
type ResumePrompt struct{}

// NewResumePrompt creates a ResumePrompt.
func NewResumePrompt() *ResumePrompt {
	return &ResumePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResumePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("rules-resume",
		mcp.WithPromptDescription(
			"Resume an interrupted rule workflow from its session id. "+
				"Shows which phases are done and continues with the next one.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session id from an earlier run_phase or run_workflow result"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the rules-resume prompt request.
func (p *ResumePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := ""
	if args := req.Params.Arguments; args != nil {
		sessionID = strings.TrimSpace(args["session_id"])
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume rule workflow %s", sessionID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please call `run_workflow` with session_id=%q and no workflow_state.\n\n"+
						"Then:\n"+
						"1. Tell me which phases were already complete\n"+
						"2. Execute the returned instructions exactly as for a new run\n"+
						"3. Keep calling `run_workflow` with the returned state until deployment is complete",
					sessionID,
				)),
			},
		},
	}, nil
}
