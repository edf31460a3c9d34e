// Package prompts implements MCP prompt handlers for the rule workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the rules-start MCP prompt.
// It walks the AI through the five workflow phases for the current repo.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("rules-start",
		mcp.WithPromptDescription(
			"Generate and deploy Cursor rules for this repository. "+
				"Runs the analysis, recommendation, workspace, creation and deployment phases, "+
				"executing every returned instruction along the way.",
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("One or two sentences about the repository"),
		),
		mcp.WithArgument("languages",
			mcp.ArgumentDescription("Comma-separated main languages, e.g. go,typescript"),
		),
	)
}

// Handle processes the rules-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := ""
	languages := ""
	if args := req.Params.Arguments; args != nil {
		description = strings.TrimSpace(args["description"])
		languages = strings.TrimSpace(args["languages"])
	}

	repo := "Look at the repository first and write a one or two sentence description of it, including its main languages."
	if description != "" {
		repo = fmt.Sprintf("The repository is described as: %q.", description)
	}
	if languages != "" {
		repo += fmt.Sprintf(" Main languages: %s.", languages)
	}

	return &mcp.GetPromptResult{
		Description: "Generate Cursor rules for this repository",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want Cursor rules for this repository. " + repo + "\n\n" +
						"Please:\n" +
						"1. Call `run_workflow` with description, main_languages and file_patterns\n" +
						"2. Execute every operation in the returned instructions, in order, with your own file and shell tools. " +
						"Relative paths are relative to the repository root\n" +
						"3. When an instruction has requires_result=true, send the results keyed by path to " +
						"`process_instruction_results` together with its context, and execute what comes back\n" +
						"4. Call `run_workflow` again with the returned state until deployment reports complete\n" +
						"5. If a phase reports partial, show me the creation_errors and run it again\n" +
						"6. Finish with a short list of the deployed rules",
				),
			},
		},
	}, nil
}
