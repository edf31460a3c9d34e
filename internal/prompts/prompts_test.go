package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) == 0 {
		t.Fatal("prompt returned no messages")
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_WithDescription(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{
		"description": "A Go CLI",
		"languages":   "go",
	}

	res, err := NewStartPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, res)
	for _, want := range []string{`"A Go CLI"`, "Main languages: go", "run_workflow", "process_instruction_results"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestStartPrompt_NoArguments(t *testing.T) {
	res, err := NewStartPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(promptText(t, res), "Look at the repository first") {
		t.Error("without a description the prompt should ask the AI to describe the repo")
	}
}

func TestResumePrompt(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"session_id": "abc-123"}

	res, err := NewResumePrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(promptText(t, res), `session_id="abc-123"`) {
		t.Error("prompt should pass the session id to run_workflow")
	}

	if _, err := NewResumePrompt().Handle(context.Background(), mcp.GetPromptRequest{}); err == nil {
		t.Error("missing session_id should fail")
	}
}
