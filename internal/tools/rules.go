package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/recommend"
	"github.com/HendryAvila/rulewright/internal/rules"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- generate_rule_document ---

// GenerateRuleTool handles the generate_rule_document MCP tool.
type GenerateRuleTool struct {
	artifacts Artifacts
}

// NewGenerateRuleTool creates a GenerateRuleTool. artifacts may be nil.
func NewGenerateRuleTool(artifacts Artifacts) *GenerateRuleTool {
	return &GenerateRuleTool{artifacts: artifactsOrNil(artifacts)}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateRuleTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_rule_document",
		mcp.WithDescription(
			"Render a Cursor rule document (.mdc) from its parts. Returns the document text; "+
				"save it with build_ensure_instructions kind=save_document.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Rule name in kebab-case, e.g. go-error-handling"),
		),
		mcp.WithString("description",
			mcp.Description("One-line description, used in the frontmatter and the body"),
		),
		mcp.WithArray("file_patterns",
			mcp.Required(),
			mcp.Description("Glob patterns of the files the rule applies to, e.g. [\"*.go\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("content_patterns",
			mcp.Description("Regular expressions matched against file content"),
			mcp.WithStringItems(),
		),
		mcp.WithString("action_message",
			mcp.Description("Guidance shown when the rule matches"),
		),
		mcp.WithArray("examples",
			mcp.Description("Examples as [{\"input\": \"...\", \"output\": \"...\"}]"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input":  map[string]any{"type": "string"},
					"output": map[string]any{"type": "string"},
				},
			}),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags written to the rule metadata"),
			mcp.WithStringItems(),
		),
		mcp.WithString("priority",
			mcp.Description("high, medium (default) or low"),
		),
	)
}

// Handle processes the generate_rule_document tool call.
func (t *GenerateRuleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := rules.Spec{
		Name:            strings.TrimSpace(req.GetString("name", "")),
		Description:     strings.TrimSpace(req.GetString("description", "")),
		FilePatterns:    stringListArg(req, "file_patterns"),
		ContentPatterns: patternListArg(req, "content_patterns"),
		ActionMessage:   req.GetString("action_message", ""),
		Tags:            stringListArg(req, "tags"),
		Priority:        rules.Priority(strings.ToLower(strings.TrimSpace(req.GetString("priority", string(rules.PriorityMedium))))),
	}
	if hasArg(req, "examples") {
		if err := decodeArg(req, "examples", &spec.Examples); err != nil {
			return errorResult(err), nil
		}
	}

	text, err := rules.Generate(spec)
	if err != nil {
		return errorResult(apperr.Wrap(err, apperr.ErrGeneration, "generating rule document"),
			"Provide a name, at least one file pattern, and a priority of high, medium or low."), nil
	}
	if t.artifacts != nil {
		t.artifacts.SaveRule(ctx, spec.Name, text)
	}
	return mcp.NewToolResultText(text), nil
}

// --- validate_rule_document ---

// ValidateRuleTool handles the validate_rule_document MCP tool.
type ValidateRuleTool struct{}

// NewValidateRuleTool creates a ValidateRuleTool.
func NewValidateRuleTool() *ValidateRuleTool {
	return &ValidateRuleTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateRuleTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_rule_document",
		mcp.WithDescription(
			"Check a rule document against the .mdc format and report every problem at once: "+
				"issues make it invalid, warnings point at sections that would be ignored.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Full text of the rule document"),
		),
	)
}

// Handle processes the validate_rule_document tool call.
func (t *ValidateRuleTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !hasArg(req, "text") {
		return errorResult(errMissing("text")), nil
	}
	return jsonResult(rules.Validate(req.GetString("text", "")))
}

// --- recommend_rules ---

// RecommendTool handles the recommend_rules MCP tool.
type RecommendTool struct {
	recommender *recommend.Recommender
}

// NewRecommendTool creates a RecommendTool over r.
func NewRecommendTool(r *recommend.Recommender) *RecommendTool {
	return &RecommendTool{recommender: r}
}

// Definition returns the MCP tool definition for registration.
func (t *RecommendTool) Definition() mcp.Tool {
	return mcp.NewTool("recommend_rules",
		mcp.WithDescription(
			"Suggest rules for a repository from a free-text summary. Always includes the "+
				"baseline documentation and error-handling rules.",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Short description of the repository, its languages and frameworks"),
		),
	)
}

// Handle processes the recommend_rules tool call.
func (t *RecommendTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := strings.TrimSpace(req.GetString("summary", ""))
	if summary == "" {
		return errorResult(errMissing("summary"), "Describe the repository in a sentence or two."), nil
	}
	return jsonResult(t.recommender.Recommend(summary))
}
