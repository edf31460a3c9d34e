package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/rulewright/internal/instructions"
	"github.com/HendryAvila/rulewright/internal/ops"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- build_ensure_instructions ---

// BuildInstructionsTool handles the build_ensure_instructions MCP tool.
type BuildInstructionsTool struct{}

// NewBuildInstructionsTool creates a BuildInstructionsTool.
func NewBuildInstructionsTool() *BuildInstructionsTool {
	return &BuildInstructionsTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *BuildInstructionsTool) Definition() mcp.Tool {
	return mcp.NewTool("build_ensure_instructions",
		mcp.WithDescription(
			"Build the operations that ensure a file holds something: a Taskfile task (build_task), "+
				"a line in an ignore file (ignore_entry), or a whole document (save_document). "+
				"Without prior_results the answer asks you to read the file first; execute those "+
				"operations and send the results to process_instruction_results with the returned context.",
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("build_task, ignore_entry or save_document"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Relative path of the target file"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Task body, ignore entry, or document content"),
		),
		mcp.WithString("name",
			mcp.Description("Task name (build_task only)"),
		),
		mcp.WithString("header",
			mcp.Description("Text written before the task when the file does not exist yet (build_task only)"),
		),
		mcp.WithObject("prior_results",
			mcp.Description("Results of the read operations, keyed by path. Omit on the first call."),
		),
	)
}

// Handle processes the build_ensure_instructions tool call.
func (t *BuildInstructionsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := instructions.ParseKind(strings.TrimSpace(req.GetString("kind", "")))
	if err != nil {
		return errorResult(err), nil
	}
	p := strings.TrimSpace(req.GetString("path", ""))
	if p == "" {
		return errorResult(errMissing("path")), nil
	}

	bc := instructions.BuilderContext{
		Kind:   kind,
		Path:   p,
		Name:   strings.TrimSpace(req.GetString("name", "")),
		Text:   req.GetString("text", ""),
		Header: req.GetString("header", ""),
	}

	var prior ops.Results
	if hasArg(req, "prior_results") {
		if err := decodeArg(req, "prior_results", &prior); err != nil {
			return errorResult(err), nil
		}
	}

	inst, err := instructions.Build(bc, prior)
	if err != nil {
		return errorResult(err, "Check the arguments and call build_ensure_instructions again."), nil
	}
	return jsonResult(inst)
}

// --- process_instruction_results ---

// ProcessResultsTool handles the process_instruction_results MCP tool.
type ProcessResultsTool struct{}

// NewProcessResultsTool creates a ProcessResultsTool.
func NewProcessResultsTool() *ProcessResultsTool {
	return &ProcessResultsTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ProcessResultsTool) Definition() mcp.Tool {
	return mcp.NewTool("process_instruction_results",
		mcp.WithDescription(
			"Second half of an ensure builder: feed back the results of the operations you executed "+
				"together with the context from the previous instruction. Returns the write operations "+
				"still needed, or a no-op when the file is already right.",
		),
		mcp.WithObject("operation_results",
			mcp.Required(),
			mcp.Description("Map from operation path to {success, content, exists, error}"),
		),
		mcp.WithObject("builder_context",
			mcp.Required(),
			mcp.Description("The context object from the previous instruction, unchanged"),
		),
	)
}

// Handle processes the process_instruction_results tool call.
func (t *ProcessResultsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var bc instructions.BuilderContext
	if err := decodeArg(req, "builder_context", &bc); err != nil {
		return errorResult(err, "Echo back the context field of the previous instruction."), nil
	}
	var results ops.Results
	if err := decodeArg(req, "operation_results", &results); err != nil {
		return errorResult(err, "Send the result of every operation, keyed by its path."), nil
	}

	inst, err := instructions.Process(results, bc)
	if err != nil {
		return errorResult(err, "Re-run the operations of the previous instruction and send all their results."), nil
	}
	return jsonResult(inst)
}
