// Package tools implements the MCP tool handlers for the rule workflow.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle method compatible with mcp-go's
// CallToolRequest signature. Handlers never touch the caller's filesystem:
// they return instructions and results as JSON text.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// errorPayload is the body of every tool-level error response.
type errorPayload struct {
	Status    string   `json:"status"`
	Code      string   `json:"code,omitempty"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns err into a tool error carrying a JSON payload.
func errorResult(err error, nextSteps ...string) *mcp.CallToolResult {
	p := errorPayload{Status: "error", Message: err.Error(), NextSteps: nextSteps}
	if code := apperr.CodeOf(err); code != apperr.ErrUnknown {
		p.Code = string(code)
	}
	data, mErr := json.Marshal(p)
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}

// stringListArg reads an array argument. A plain string is accepted as a
// comma-separated list since some clients flatten arrays. Entries are
// trimmed and blanks dropped.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	var cleaned []string
	for _, s := range rawListArg(req, key) {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

// patternListArg reads an array of regular expressions. Entries are kept
// verbatim since whitespace is significant in a pattern; only blank
// entries are dropped. A plain string is a single pattern, because commas
// are legal regex syntax.
func patternListArg(req mcp.CallToolRequest, key string) []string {
	raw := rawListArg(req, key)
	if s, ok := req.GetArguments()[key].(string); ok {
		raw = []string{s}
	}
	var out []string
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func rawListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case []string:
		out = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = strings.Split(v, ",")
	}
	return out
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func errMissing(key string) error {
	return apperr.Newf(apperr.ErrInvalidInput, "'%s' is required", key)
}

// hasArg reports whether key was passed with a non-null value.
func hasArg(req mcp.CallToolRequest, key string) bool {
	v, ok := req.GetArguments()[key]
	return ok && v != nil
}

// decodeArg decodes an object argument into out. The value may be the
// object itself or a JSON string holding it.
func decodeArg(req mcp.CallToolRequest, key string, out any) error {
	raw := req.GetArguments()[key]
	var data []byte
	switch v := raw.(type) {
	case nil:
		return errMissing(key)
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return apperr.Wrapf(err, apperr.ErrInvalidInput, "'%s' is not valid JSON", key)
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrapf(err, apperr.ErrInvalidInput, "'%s' has the wrong shape", key)
	}
	return nil
}

// repositoryInfo collects the repository fields of a run_phase or
// run_workflow call.
func repositoryInfo(req mcp.CallToolRequest) workflow.RepositoryInfo {
	return workflow.RepositoryInfo{
		Description:   strings.TrimSpace(req.GetString("description", "")),
		MainLanguages: stringListArg(req, "main_languages"),
		FilePatterns:  stringListArg(req, "file_patterns"),
		KeyFeatures:   stringListArg(req, "key_features"),
		RepoRoot:      strings.TrimSpace(req.GetString("repo_root", "")),
	}
}

// mergeRepositoryInfo overlays the non-empty fields of in onto dst.
func mergeRepositoryInfo(dst *workflow.RepositoryInfo, in workflow.RepositoryInfo) {
	if in.Description != "" {
		dst.Description = in.Description
	}
	if len(in.MainLanguages) > 0 {
		dst.MainLanguages = in.MainLanguages
	}
	if len(in.FilePatterns) > 0 {
		dst.FilePatterns = in.FilePatterns
	}
	if len(in.KeyFeatures) > 0 {
		dst.KeyFeatures = in.KeyFeatures
	}
	if in.RepoRoot != "" {
		dst.RepoRoot = in.RepoRoot
	}
}

// withRepositoryArgs adds the shared repository parameters to a tool.
func withRepositoryArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("description",
			mcp.Description("Free-text description of the repository (phase 1)"),
		),
		mcp.WithArray("main_languages",
			mcp.Description("Main programming languages, e.g. [\"go\", \"typescript\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("file_patterns",
			mcp.Description("Glob patterns of the files rules should cover, e.g. [\"*.go\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("key_features",
			mcp.Description("Notable features of the repository"),
			mcp.WithStringItems(),
		),
		mcp.WithString("repo_root",
			mcp.Description("Repository root the caller's executor resolves paths against"),
		),
	}
}
