// Package resources implements MCP resource handlers for the rule workflow.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (rules://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/rulewright/internal/cache"
	"github.com/HendryAvila/rulewright/internal/rules"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	FormatURI    = "rules://format/reference"
	GeneratedURI = "rules://generated"
)

// maxListed caps the generated-rules listing.
const maxListed = 100

// Lister is the slice of the cache the resources read from.
type Lister interface {
	List(ctx context.Context, prefix string, limit int) ([]cache.Entry, error)
}

// Handler manages the rule resource endpoints.
type Handler struct {
	lister Lister
}

// NewHandler creates a resource Handler. lister may be nil, in which case
// the generated-rules listing is always empty.
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

// FormatResource returns the MCP resource definition for the format
// reference.
func (h *Handler) FormatResource() mcp.Resource {
	return mcp.NewResource(
		FormatURI,
		"Rule Document Format",
		mcp.WithResourceDescription("Layout of a .mdc rule document with a generated example"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleFormat returns the format reference as markdown.
func (h *Handler) HandleFormat(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     FormatReference(),
		},
	}, nil
}

// GeneratedResource returns the MCP resource definition for the cached
// rule listing.
func (h *Handler) GeneratedResource() mcp.Resource {
	return mcp.NewResource(
		GeneratedURI,
		"Generated Rules",
		mcp.WithResourceDescription("Rule documents generated by this server, most recent first"),
		mcp.WithMIMEType("application/json"),
	)
}

type generatedRule struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
	Content   string `json:"content"`
}

// HandleGenerated returns the cached rule documents as JSON.
func (h *Handler) HandleGenerated(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := []generatedRule{}
	if h.lister != nil {
		entries, err := h.lister.List(ctx, cache.RulePrefix, maxListed)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		for _, e := range entries {
			out = append(out, generatedRule{
				Name:      strings.TrimPrefix(e.Key, cache.RulePrefix),
				UpdatedAt: e.UpdatedAt,
				Content:   e.Value,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling generated rules: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}

// FormatReference renders the reference document. The example is produced
// by the generator itself so it cannot drift from the real output.
func FormatReference() string {
	var b strings.Builder
	b.WriteString("# Rule document format\n\n")
	b.WriteString("A rule document is a frontmatter block followed by a `<rule>` body.\n\n")
	b.WriteString("## Frontmatter\n\n")
	b.WriteString("- Starts and ends with a `---` line.\n")
	b.WriteString("- Required fields: `description`, `globs`, `alwaysApply`.\n")
	b.WriteString("- `globs` is a bare comma-separated list with a space after each comma. ")
	b.WriteString("No quotes, no `[...]` or `{...}` syntax.\n\n")
	b.WriteString("## Body\n\n")
	b.WriteString("Sections inside `<rule>`: `name`, `description`, `filters`, `actions`, ")
	b.WriteString("`examples`, `metadata`. Filters are `file_extension` or `content` regexes; ")
	b.WriteString("metadata holds `priority` (high, medium, low), `version` and `tags`.\n\n")
	b.WriteString("## Example\n\n")

	example, err := rules.Generate(rules.Spec{
		Name:            "go-error-handling",
		Description:     "Wrap returned errors with context",
		FilePatterns:    []string{"*.go"},
		ContentPatterns: []string{`return err\b`},
		ActionMessage:   "Wrap the error with fmt.Errorf and %w before returning it.",
		Examples: []rules.Example{{
			Input:  "return err",
			Output: `return fmt.Errorf("loading config: %w", err)`,
		}},
		Tags:     []string{"go", "errors"},
		Priority: rules.PriorityHigh,
	})
	if err != nil {
		b.WriteString("(example unavailable: " + err.Error() + ")\n")
		return b.String()
	}
	b.WriteString("````markdown\n")
	b.WriteString(example)
	if !strings.HasSuffix(example, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("````\n")
	return b.String()
}
