// rulewright: Cursor rules workflow MCP server
//
// Generates, validates and deploys Cursor rule documents for a repository
// through a five-phase workflow. The server never touches the filesystem:
// it hands operations to the caller, and `rulewright exec` is a reference
// executor for them.
//
// Usage:
//
//	rulewright serve              # Start MCP server (stdio transport)
//	rulewright exec ops.json      # Apply an operation list to --base
//	rulewright validate rule.mdc  # Check a rule document
//	rulewright preview rule.mdc   # Render a rule document in the terminal
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
