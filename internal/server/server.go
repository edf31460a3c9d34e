// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/HendryAvila/rulewright/internal/cache"
	"github.com/HendryAvila/rulewright/internal/config"
	"github.com/HendryAvila/rulewright/internal/logging"
	"github.com/HendryAvila/rulewright/internal/prompts"
	"github.com/HendryAvila/rulewright/internal/recommend"
	"github.com/HendryAvila/rulewright/internal/resources"
	"github.com/HendryAvila/rulewright/internal/tools"
	"github.com/HendryAvila/rulewright/internal/workflow"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function closes the artifact cache and must be
// called on shutdown (typically via defer). It is always non-nil and safe
// to call even if the cache is disabled or failed to open.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	log := logging.Get("server")

	// --- Artifact cache ---
	//
	// The cache is optional: if it cannot be opened the workflow still runs,
	// sessions just cannot be resumed by id alone.

	cleanup := noop
	var store *cache.Store
	if cfg.Cache.Enabled {
		var err error
		store, err = cache.New(cfg.DataDir)
		if err != nil {
			log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("artifact cache disabled")
			store = nil
		} else {
			cleanup = func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("artifact cache close")
				}
			}
		}
	}
	bridge := tools.NewCacheBridge(store)

	engine := workflow.New(cfg.Workflow(),
		workflow.WithGeneratedHook(func(name, text string) {
			bridge.SaveRule(context.Background(), name, text)
		}),
	)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"rulewright",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(engine.Config())),
	)

	// --- Register workflow tools ---

	runPhaseTool := tools.NewRunPhaseTool(engine, bridge)
	s.AddTool(runPhaseTool.Definition(), runPhaseTool.Handle)

	runWorkflowTool := tools.NewRunWorkflowTool(engine, bridge)
	s.AddTool(runWorkflowTool.Definition(), runWorkflowTool.Handle)

	// --- Register instruction tools ---

	buildTool := tools.NewBuildInstructionsTool()
	s.AddTool(buildTool.Definition(), buildTool.Handle)

	processTool := tools.NewProcessResultsTool()
	s.AddTool(processTool.Definition(), processTool.Handle)

	// --- Register rule document tools ---

	generateTool := tools.NewGenerateRuleTool(bridge)
	s.AddTool(generateTool.Definition(), generateTool.Handle)

	validateTool := tools.NewValidateRuleTool()
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	recommendTool := tools.NewRecommendTool(recommend.New())
	s.AddTool(recommendTool.Definition(), recommendTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	resumePrompt := prompts.NewResumePrompt()
	s.AddPrompt(resumePrompt.Definition(), resumePrompt.Handle)

	// --- Register resources ---

	var lister resources.Lister
	if store != nil {
		lister = store
	}
	resourceHandler := resources.NewHandler(lister)
	s.AddResource(resourceHandler.FormatResource(), resourceHandler.HandleFormat)
	s.AddResource(resourceHandler.GeneratedResource(), resourceHandler.HandleGenerated)

	log.Debug().Bool("cache", store != nil).Str("base_dir", cfg.BaseDir).Msg("server ready")
	return s, cleanup, nil
}

// noop is the default cleanup when the cache is disabled.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to drive the workflow. Paths come from the engine's configuration.
func serverInstructions(wf workflow.Config) string {
	return fmt.Sprintf(workflowGuide, wf.TaskFile, wf.IgnoreFile, wf.TaskName, wf.DraftsDir, wf.DeployDir)
}

const workflowGuide = `You have access to rulewright, an MCP server that generates and deploys Cursor rules (.mdc files) for a repository.

## HOW IT WORKS

rulewright never touches the filesystem. Every tool returns instructions:
lists of operations (create_directory, write_file, read_file, check_exists,
run_process) that YOU execute with your own tools, in order, relative to the
repository root. When an instruction has requires_result=true, send the
results keyed by path to process_instruction_results together with the
instruction's context, and execute what it returns.

## THE WORKFLOW

1. analysis: describe the repository (description, main_languages, file_patterns)
2. recommendation: picks rules and priorities
3. workspace preparation: %[1]s task, %[2]s entry, empty drafts
4. rule creation: writes one draft per rule
5. deployment: runs the %[3]s task that copies drafts from %[4]s to %[5]s

Call run_workflow to advance as far as possible; it stops whenever there
are instructions to execute. Always pass back the state you received. If
you lose the state, call run_workflow with only the session_id.

## OTHER TOOLS

- recommend_rules: quick suggestions from a one-line summary
- generate_rule_document / validate_rule_document: work on single rules
- build_ensure_instructions: ensure a task, ignore line or document exists

Read rules://format/reference for the document format.`
