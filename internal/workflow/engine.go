package workflow

import (
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/rulewright/internal/logging"
	"github.com/HendryAvila/rulewright/internal/rules"
)

// Config names the files and directories the workflow writes. All paths
// are relative to the caller's base directory.
type Config struct {
	DraftsDir   string `json:"drafts_dir"`
	DraftExt    string `json:"draft_ext"`
	DeployDir   string `json:"deploy_dir"`
	DeployExt   string `json:"deploy_ext"`
	TaskFile    string `json:"task_file"`
	TaskName    string `json:"task_name"`
	IgnoreFile  string `json:"ignore_file"`
	IgnoreEntry string `json:"ignore_entry"`
}

// DefaultConfig is the Cursor layout: drafts under hack/drafts, deployed
// rules under .cursor/rules, copied by a Taskfile task.
func DefaultConfig() Config {
	return Config{
		DraftsDir:   "hack/drafts/cursor_rules",
		DraftExt:    ".mdc.md",
		DeployDir:   ".cursor/rules",
		DeployExt:   ".mdc",
		TaskFile:    "Taskfile.yml",
		TaskName:    "update-cursor-rules",
		IgnoreFile:  ".dockerignore",
		IgnoreEntry: "hack/drafts/",
	}
}

// DraftPath returns the draft file for a file-safe name.
func (c Config) DraftPath(fileName string) string {
	return path.Join(c.DraftsDir, fileName+c.DraftExt)
}

// DeployedPath returns the deployed file for a file-safe name.
func (c Config) DeployedPath(fileName string) string {
	return path.Join(c.DeployDir, fileName+c.DeployExt)
}

// GenerateFunc renders a rule document.
type GenerateFunc func(rules.Spec) (string, error)

// GeneratedFunc is told about every document phase 4 generates.
type GeneratedFunc func(name, text string)

// Engine runs phases. It holds no per-session state and is safe for
// concurrent use as long as each caller owns its State.
type Engine struct {
	cfg       Config
	generate  GenerateFunc
	generated GeneratedFunc
	logger    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator replaces rules.Generate in phase 4.
func WithGenerator(fn GenerateFunc) Option {
	return func(e *Engine) { e.generate = fn }
}

// WithGeneratedHook registers fn to receive each generated document.
func WithGeneratedHook(fn GeneratedFunc) Option {
	return func(e *Engine) { e.generated = fn }
}

// New creates an Engine for cfg.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		generate: rules.Generate,
		logger:   logging.Get("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

type phaseFunc func(e *Engine, s *State) (PhaseResult, error)

var phaseFuncs = map[Phase]phaseFunc{
	PhaseAnalysis:       (*Engine).analysis,
	PhaseRecommendation: (*Engine).recommendation,
	PhaseWorkspacePrep:  (*Engine).workspacePrep,
	PhaseRuleCreation:   (*Engine).ruleCreation,
	PhaseDeployment:     (*Engine).deployment,
}

// Run executes phase p against state. It is the only way to reach a phase.
//
// A completed phase reports already_complete, a phase whose predecessor is
// incomplete reports prerequisite_not_met, and in both cases state comes
// back unchanged. Phase work runs on a copy: when it fails or panics the
// result carries state exactly as it was passed in.
func (e *Engine) Run(p Phase, state State) (result PhaseResult) {
	log := e.logger.With().Int("phase", int(p)).Str("session", state.SessionID).Logger()

	if !p.Valid() {
		return PhaseResult{
			Phase:     p,
			Status:    StatusError,
			State:     state,
			Message:   fmt.Sprintf("invalid phase %d: must be between 1 and %d", int(p), int(LastPhase)),
			NextSteps: []string{"Call run_phase with a phase between 1 and 5."},
		}
	}

	if state.Complete(p) {
		res := PhaseResult{
			Phase:   p,
			Status:  StatusAlreadyComplete,
			State:   state,
			Message: fmt.Sprintf("Phase %d (%s) is already complete.", int(p), p),
		}
		if p < LastPhase {
			res.NextPhase = phasePtr(p + 1)
			res.NextSteps = []string{fmt.Sprintf("Continue with phase %d.", int(p+1))}
		}
		log.Debug().Msg("phase already complete")
		return res
	}

	if p > PhaseAnalysis && !state.Complete(p-1) {
		log.Debug().Msg("prerequisite not met")
		return PhaseResult{
			Phase:     p,
			Status:    StatusPrerequisiteNotMet,
			State:     state,
			NextPhase: phasePtr(p - 1),
			Message:   fmt.Sprintf("Phase %d (%s) requires phase %d (%s) to be complete.", int(p), p, int(p-1), p-1),
			NextSteps: []string{fmt.Sprintf("Run phase %d first, passing the full workflow state.", int(p-1))},
		}
	}

	failed := func(msg string) PhaseResult {
		return PhaseResult{
			Phase:     p,
			Status:    StatusError,
			State:     state,
			Message:   msg,
			NextSteps: []string{fmt.Sprintf("Fix the problem and run phase %d again with the same state.", int(p))},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("phase panicked")
			result = failed(fmt.Sprintf("phase %d (%s) failed: %v", int(p), p, r))
		}
	}()

	work, err := state.Clone()
	if err != nil {
		return failed(err.Error())
	}
	res, err := phaseFuncs[p](e, &work)
	if err != nil {
		log.Warn().Err(err).Msg("phase failed")
		return failed(fmt.Sprintf("phase %d (%s) failed: %v", int(p), p, err))
	}
	res.Phase = p
	log.Info().Str("status", string(res.Status)).Int("instructions", len(res.Instructions)).Msg("phase finished")
	return res
}

// complete builds the standard success result for p.
func complete(p Phase, s *State, msg string) PhaseResult {
	s.markComplete(p)
	res := PhaseResult{Phase: p, Status: StatusComplete, State: *s, Message: msg}
	if p < LastPhase {
		res.NextPhase = phasePtr(p + 1)
	}
	return res
}
