// Package workflow implements the five-phase rule workflow.
//
// Analysis → Recommendation → Workspace Preparation → Rule Creation →
// Deployment. Every phase is a transformation of a State value and is only
// reachable through Engine.Run, which handles completion and prerequisite
// gating uniformly. Phases never touch storage: they return instructions
// for the caller's executor.
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/rulewright/internal/instructions"
	"github.com/HendryAvila/rulewright/internal/rules"
)

// --- Phase enum ---

// Phase is a workflow step, numbered from 1.
type Phase int

const (
	PhaseAnalysis Phase = iota + 1
	PhaseRecommendation
	PhaseWorkspacePrep
	PhaseRuleCreation
	PhaseDeployment
)

// LastPhase is the final workflow step.
const LastPhase = PhaseDeployment

var phaseNames = map[Phase]string{
	PhaseAnalysis:       "analysis",
	PhaseRecommendation: "recommendation",
	PhaseWorkspacePrep:  "workspace preparation",
	PhaseRuleCreation:   "rule creation",
	PhaseDeployment:     "deployment",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase %d", int(p))
}

// Valid reports whether p names one of the five phases.
func (p Phase) Valid() bool {
	return p >= PhaseAnalysis && p <= LastPhase
}

// --- Status enum ---

// Status is the outcome of one Run call.
type Status string

const (
	StatusComplete           Status = "complete"
	StatusAlreadyComplete    Status = "already_complete"
	StatusPrerequisiteNotMet Status = "prerequisite_not_met"
	StatusError              Status = "error"
	StatusPartial            Status = "partial"
)

// --- State ---

// RepositoryInfo is what the caller tells the workflow about the repo.
type RepositoryInfo struct {
	Description   string   `json:"description"`
	MainLanguages []string `json:"main_languages"`
	FilePatterns  []string `json:"file_patterns"`
	KeyFeatures   []string `json:"key_features"`
	RepoRoot      string   `json:"repo_root,omitempty"`
}

// AnalysisResults is produced by phase 1.
type AnalysisResults struct {
	RepositoryType   string   `json:"repository_type"`
	CommonPatterns   []string `json:"common_patterns"`
	RecommendedRules []string `json:"recommended_rules"`
}

// RecommendedRule is produced by phase 2.
type RecommendedRule struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category,omitempty"`
	Priority     rules.Priority `json:"priority"`
	Dependencies []string       `json:"dependencies"`
}

// FileMapping ties a rule to its draft and deployed files. Produced by
// phase 3.
type FileMapping struct {
	RuleName     string `json:"rule_name"`
	FileName     string `json:"file_name"`
	DraftPath    string `json:"draft_path"`
	DeployedPath string `json:"deployed_path"`
}

// RuleStatus records a created or deployed rule.
type RuleStatus struct {
	RuleName string `json:"rule_name"`
	Status   string `json:"status"`
	Path     string `json:"path,omitempty"`
}

// CreationError records a rule phase 4 could not generate.
type CreationError struct {
	RuleName string `json:"rule_name"`
	Error    string `json:"error"`
}

// State is the value threaded through every call. It holds only plain
// values so it can be persisted and resumed between any two calls.
type State struct {
	SessionID            string              `json:"session_id,omitempty"`
	RepositoryInfo       RepositoryInfo      `json:"repository_info"`
	WorkspaceInitialized bool                `json:"workspace_initialized"`
	AnalysisResults      *AnalysisResults    `json:"analysis_results,omitempty"`
	RecommendedRules     []RecommendedRule   `json:"recommended_rules"`
	CategorizedRules     map[string][]string `json:"categorized_rules,omitempty"`
	RuleFileMapping      []FileMapping       `json:"rule_file_mapping,omitempty"`
	CreatedRules         []RuleStatus        `json:"created_rules"`
	DeployedRules        []RuleStatus        `json:"deployed_rules"`
	CreationErrors       []CreationError     `json:"creation_errors,omitempty"`

	Phase1Complete bool `json:"phase_1_complete"`
	Phase2Complete bool `json:"phase_2_complete"`
	Phase3Complete bool `json:"phase_3_complete"`
	Phase4Complete bool `json:"phase_4_complete"`
	Phase5Complete bool `json:"phase_5_complete"`

	UpdatedAt string `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of s.
func (s State) Clone() (State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("copying workflow state: %w", err)
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return State{}, fmt.Errorf("copying workflow state: %w", err)
	}
	return out, nil
}

// Complete reports whether phase p has completed.
func (s *State) Complete(p Phase) bool {
	if f := s.flag(p); f != nil {
		return *f
	}
	return false
}

func (s *State) markComplete(p Phase) {
	if f := s.flag(p); f != nil {
		*f = true
	}
	s.UpdatedAt = timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
}

func (s *State) flag(p Phase) *bool {
	switch p {
	case PhaseAnalysis:
		return &s.Phase1Complete
	case PhaseRecommendation:
		return &s.Phase2Complete
	case PhaseWorkspacePrep:
		return &s.Phase3Complete
	case PhaseRuleCreation:
		return &s.Phase4Complete
	case PhaseDeployment:
		return &s.Phase5Complete
	}
	return nil
}

// NextPhase is the first phase not yet complete, or 0 when all are.
func (s *State) NextPhase() Phase {
	for p := PhaseAnalysis; p <= LastPhase; p++ {
		if !s.Complete(p) {
			return p
		}
	}
	return 0
}

// --- Result ---

// PhaseResult is returned by every Run call.
type PhaseResult struct {
	Phase        Phase                      `json:"phase"`
	Status       Status                     `json:"status"`
	State        State                      `json:"state"`
	NextPhase    *Phase                     `json:"next_phase"`
	Instructions []instructions.Instruction `json:"instructions,omitempty"`
	Message      string                     `json:"message"`
	NextSteps    []string                   `json:"next_steps,omitempty"`
}

func phasePtr(p Phase) *Phase { return &p }
