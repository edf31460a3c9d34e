package workflow

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/rulewright/internal/instructions"
)

// deployment is phase 5: run the build task that copies drafts into the
// deploy directory and record every created rule as deployed.
func (e *Engine) deployment(s *State) (PhaseResult, error) {
	if len(s.CreatedRules) == 0 {
		return PhaseResult{}, errors.New("no created rules to deploy")
	}

	inst, err := instructions.RunTask(e.cfg.DeployDir, e.cfg.TaskName)
	if err != nil {
		return PhaseResult{}, err
	}

	deployedPath := map[string]string{}
	for _, m := range s.RuleFileMapping {
		deployedPath[m.RuleName] = m.DeployedPath
	}
	deployed := make([]RuleStatus, 0, len(s.CreatedRules))
	for _, c := range s.CreatedRules {
		deployed = append(deployed, RuleStatus{RuleName: c.RuleName, Status: "deployed", Path: deployedPath[c.RuleName]})
	}
	s.DeployedRules = deployed

	res := complete(PhaseDeployment, s, fmt.Sprintf("Deploying %d rules to %s.", len(deployed), e.cfg.DeployDir))
	res.Instructions = []instructions.Instruction{inst}
	res.NextSteps = []string{
		"Execute the operations to run the " + e.cfg.TaskName + " task.",
		"Check that the task exited with status 0; the workflow is then done.",
	}
	return res, nil
}
