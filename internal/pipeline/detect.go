package pipeline

import (
	"regexp"

	"github.com/waabox/vibedeck/internal/domain"
)

type detectionRule struct {
	stage   domain.StageID
	pattern *regexp.Regexp
}

// Evaluated in order, first match wins.
var detectionRules = []detectionRule{
	{domain.StageTesting, regexp.MustCompile(`(?i)preflight|lint\b|typecheck|running tests|smoke`)},
	{domain.StageValidating, regexp.MustCompile(`(?i)validat|sanitiz|applying diff|pre-apply`)},
	{domain.StageBuilding, regexp.MustCompile(`(?i)generating|llm|openai|anthropic|claude|ollama|vllm|diff generation|calling.*model`)},
	{domain.StagePlanning, regexp.MustCompile(`(?i)context|scanning|building context|ripgrep`)},
	{domain.StageComplete, regexp.MustCompile(`(?i)pull request|creating pr|pr created`)},
}

// DetectStage guesses the pipeline stage a log message belongs to.
// It is a best-effort heuristic for backends that do not report an explicit
// status; ok is false when no rule matches.
func DetectStage(message string) (stage domain.StageID, ok bool) {
	for _, r := range detectionRules {
		if r.pattern.MatchString(message) {
			return r.stage, true
		}
	}
	return "", false
}

// MapExecutionState maps a backend execution state onto a pipeline stage.
// ok is false for states without a stage, including failed.
func MapExecutionState(state domain.ExecutionState) (stage domain.StageID, ok bool) {
	switch state {
	case domain.ExecQueued:
		return domain.StageQueued, true
	case domain.ExecRunning:
		return domain.StagePlanning, true
	case domain.ExecValidating:
		return domain.StageValidating, true
	case domain.ExecPreflight:
		return domain.StageTesting, true
	case domain.ExecPR, domain.ExecCompleted:
		return domain.StageComplete, true
	}
	return "", false
}
