package eligibility

import (
	"fmt"

	"lending-workers/internal/common/logger"
)

type Stage int

const (
	StageCollecting Stage = iota
	StageAssessing
	StagePerLenderEvaluation
	StageAssembling
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCollecting:
		return "collecting"
	case StageAssessing:
		return "assessing"
	case StagePerLenderEvaluation:
		return "per_lender_evaluation"
	case StageAssembling:
		return "assembling"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// stageMachine tracks one evaluation. Stages only move forward one step at a
// time; anything else is a bug in the engine.
type stageMachine struct {
	current Stage
	log     logger.Logger
}

func newStageMachine(log logger.Logger) *stageMachine {
	return &stageMachine{current: StageCollecting, log: log}
}

func (m *stageMachine) advance(next Stage) {
	if next != m.current+1 {
		panic(fmt.Sprintf("eligibility: illegal stage transition %s -> %s", m.current, next))
	}
	m.log.Debug("Stage transition", map[string]interface{}{
		"from": m.current.String(),
		"to":   next.String(),
	})
	m.current = next
}
