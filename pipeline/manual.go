package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ManualAdvance is an operator's request to move an application. An empty
// Target means "the next enabled stage", terminal stages included.
type ManualAdvance struct {
	Target  Stage
	Score   *float64
	Notes   *string
	ActorID string
}

// AdvanceManually moves the application where the operator asked, ignoring
// thresholds. Unlike CompleteStage it may land on hired or rejected.
func (e *Engine) AdvanceManually(state ApplicationState, req ManualAdvance, cfg *Config) (Outcome, error) {
	from := state.CurrentStage
	if !from.Valid() {
		return Outcome{}, &InvalidStageError{Stage: from, Reason: "application is in an unknown stage"}
	}
	if from.Terminal() {
		return Outcome{}, &InvalidStageError{Stage: from, Reason: "no transition leaves a terminal stage"}
	}
	if req.Score != nil && !validScore(*req.Score) {
		return Outcome{}, errors.Wrapf(ErrScoreOutOfRange, "manual advance score %v", *req.Score)
	}

	target := req.Target
	if target == "" {
		next, ok, err := NextEnabledStage(from, ResolveConfig(cfg))
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, &NoNextStageError{From: from}
		}
		target = next
	} else if !target.Valid() {
		return Outcome{}, &InvalidStageError{Stage: target, Reason: "unknown stage"}
	}
	if target == from {
		return Outcome{}, &InvalidStageError{Stage: target, Reason: "application is already in this stage"}
	}

	entry := HistoryEntry{
		From:         from,
		To:           target,
		Score:        copyFloat(req.Score),
		Notes:        trimmedNotes(req.Notes),
		AutoAdvanced: false,
		Timestamp:    e.now(),
	}
	if actor := strings.TrimSpace(req.ActorID); actor != "" {
		entry.AdvancedBy = &actor
	}

	newState, err := state.moveTo(entry)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Advanced:      true,
		PreviousStage: from,
		NewStage:      target,
		State:         newState,
		Reason:        ReasonManual,
	}, nil
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func trimmedNotes(n *string) *string {
	if n == nil {
		return nil
	}
	v := strings.TrimSpace(*n)
	if v == "" {
		return nil
	}
	return &v
}
