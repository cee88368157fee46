package pipeline

import "time"

// Reason explains the result of a stage decision. Values are stable and
// safe to match on.
type Reason string

const (
	ReasonAdvanced        Reason = "advanced"
	ReasonManual          Reason = "manual advance"
	ReasonNotConfigured   Reason = "auto-advance not configured for this stage"
	ReasonBelowThreshold  Reason = "score below threshold"
	ReasonTerminalNext    Reason = "next stage is terminal; requires manual decision"
	ReasonAlreadyAdvanced Reason = "already advanced"
	ReasonStageNotReached Reason = "stage not reached"
	ReasonScoreOutOfRange Reason = "score out of range"
)

// Outcome is what a stage decision hands back to the orchestrator. NewStage
// is empty unless Advanced is true. State is always a copy; when nothing
// advanced it equals the input.
type Outcome struct {
	Advanced      bool
	PreviousStage Stage
	NewStage      Stage
	State         ApplicationState
	Reason        Reason
}

// Engine makes stage transition decisions. It holds no state besides the
// clock used to stamp history entries and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompleteStage decides whether finishing stage with score moves the
// application forward. It never lands on hired or rejected: those always
// need a human. Only an unknown stage is an error; every other refusal is
// a soft outcome with a Reason.
//
// Recording the score itself on the application is the caller's job.
func (e *Engine) CompleteStage(state ApplicationState, stage Stage, score float64, cfg *Config) (Outcome, error) {
	if !stage.Valid() {
		return Outcome{}, &InvalidStageError{Stage: stage, Reason: "unknown stage"}
	}
	if !state.CurrentStage.Valid() {
		return Outcome{}, &InvalidStageError{Stage: state.CurrentStage, Reason: "application is in an unknown stage"}
	}

	hold := func(r Reason) (Outcome, error) {
		return Outcome{PreviousStage: state.CurrentStage, State: state.clone(), Reason: r}, nil
	}

	switch {
	case state.CurrentStage.Terminal(), stage.Before(state.CurrentStage):
		return hold(ReasonAlreadyAdvanced)
	case state.CurrentStage.Before(stage):
		return hold(ReasonStageNotReached)
	}
	if !validScore(score) {
		return hold(ReasonScoreOutOfRange)
	}

	resolved := ResolveConfig(cfg)
	threshold, ok := resolved.Threshold(stage)
	if !ok {
		return hold(ReasonNotConfigured)
	}
	if score < threshold {
		return hold(ReasonBelowThreshold)
	}

	next, found, err := NextEnabledStage(stage, resolved)
	if err != nil {
		return Outcome{}, err
	}
	if !found || next.Terminal() {
		return hold(ReasonTerminalNext)
	}

	s := score
	newState, err := state.moveTo(HistoryEntry{
		From:         stage,
		To:           next,
		Score:        &s,
		AutoAdvanced: true,
		Timestamp:    e.now(),
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Advanced:      true,
		PreviousStage: stage,
		NewStage:      next,
		State:         newState,
		Reason:        ReasonAdvanced,
	}, nil
}
