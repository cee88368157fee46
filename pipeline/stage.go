package pipeline

// Stage is one step of the candidate evaluation sequence.
type Stage string

const (
	StageResumeScreening Stage = "resume_screening"
	StageMCQTest         Stage = "mcq_test"
	StageAsyncInterview  Stage = "async_interview"
	StageLiveInterview   Stage = "live_interview"
	StageOffer           Stage = "offer"
	StageHired           Stage = "hired"
	StageRejected        Stage = "rejected"
)

// stageOrder is the fixed total order. Terminal stages come last.
var stageOrder = []Stage{
	StageResumeScreening,
	StageMCQTest,
	StageAsyncInterview,
	StageLiveInterview,
	StageOffer,
	StageHired,
	StageRejected,
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Index returns the position of s in the fixed order, or -1 for unknown values.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

// Terminal reports whether no stage follows s.
func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected
}

// Before reports whether s comes strictly before other in the fixed order.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

// ParseStage converts raw input (HTTP body, queue message) into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", &InvalidStageError{Stage: s, Reason: "unknown stage"}
	}
	return s, nil
}

// Status is the display label derived from the current stage.
type Status string

const (
	StatusScreening    Status = "screening"
	StatusTesting      Status = "testing"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusHired        Status = "hired"
	StatusRejected     Status = "rejected"
)

var statusByStage = map[Stage]Status{
	StageResumeScreening: StatusScreening,
	StageMCQTest:         StatusTesting,
	StageAsyncInterview:  StatusInterviewing,
	StageLiveInterview:   StatusInterviewing,
	StageOffer:           StatusOffered,
	StageHired:           StatusHired,
	StageRejected:        StatusRejected,
}

// StatusFor maps a stage to its status label.
func StatusFor(s Stage) (Status, error) {
	st, ok := statusByStage[s]
	if !ok {
		return "", &InvalidStageError{Stage: s, Reason: "unknown stage"}
	}
	return st, nil
}

// NextEnabledStage walks the fixed order strictly after current and returns
// the first stage that is not explicitly disabled. Terminal stages are
// returned as soon as they are reached, whatever their enabled flag says.
// ok is false when current is terminal or nothing follows it.
func NextEnabledStage(current Stage, cfg Config) (next Stage, ok bool, err error) {
	idx := current.Index()
	if idx < 0 {
		return "", false, &InvalidStageError{Stage: current, Reason: "unknown stage"}
	}
	if current.Terminal() {
		return "", false, nil
	}
	for _, s := range stageOrder[idx+1:] {
		if s.Terminal() || cfg.StageEnabled(s) {
			return s, true, nil
		}
	}
	return "", false, nil
}
