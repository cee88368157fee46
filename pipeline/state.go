package pipeline

import "time"

// Scores holds the per-stage scores of one application. A nil field means
// the stage has not been scored yet.
type Scores struct {
	Resume         *float64 `json:"resume"`
	MCQ            *float64 `json:"mcq"`
	AsyncInterview *float64 `json:"async_interview"`
	LiveInterview  *float64 `json:"live_interview"`
}

// Get returns the score stored under k.
func (s Scores) Get(k ScoreKey) *float64 {
	switch k {
	case ScoreResume:
		return s.Resume
	case ScoreMCQ:
		return s.MCQ
	case ScoreAsyncInterview:
		return s.AsyncInterview
	case ScoreLiveInterview:
		return s.LiveInterview
	}
	return nil
}

// With returns a copy of s with k set to v.
func (s Scores) With(k ScoreKey, v float64) Scores {
	switch k {
	case ScoreResume:
		s.Resume = &v
	case ScoreMCQ:
		s.MCQ = &v
	case ScoreAsyncInterview:
		s.AsyncInterview = &v
	case ScoreLiveInterview:
		s.LiveInterview = &v
	}
	return s
}

// HistoryEntry records one transition. Entries are appended, never edited.
type HistoryEntry struct {
	From         Stage     `json:"from"`
	To           Stage     `json:"to"`
	Score        *float64  `json:"score"`
	Notes        *string   `json:"notes"`
	AutoAdvanced bool      `json:"autoAdvanced"`
	Timestamp    time.Time `json:"timestamp"`
	AdvancedBy   *string   `json:"advancedBy"`
}

// ApplicationState is the pipeline view of one application.
type ApplicationState struct {
	CurrentStage Stage
	Status       Status
	History      []HistoryEntry
	Scores       Scores
	OverallScore int
}

// NewApplicationState is the state of a freshly submitted application.
func NewApplicationState() ApplicationState {
	return ApplicationState{
		CurrentStage: StageResumeScreening,
		Status:       StatusScreening,
	}
}

// clone copies the state so appends never write into the caller's backing array.
func (s ApplicationState) clone() ApplicationState {
	out := s
	out.History = make([]HistoryEntry, len(s.History), len(s.History)+1)
	copy(out.History, s.History)
	return out
}

// moveTo returns a copy of s with entry appended and the stage and status
// updated to entry.To.
func (s ApplicationState) moveTo(entry HistoryEntry) (ApplicationState, error) {
	status, err := StatusFor(entry.To)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.History = append(next.History, entry)
	next.CurrentStage = entry.To
	next.Status = status
	return next, nil
}
