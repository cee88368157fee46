package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// ScoreKey names a per-stage score that can be weighted into the overall score.
type ScoreKey string

const (
	ScoreResume         ScoreKey = "resume"
	ScoreMCQ            ScoreKey = "mcq"
	ScoreAsyncInterview ScoreKey = "async_interview"
	ScoreLiveInterview  ScoreKey = "live_interview"
)

// scoreKeys is the fixed accumulation order used by the blender.
var scoreKeys = []ScoreKey{ScoreResume, ScoreMCQ, ScoreAsyncInterview, ScoreLiveInterview}

func (k ScoreKey) Valid() bool {
	for _, known := range scoreKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ScoreKeyFor returns the score recorded when stage s completes. Offer and
// the terminal stages carry no score of their own.
func ScoreKeyFor(s Stage) (ScoreKey, bool) {
	switch s {
	case StageResumeScreening:
		return ScoreResume, true
	case StageMCQTest:
		return ScoreMCQ, true
	case StageAsyncInterview:
		return ScoreAsyncInterview, true
	case StageLiveInterview:
		return ScoreLiveInterview, true
	}
	return "", false
}

// WeightSumEpsilon is the tolerance applied when checking that the supplied
// scoring weights add up to 1.0.
const WeightSumEpsilon = 0.01

// Default thresholds and weights used when a job has no configuration of its own.
const (
	DefaultResumeScreeningThreshold = 60.0
	DefaultMCQTestThreshold         = 60.0
	DefaultAsyncInterviewThreshold  = 50.0

	DefaultResumeWeight         = 0.4
	DefaultMCQWeight            = 0.3
	DefaultAsyncInterviewWeight = 0.2
	DefaultLiveInterviewWeight  = 0.1
)

// StageSettings is the per-stage policy. A nil Enabled means enabled; a nil
// AutoAdvanceThreshold means the stage never auto-advances.
type StageSettings struct {
	Enabled              *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	AutoAdvanceThreshold *float64 `json:"autoAdvanceThreshold,omitempty" yaml:"autoAdvanceThreshold,omitempty"`
}

// Config is a job's pipeline policy.
type Config struct {
	Stages         map[Stage]StageSettings `json:"stages" yaml:"stages"`
	ScoringWeights map[ScoreKey]float64    `json:"scoringWeights" yaml:"scoringWeights"`
}

// DefaultConfig returns a fresh copy of the system default policy.
func DefaultConfig() Config {
	return Config{
		Stages: map[Stage]StageSettings{
			StageResumeScreening: {Enabled: boolPtr(true), AutoAdvanceThreshold: floatPtr(DefaultResumeScreeningThreshold)},
			StageMCQTest:         {Enabled: boolPtr(true), AutoAdvanceThreshold: floatPtr(DefaultMCQTestThreshold)},
			StageAsyncInterview:  {Enabled: boolPtr(true), AutoAdvanceThreshold: floatPtr(DefaultAsyncInterviewThreshold)},
			StageLiveInterview:   {Enabled: boolPtr(true)},
			StageOffer:           {Enabled: boolPtr(true)},
		},
		ScoringWeights: map[ScoreKey]float64{
			ScoreResume:         DefaultResumeWeight,
			ScoreMCQ:            DefaultMCQWeight,
			ScoreAsyncInterview: DefaultAsyncInterviewWeight,
			ScoreLiveInterview:  DefaultLiveInterviewWeight,
		},
	}
}

// ResolveConfig returns the job's stored configuration when it carries
// anything, and the default policy otherwise.
func ResolveConfig(jobConfig *Config) Config {
	if jobConfig == nil || jobConfig.IsEmpty() {
		return DefaultConfig()
	}
	return *jobConfig
}

func (c Config) IsEmpty() bool {
	return len(c.Stages) == 0 && len(c.ScoringWeights) == 0
}

// StageEnabled reports whether s takes part in the pipeline. Stages missing
// from the configuration are enabled.
func (c Config) StageEnabled(s Stage) bool {
	settings, ok := c.Stages[s]
	if !ok || settings.Enabled == nil {
		return true
	}
	return *settings.Enabled
}

// Threshold returns the auto-advance threshold for s, if one is configured.
func (c Config) Threshold(s Stage) (float64, bool) {
	settings, ok := c.Stages[s]
	if !ok || settings.AutoAdvanceThreshold == nil {
		return 0, false
	}
	return *settings.AutoAdvanceThreshold, true
}

// Clone returns a deep copy so callers can mutate the result freely.
func (c Config) Clone() Config {
	out := Config{}
	if c.Stages != nil {
		out.Stages = make(map[Stage]StageSettings, len(c.Stages))
		for k, v := range c.Stages {
			cp := StageSettings{}
			if v.Enabled != nil {
				cp.Enabled = boolPtr(*v.Enabled)
			}
			if v.AutoAdvanceThreshold != nil {
				cp.AutoAdvanceThreshold = floatPtr(*v.AutoAdvanceThreshold)
			}
			out.Stages[k] = cp
		}
	}
	if c.ScoringWeights != nil {
		out.ScoringWeights = make(map[ScoreKey]float64, len(c.ScoringWeights))
		for k, v := range c.ScoringWeights {
			out.ScoringWeights[k] = v
		}
	}
	return out
}

// Validate checks a configuration before it is persisted. It is never called
// on read. All problems are collected into a single ConfigurationError.
func Validate(c Config) error {
	var problems []string

	stages := make([]string, 0, len(c.Stages))
	for s := range c.Stages {
		stages = append(stages, string(s))
	}
	sort.Strings(stages)
	for _, raw := range stages {
		s := Stage(raw)
		settings := c.Stages[s]
		if !s.Valid() {
			problems = append(problems, fmt.Sprintf("unknown stage %q", raw))
			continue
		}
		if settings.AutoAdvanceThreshold == nil {
			continue
		}
		if s.Terminal() {
			problems = append(problems, fmt.Sprintf("terminal stage %q cannot carry an auto-advance threshold", raw))
			continue
		}
		t := *settings.AutoAdvanceThreshold
		if math.IsNaN(t) || t < 0 || t > 100 {
			problems = append(problems, fmt.Sprintf("threshold for %q must be within [0,100], got %v", raw, t))
		}
	}

	keys := make([]string, 0, len(c.ScoringWeights))
	for k := range c.ScoringWeights {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	sum := 0.0
	weightsOK := true
	for _, raw := range keys {
		k := ScoreKey(raw)
		w := c.ScoringWeights[k]
		if !k.Valid() {
			problems = append(problems, fmt.Sprintf("unknown scoring weight %q", raw))
			weightsOK = false
			continue
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			problems = append(problems, fmt.Sprintf("weight for %q must be a non-negative number, got %v", raw, w))
			weightsOK = false
			continue
		}
		sum += w
	}
	if len(c.ScoringWeights) == 0 {
		problems = append(problems, "at least one scoring weight is required")
	} else if weightsOK && math.Abs(sum-1.0) > WeightSumEpsilon {
		problems = append(problems, fmt.Sprintf("scoring weights must sum to 1.0, got %.4f", sum))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.WithHint(&ConfigurationError{Problems: problems},
		"fix every listed problem and resubmit the whole configuration")
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
