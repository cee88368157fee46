package pipeline

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "weights over one",
			cfg:     Config{ScoringWeights: map[ScoreKey]float64{ScoreResume: 0.5, ScoreMCQ: 0.6}},
			wantErr: "must sum to 1.0",
		},
		{
			name:    "weights under one",
			cfg:     Config{ScoringWeights: map[ScoreKey]float64{ScoreResume: 0.5, ScoreMCQ: 0.3}},
			wantErr: "must sum to 1.0",
		},
		{
			name: "weights within epsilon",
			cfg:  Config{ScoringWeights: map[ScoreKey]float64{ScoreResume: 0.505, ScoreMCQ: 0.5}},
		},
		{
			name:    "no weights",
			cfg:     Config{Stages: map[Stage]StageSettings{StageOffer: {}}},
			wantErr: "at least one scoring weight",
		},
		{
			name:    "unknown weight key",
			cfg:     Config{ScoringWeights: map[ScoreKey]float64{ScoreResume: 0.5, "culture": 0.5}},
			wantErr: `unknown scoring weight "culture"`,
		},
		{
			name:    "negative weight",
			cfg:     Config{ScoringWeights: map[ScoreKey]float64{ScoreResume: 1.5, ScoreMCQ: -0.5}},
			wantErr: "non-negative",
		},
		{
			name: "unknown stage key",
			cfg: Config{
				Stages:         map[Stage]StageSettings{"phone_screen": {}},
				ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
			},
			wantErr: `unknown stage "phone_screen"`,
		},
		{
			name: "threshold above range",
			cfg: Config{
				Stages:         map[Stage]StageSettings{StageMCQTest: {AutoAdvanceThreshold: floatPtr(101)}},
				ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
			},
			wantErr: "within [0,100]",
		},
		{
			name: "threshold below range",
			cfg: Config{
				Stages:         map[Stage]StageSettings{StageMCQTest: {AutoAdvanceThreshold: floatPtr(-1)}},
				ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
			},
			wantErr: "within [0,100]",
		},
		{
			name: "threshold on terminal stage",
			cfg: Config{
				Stages:         map[Stage]StageSettings{StageHired: {AutoAdvanceThreshold: floatPtr(90)}},
				ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
			},
			wantErr: "terminal stage",
		},
		{
			name: "boundary thresholds",
			cfg: Config{
				Stages: map[Stage]StageSettings{
					StageResumeScreening: {AutoAdvanceThreshold: floatPtr(0)},
					StageMCQTest:         {AutoAdvanceThreshold: floatPtr(100)},
				},
				ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{
		Stages: map[Stage]StageSettings{
			"phone_screen": {},
			StageMCQTest:   {AutoAdvanceThreshold: floatPtr(150)},
		},
		ScoringWeights: map[ScoreKey]float64{ScoreResume: 0.2},
	}

	err := Validate(cfg)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 3)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestResolveConfig(t *testing.T) {
	t.Run("nil falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), ResolveConfig(nil))
	})

	t.Run("empty falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), ResolveConfig(&Config{}))
	})

	t.Run("stored config returned verbatim", func(t *testing.T) {
		stored := Config{
			Stages:         map[Stage]StageSettings{StageMCQTest: {Enabled: boolPtr(false)}},
			ScoringWeights: map[ScoreKey]float64{ScoreResume: 1},
		}
		assert.Equal(t, stored, ResolveConfig(&stored))
	})
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	for _, s := range []Stage{StageResumeScreening, StageMCQTest, StageAsyncInterview, StageLiveInterview, StageOffer} {
		assert.True(t, cfg.StageEnabled(s), s)
	}

	th, ok := cfg.Threshold(StageResumeScreening)
	require.True(t, ok)
	assert.Equal(t, 60.0, th)
	th, ok = cfg.Threshold(StageMCQTest)
	require.True(t, ok)
	assert.Equal(t, 60.0, th)
	th, ok = cfg.Threshold(StageAsyncInterview)
	require.True(t, ok)
	assert.Equal(t, 50.0, th)
	_, ok = cfg.Threshold(StageLiveInterview)
	assert.False(t, ok)
	_, ok = cfg.Threshold(StageOffer)
	assert.False(t, ok)

	assert.Equal(t, map[ScoreKey]float64{
		ScoreResume:         0.4,
		ScoreMCQ:            0.3,
		ScoreAsyncInterview: 0.2,
		ScoreLiveInterview:  0.1,
	}, cfg.ScoringWeights)
}

func TestDefaultConfig_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultConfig()
	a.Stages[StageMCQTest] = StageSettings{Enabled: boolPtr(false)}
	a.ScoringWeights[ScoreResume] = 0.9

	b := DefaultConfig()
	assert.True(t, b.StageEnabled(StageMCQTest))
	assert.Equal(t, 0.4, b.ScoringWeights[ScoreResume])
}

func TestConfigClone(t *testing.T) {
	orig := DefaultConfig()
	cp := orig.Clone()
	*cp.Stages[StageMCQTest].AutoAdvanceThreshold = 99
	cp.ScoringWeights[ScoreMCQ] = 0

	th, _ := orig.Threshold(StageMCQTest)
	assert.Equal(t, 60.0, th)
	assert.Equal(t, 0.3, orig.ScoringWeights[ScoreMCQ])
}
