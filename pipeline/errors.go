package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// ConfigurationError rejects a pipeline configuration write. Problems lists
// every check that failed so the caller can fix them in one round trip.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid pipeline configuration: " + strings.Join(e.Problems, "; ")
}

// InvalidStageError reports an unrecognized stage or an illegal transition.
type InvalidStageError struct {
	Stage  Stage
	Reason string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid stage %q: %s", string(e.Stage), e.Reason)
}

// NoNextStageError is returned when a manual advance has no target and
// nothing follows the current stage.
type NoNextStageError struct {
	From Stage
}

func (e *NoNextStageError) Error() string {
	return fmt.Sprintf("no stage follows %q", string(e.From))
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsInvalidStage(err error) bool {
	var target *InvalidStageError
	return errors.As(err, &target)
}

func IsNoNextStage(err error) bool {
	var target *NoNextStageError
	return errors.As(err, &target)
}

// ErrScoreOutOfRange rejects a score outside [0,100] on paths that report errors.
var ErrScoreOutOfRange = errors.New("score must be within [0,100]")

func validScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0 && score <= 100
}
