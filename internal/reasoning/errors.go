package reasoning

import (
	"fmt"
	"strings"
	"time"
)

// #region validation-error

// ValidationError means a step referenced dependencies that have not run yet.
type ValidationError struct {
	StepID  string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: unresolved dependencies [%s]", e.StepID, strings.Join(e.Missing, ", "))
}

// #endregion validation-error

// #region timeout-error

// TimeoutError means the session ran past its configured time budget.
type TimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reasoning timed out after %s (limit %s)", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// #endregion timeout-error

// #region reflection-abort-error

// ReflectionAbortError means self-reflection recommended stopping.
type ReflectionAbortError struct {
	Session ReflectionSession
	Issues  []string
}

func (e *ReflectionAbortError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("reflection stopped the chain (score %.2f)", e.Session.OverallScore)
	}
	return fmt.Sprintf("reflection stopped the chain (score %.2f): %s", e.Session.OverallScore, strings.Join(e.Issues, "; "))
}

// #endregion reflection-abort-error

// #region configuration-error

// ConfigurationError reports an out-of-range configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// #endregion configuration-error
