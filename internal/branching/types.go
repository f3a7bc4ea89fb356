package branching

import "github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"

// #region config

// Config holds the branching knobs.
type Config struct {
	MaxActiveBranches        int
	EvaluationInterval       int  // evaluate only on every Nth call
	EnablePriority           bool // evaluate higher priority first
	EnableConflictResolution bool // one winner per pass
	EnableDynamicGeneration  bool
	DynamicComplexityTrigger float64 // complexity above this synthesises a branch
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxActiveBranches:        3,
		EvaluationInterval:       1,
		EnablePriority:           true,
		EnableConflictResolution: true,
		EnableDynamicGeneration:  false,
		DynamicComplexityTrigger: 0.8,
	}
}

// #endregion config

// #region activation

// Activation records one activation or deactivation of a branch.
type Activation struct {
	BranchID  string
	Pass      int
	Priority  int
	Activated bool
	Reason    string
	StepIDs   []string
}

// #endregion activation

// #region result

// Result is the outcome of one evaluation pass.
type Result struct {
	Skipped     bool
	Pass        int
	Activated   []Activation // branches left active by this pass
	Deactivated []Activation // conditions lapsed or lost conflict resolution
	Generated   []string     // ids of branches synthesised this pass
	Steps       []reasoning.Step
}

// #endregion result
