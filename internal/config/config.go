// Package config holds the reasoning session configuration record.
//
// Values come from Default(), optionally overlaid by a YAML or TOML file and
// then by environment variables. Validate rejects out-of-range values before
// any session is constructed.
package config

import (
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region config

// Config is the full set of recognised session options.
type Config struct {
	MaxSteps                   int  `json:"max_steps" yaml:"max_steps" toml:"max_steps"`
	EnableSelfReflection       bool `json:"enable_self_reflection" yaml:"enable_self_reflection" toml:"enable_self_reflection"`
	EnableConditionalBranching bool `json:"enable_conditional_branching" yaml:"enable_conditional_branching" toml:"enable_conditional_branching"`
	EnableDynamicComplexity    bool `json:"enable_dynamic_complexity" yaml:"enable_dynamic_complexity" toml:"enable_dynamic_complexity"`

	ReflectionInterval  int     `json:"reflection_interval" yaml:"reflection_interval" toml:"reflection_interval"`
	QualityThreshold    float64 `json:"quality_threshold" yaml:"quality_threshold" toml:"quality_threshold"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold" toml:"confidence_threshold"`
	AdjustmentThreshold float64 `json:"adjustment_threshold" yaml:"adjustment_threshold" toml:"adjustment_threshold"`
	StabilizationPeriod int     `json:"stabilization_period" yaml:"stabilization_period" toml:"stabilization_period"`
	TimeoutMs           int64   `json:"timeout_ms" yaml:"timeout_ms" toml:"timeout_ms"`

	MaxActiveBranches              int  `json:"max_active_branches" yaml:"max_active_branches" toml:"max_active_branches"`
	BranchEvaluationInterval       int  `json:"branch_evaluation_interval" yaml:"branch_evaluation_interval" toml:"branch_evaluation_interval"`
	EnableBranchPriority           bool `json:"enable_branch_priority" yaml:"enable_branch_priority" toml:"enable_branch_priority"`
	EnableBranchConflictResolution bool `json:"enable_branch_conflict_resolution" yaml:"enable_branch_conflict_resolution" toml:"enable_branch_conflict_resolution"`
	EnableDynamicBranchGeneration  bool `json:"enable_dynamic_branch_generation" yaml:"enable_dynamic_branch_generation" toml:"enable_dynamic_branch_generation"`

	MaxReflectionHistory         int  `json:"max_reflection_history" yaml:"max_reflection_history" toml:"max_reflection_history"`
	EnableLearningFromReflection bool `json:"enable_learning_from_reflection" yaml:"enable_learning_from_reflection" toml:"enable_learning_from_reflection"`
	EnablePredictiveAdjustment   bool `json:"enable_predictive_adjustment" yaml:"enable_predictive_adjustment" toml:"enable_predictive_adjustment"`
	EnableMetacognition          bool `json:"enable_metacognition" yaml:"enable_metacognition" toml:"enable_metacognition"`
	EnableContinuousReflection   bool `json:"enable_continuous_reflection" yaml:"enable_continuous_reflection" toml:"enable_continuous_reflection"`

	// Recommendation cutoffs; tunable rather than fixed.
	RestartScore          float64 `json:"restart_score" yaml:"restart_score" toml:"restart_score"`
	MaxHighImpactInsights int     `json:"max_high_impact_insights" yaml:"max_high_impact_insights" toml:"max_high_impact_insights"`

	// Aliases accepted from files: reflection_threshold → QualityThreshold,
	// complexity_threshold → AdjustmentThreshold.
	ReflectionThreshold *float64 `json:"reflection_threshold,omitempty" yaml:"reflection_threshold,omitempty" toml:"reflection_threshold,omitempty"`
	ComplexityThreshold *float64 `json:"complexity_threshold,omitempty" yaml:"complexity_threshold,omitempty" toml:"complexity_threshold,omitempty"`

	Generator GeneratorConfig `json:"generator" yaml:"generator" toml:"generator"`
	Store     StoreConfig     `json:"store" yaml:"store" toml:"store"`
}

// GeneratorConfig selects the step-content generator used by the CLI.
type GeneratorConfig struct {
	Provider string `json:"provider" yaml:"provider" toml:"provider"` // echo | grpc | anthropic | openai | google
	Model    string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
	APIKey   string `json:"-" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
}

// StoreConfig points at the optional SQLite history store.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// #endregion config

// #region defaults

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		MaxSteps:                       20,
		EnableSelfReflection:           true,
		EnableConditionalBranching:     true,
		EnableDynamicComplexity:        true,
		ReflectionInterval:             3,
		QualityThreshold:               0.7,
		ConfidenceThreshold:            0.6,
		AdjustmentThreshold:            0.15,
		StabilizationPeriod:            2,
		TimeoutMs:                      300000,
		MaxActiveBranches:              3,
		BranchEvaluationInterval:       1,
		EnableBranchPriority:           true,
		EnableBranchConflictResolution: true,
		EnableDynamicBranchGeneration:  false,
		MaxReflectionHistory:           50,
		EnableLearningFromReflection:   true,
		EnablePredictiveAdjustment:     false,
		EnableMetacognition:            true,
		EnableContinuousReflection:     false,
		RestartScore:                   0.5,
		MaxHighImpactInsights:          2,
		Generator:                      GeneratorConfig{Provider: "echo"},
	}
}

// #endregion defaults

// #region validate

// Validate folds aliases into their canonical fields and rejects
// out-of-range values with a *reasoning.ConfigurationError.
func (c *Config) Validate() error {
	if c.ReflectionThreshold != nil {
		c.QualityThreshold = *c.ReflectionThreshold
		c.ReflectionThreshold = nil
	}
	if c.ComplexityThreshold != nil {
		c.AdjustmentThreshold = *c.ComplexityThreshold
		c.ComplexityThreshold = nil
	}

	positive := []struct {
		name string
		v    int
	}{
		{"max_steps", c.MaxSteps},
		{"reflection_interval", c.ReflectionInterval},
		{"max_active_branches", c.MaxActiveBranches},
		{"branch_evaluation_interval", c.BranchEvaluationInterval},
		{"max_reflection_history", c.MaxReflectionHistory},
	}
	for _, p := range positive {
		if p.v < 1 {
			return &reasoning.ConfigurationError{Field: p.name, Reason: "must be at least 1"}
		}
	}
	if c.StabilizationPeriod < 0 {
		return &reasoning.ConfigurationError{Field: "stabilization_period", Reason: "must not be negative"}
	}
	if c.MaxHighImpactInsights < 0 {
		return &reasoning.ConfigurationError{Field: "max_high_impact_insights", Reason: "must not be negative"}
	}
	if c.TimeoutMs <= 0 {
		return &reasoning.ConfigurationError{Field: "timeout_ms", Reason: "must be positive"}
	}

	unit := []struct {
		name string
		v    float64
	}{
		{"quality_threshold", c.QualityThreshold},
		{"confidence_threshold", c.ConfidenceThreshold},
		{"adjustment_threshold", c.AdjustmentThreshold},
		{"restart_score", c.RestartScore},
	}
	for _, u := range unit {
		if u.v < 0 || u.v > 1 {
			return &reasoning.ConfigurationError{Field: u.name, Reason: "must be within [0,1]"}
		}
	}
	if c.RestartScore > c.QualityThreshold {
		return &reasoning.ConfigurationError{Field: "restart_score", Reason: "must not exceed quality_threshold"}
	}

	switch c.Generator.Provider {
	case "", "echo", "grpc", "anthropic", "openai", "google":
	default:
		return &reasoning.ConfigurationError{Field: "generator.provider", Reason: "unknown provider " + c.Generator.Provider}
	}
	return nil
}

// #endregion validate
