package reasoning

// #region operator

// Operator compares a context-derived value against a target.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
)

// Logic combines the conditions of one branch.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
	LogicNot Logic = "not" // none of the conditions hold
)

// ValueSource names what a condition reads from the context.
type ValueSource string

const (
	SourceComplexity ValueSource = "complexity"
	SourceDomain     ValueSource = "domain"
	SourceStepCount  ValueSource = "step_count"
	SourceMetadata   ValueSource = "metadata"
	SourceCustom     ValueSource = "custom"
)

// #endregion operator

// #region condition

// Condition is one predicate of a branch.
type Condition struct {
	Source    ValueSource
	Namespace Namespace // SourceMetadata only
	Field     string    // SourceMetadata only
	Operator  Operator
	Target    any
	// Evaluator supplies the value for SourceCustom.
	Evaluator func(*Context) (any, error) `json:"-"`
}

// #endregion condition

// #region template

// StepTemplate is a blueprint for a step generated by a branch.
// Text fields accept {domain}, {complexity}, {stepCount} and {constraints};
// Dependencies accept {current} and {previous}.
type StepTemplate struct {
	Key             string
	Description     string
	ExpectedOutput  string
	Dependencies    []string
	ValidationRules []string
}

// #endregion template

// #region branch

// Branch is a predicate-gated generator of additional steps.
type Branch struct {
	ID            string
	Condition     string // human-readable description
	Conditions    []Condition
	Logic         Logic
	Priority      int // higher wins conflicts
	Enabled       bool
	IsActive      bool
	StepTemplates []StepTemplate
	Dynamic       bool // generated at runtime
}

// #endregion branch
