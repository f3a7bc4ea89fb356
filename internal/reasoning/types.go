package reasoning

import (
	"sort"
	"time"
)

// #region step

// Step is one unit of a reasoning chain.
type Step struct {
	ID              string   `json:"id"`
	Order           float64  `json:"order"` // fractional when inserted between existing steps
	Description     string   `json:"description"`
	ExpectedOutput  string   `json:"expected_output"`
	Dependencies    []string `json:"dependencies,omitempty"`
	ValidationRules []string `json:"validation_rules,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the chain.
func (s Step) Clone() Step {
	out := s
	out.Dependencies = append([]string(nil), s.Dependencies...)
	out.ValidationRules = append([]string(nil), s.ValidationRules...)
	return out
}

// HasRule reports whether the step carries the named validation rule.
func (s Step) HasRule(rule string) bool {
	for _, r := range s.ValidationRules {
		if r == rule {
			return true
		}
	}
	return false
}

// SortByOrder orders steps ascending by Order, breaking ties by ID.
func SortByOrder(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Order == steps[j].Order {
			return steps[i].ID < steps[j].ID
		}
		return steps[i].Order < steps[j].Order
	})
}

// #endregion step

// #region step-outcome

// StepOutcome is what a step executor returns for one step.
type StepOutcome struct {
	Outcome string
	Data    map[string]string // merged into Metadata.Facts
}

// #endregion step-outcome

// #region context

// Context is the per-session state shared by the chain and its engines.
// The chain owns and mutates it; engines only read it during a call.
type Context struct {
	Complexity    float64
	Domain        string
	Constraints   []string
	PreviousSteps []Step
	CurrentStep   *Step
	Metadata      Metadata
}

// NewContext creates an empty context for one session.
func NewContext(domain string, constraints []string, input map[string]string) *Context {
	if domain == "" {
		domain = DomainGeneral
	}
	return &Context{
		Domain:      domain,
		Constraints: append([]string(nil), constraints...),
		Metadata:    NewMetadata(input),
	}
}

// Executed reports whether a step id is already in PreviousSteps.
func (c *Context) Executed(id string) bool {
	for _, s := range c.PreviousSteps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// DomainGeneral is the domain tag used when the caller supplies none.
const DomainGeneral = "general"

// #endregion context

// #region session-record

// SessionRecord summarises one finished or failed session for persistence.
type SessionRecord struct {
	SessionID  string
	Problem    string
	Domain     string
	State      string
	Complexity float64
	Level      ComplexityLevel
	StepCount  int
	Error      string
	OutputJSON string
	CreatedAt  time.Time
}

// Decision is one engine decision worth keeping as provenance.
type Decision struct {
	SessionID string
	StepID    string
	Source    string // "reflection" | "branching" | "complexity" | "chain"
	Decision  string
	Reason    string
	CreatedAt time.Time
}

// #endregion session-record
