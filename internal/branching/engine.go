package branching

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region engine

// Engine evaluates registered branches against the session context and
// instantiates steps for the ones that fire.
type Engine struct {
	config      Config
	branches    []*reasoning.Branch // registration order
	index       map[string]*reasoning.Branch
	calls       int
	pass        int
	activations map[string]int
	history     []Activation
}

// NewEngine creates an engine with an empty registry.
func NewEngine(config Config) *Engine {
	if config.EvaluationInterval < 1 {
		config.EvaluationInterval = 1
	}
	if config.MaxActiveBranches < 1 {
		config.MaxActiveBranches = 1
	}
	return &Engine{
		config:      config,
		index:       make(map[string]*reasoning.Branch),
		activations: make(map[string]int),
	}
}

// #endregion engine

// #region registry

// Register adds a branch. Registered branches are enabled unless the caller
// explicitly registers them inactive and disabled.
func (e *Engine) Register(b reasoning.Branch) error {
	if b.ID == "" {
		return fmt.Errorf("register branch: empty id")
	}
	if _, ok := e.index[b.ID]; ok {
		return fmt.Errorf("register branch %s: already registered", b.ID)
	}
	cp := b
	cp.Conditions = append([]reasoning.Condition(nil), b.Conditions...)
	cp.StepTemplates = append([]reasoning.StepTemplate(nil), b.StepTemplates...)
	e.branches = append(e.branches, &cp)
	e.index[cp.ID] = &cp
	return nil
}

// Branches returns a snapshot of the registry.
func (e *Engine) Branches() []reasoning.Branch {
	out := make([]reasoning.Branch, len(e.branches))
	for i, b := range e.branches {
		out[i] = *b
	}
	return out
}

// Branch returns one registered branch by id.
func (e *Engine) Branch(id string) (reasoning.Branch, bool) {
	b, ok := e.index[id]
	if !ok {
		return reasoning.Branch{}, false
	}
	return *b, true
}

// ActiveBranches returns ids of branches currently marked active.
func (e *Engine) ActiveBranches() []string {
	var ids []string
	for _, b := range e.branches {
		if b.IsActive {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// History returns every activation recorded so far.
func (e *Engine) History() []Activation {
	return append([]Activation(nil), e.history...)
}

// #endregion registry

// #region evaluate

// Evaluate runs one pass. Passes off the evaluation cadence are skipped.
// Condition errors abort the pass before any branch state changes.
func (e *Engine) Evaluate(rc *reasoning.Context) (Result, error) {
	e.calls++
	if e.calls%e.config.EvaluationInterval != 0 {
		return Result{Skipped: true}, nil
	}

	var synthesized []*reasoning.Branch
	if e.config.EnableDynamicGeneration {
		synthesized = e.synthesize(rc)
	}

	candidates := make([]*reasoning.Branch, 0, len(e.branches)+len(synthesized))
	for _, b := range e.branches {
		if b.Enabled {
			candidates = append(candidates, b)
		}
	}
	candidates = append(candidates, synthesized...)
	if e.config.EnablePriority {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority == candidates[j].Priority {
				return candidates[i].ID < candidates[j].ID
			}
			return candidates[i].Priority > candidates[j].Priority
		})
	}

	satisfied := make(map[string]bool, len(candidates))
	for _, b := range candidates {
		ok, err := Satisfied(*b, rc)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate branch %s: %w", b.ID, err)
		}
		satisfied[b.ID] = ok
	}

	e.pass++
	res := Result{Pass: e.pass}
	for _, b := range synthesized {
		e.branches = append(e.branches, b)
		e.index[b.ID] = b
		res.Generated = append(res.Generated, b.ID)
	}

	// Lapsed branches go inactive so they may fire again later.
	for _, b := range candidates {
		if b.IsActive && !satisfied[b.ID] {
			b.IsActive = false
			res.Deactivated = append(res.Deactivated, e.record(b, false, "conditions no longer hold", nil))
		}
	}

	active := len(e.ActiveBranches())
	var fired []*reasoning.Branch
	for _, b := range candidates {
		if !satisfied[b.ID] || b.IsActive {
			continue
		}
		if active >= e.config.MaxActiveBranches {
			log.Printf("[BRANCH] pass %d: max active branches (%d) reached, stopping", e.pass, e.config.MaxActiveBranches)
			break
		}
		b.IsActive = true
		active++
		fired = append(fired, b)
	}

	if e.config.EnableConflictResolution && len(fired) > 1 {
		winner := fired[0]
		for _, b := range fired[1:] {
			if b.Priority > winner.Priority {
				winner = b
			}
		}
		kept := fired[:0]
		for _, b := range fired {
			if b == winner {
				kept = append(kept, b)
				continue
			}
			b.IsActive = false
			reason := fmt.Sprintf("conflict resolution kept %s (priority %d)", winner.ID, winner.Priority)
			res.Deactivated = append(res.Deactivated, e.record(b, false, reason, nil))
		}
		fired = kept
	}

	for _, b := range fired {
		steps := e.instantiate(b, rc)
		ids := make([]string, len(steps))
		for i, s := range steps {
			ids[i] = s.ID
		}
		res.Steps = append(res.Steps, steps...)
		res.Activated = append(res.Activated, e.record(b, true, b.Condition, ids))
		log.Printf("[BRANCH] pass %d: activated %s (priority %d, %d steps)", e.pass, b.ID, b.Priority, len(steps))
	}
	return res, nil
}

func (e *Engine) record(b *reasoning.Branch, activated bool, reason string, stepIDs []string) Activation {
	a := Activation{
		BranchID:  b.ID,
		Pass:      e.pass,
		Priority:  b.Priority,
		Activated: activated,
		Reason:    reason,
		StepIDs:   stepIDs,
	}
	e.history = append(e.history, a)
	return a
}

// #endregion evaluate

// #region instantiate

// instantiate renders the branch's templates into steps. Orders are relative
// (1..n); the chain rebases them after its current last step.
func (e *Engine) instantiate(b *reasoning.Branch, rc *reasoning.Context) []reasoning.Step {
	e.activations[b.ID]++
	n := e.activations[b.ID]
	r := placeholderReplacer(rc)

	current := ""
	if rc.CurrentStep != nil {
		current = rc.CurrentStep.ID
	}
	previous := current

	steps := make([]reasoning.Step, 0, len(b.StepTemplates))
	for i, tpl := range b.StepTemplates {
		key := tpl.Key
		if key == "" {
			key = strconv.Itoa(i + 1)
		}
		step := reasoning.Step{
			ID:              fmt.Sprintf("%s_%d_%s", b.ID, n, key),
			Order:           float64(i + 1),
			Description:     r.Replace(tpl.Description),
			ExpectedOutput:  r.Replace(tpl.ExpectedOutput),
			ValidationRules: append([]string(nil), tpl.ValidationRules...),
		}
		for _, dep := range tpl.Dependencies {
			switch dep {
			case "{current}":
				dep = current
			case "{previous}":
				dep = previous
			}
			if dep != "" {
				step.Dependencies = append(step.Dependencies, dep)
			}
		}
		steps = append(steps, step)
		previous = step.ID
	}
	return steps
}

func placeholderReplacer(rc *reasoning.Context) *strings.Replacer {
	constraints := "none"
	if len(rc.Constraints) > 0 {
		constraints = strings.Join(rc.Constraints, ", ")
	}
	return strings.NewReplacer(
		"{domain}", rc.Domain,
		"{complexity}", fmt.Sprintf("%.2f", rc.Complexity),
		"{stepCount}", strconv.Itoa(len(rc.PreviousSteps)),
		"{constraints}", constraints,
	)
}

// #endregion instantiate

// #region dynamic

// synthesize builds branches from observed context patterns. Ids derive from
// the triggering condition, so the same pattern never registers twice.
func (e *Engine) synthesize(rc *reasoning.Context) []*reasoning.Branch {
	var out []*reasoning.Branch
	add := func(b reasoning.Branch) {
		if _, ok := e.index[b.ID]; ok {
			return
		}
		for _, o := range out {
			if o.ID == b.ID {
				return
			}
		}
		out = append(out, &b)
	}

	if rc.Complexity > e.config.DynamicComplexityTrigger {
		trigger := fmt.Sprintf("complexity>%.2f", e.config.DynamicComplexityTrigger)
		add(reasoning.Branch{
			ID:        dynamicID(trigger),
			Condition: "complexity remains above " + strconv.FormatFloat(e.config.DynamicComplexityTrigger, 'f', 2, 64),
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceComplexity, Operator: reasoning.OpGt, Target: e.config.DynamicComplexityTrigger},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 5,
			Enabled:  true,
			Dynamic:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "split",
					Description:     "Split the {domain} problem into smaller parts before continuing (complexity {complexity})",
					ExpectedOutput:  "Independent sub-problems with clear interfaces",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"completeness", "consistency"},
				},
				{
					Key:             "crosscheck",
					Description:     "Cross-check partial results against constraints: {constraints}",
					ExpectedOutput:  "Constraint violations, if any",
					Dependencies:    []string{"{previous}"},
					ValidationRules: []string{"consistency", "accuracy"},
				},
			},
		})
	}

	if rc.Domain != "" && rc.Domain != reasoning.DomainGeneral {
		trigger := "domain==" + rc.Domain
		add(reasoning.Branch{
			ID:        dynamicID(trigger),
			Condition: "domain is " + rc.Domain,
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceDomain, Operator: reasoning.OpEq, Target: rc.Domain},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 3,
			Enabled:  true,
			Dynamic:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "heuristics",
					Description:     "Apply {domain}-specific heuristics to the {stepCount} steps completed so far",
					ExpectedOutput:  "Domain-specific corrections and risks",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"domain_accuracy"},
				},
			},
		})
	}

	for _, b := range out {
		log.Printf("[BRANCH] synthesized %s (%s)", b.ID, b.Condition)
	}
	return out
}

// dynamicID derives a stable branch id from the triggering condition.
func dynamicID(trigger string) string {
	return "dynamic_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(trigger)).String()[:8]
}

// #endregion dynamic
