// Package orchestrator runs a reasoning session: it sequences step execution
// and calls the reflection, branching and complexity engines in a fixed order
// on every iteration.
package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/branching"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/complexity"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/eval"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reflection"
)

// #endregion

// #region chain-struct

// Chain is the reasoning state machine for one session. It is not safe for
// concurrent use; the engines borrow its context only during a call.
type Chain struct {
	config    config.Config
	executor  StepExecutor
	recorder  Recorder
	decisions DecisionLogger
	clock     func() time.Time
	extra     []reasoning.Branch
	harness   *eval.EvalHarness

	sessionID      string
	problem        string
	state          State
	rc             *reasoning.Context
	steps          []reasoning.Step // executed and pending, ascending order
	records        []StepRecord
	baseComplexity float64
	started        time.Time

	reflector     *reflection.Engine
	brancher      *branching.Engine
	complexity    *complexity.Engine
	reflections   []reasoning.ReflectionSession
	adjustments   []reasoning.ComplexityAdjustment
	activations   []branching.Activation
	prediction    *complexity.Prediction
	alerts        []complexity.Alert        // latest per kind, first-seen order
	tier          reasoning.ComplexityLevel // last level pending steps were shaped for
	lastReflected int
}

// #endregion

// #region options

// Option configures a Chain.
type Option func(*Chain)

// WithExecutor sets the step content generator. Default: EchoExecutor.
func WithExecutor(e StepExecutor) Option {
	return func(c *Chain) { c.executor = e }
}

// WithRecorder persists sessions, reflections and adjustments.
func WithRecorder(r Recorder) Option {
	return func(c *Chain) { c.recorder = r }
}

// WithDecisionLogger records engine decisions as provenance.
func WithDecisionLogger(l DecisionLogger) Option {
	return func(c *Chain) { c.decisions = l }
}

// WithClock replaces time.Now, for timeout tests.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.clock = now }
}

// WithBranches registers extra branches after the default set.
func WithBranches(b ...reasoning.Branch) Option {
	return func(c *Chain) { c.extra = append(c.extra, b...) }
}

// #endregion

// #region constructor

// NewChain validates cfg and returns a chain in the initialized state.
func NewChain(cfg config.Config, opts ...Option) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Chain{
		config:   cfg,
		executor: EchoExecutor{},
		clock:    time.Now,
		harness:  eval.NewEvalHarness(eval.DefaultEvalConfig()),
		state:    StateInitialized,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// #endregion

// #region accessors

// State returns the lifecycle state.
func (c *Chain) State() State { return c.state }

// SessionID returns the id assigned by Initialize.
func (c *Chain) SessionID() string { return c.sessionID }

// Context returns the live session context. Callers must not retain it
// across Run calls.
func (c *Chain) Context() *reasoning.Context { return c.rc }

// Steps returns executed and pending steps in order.
func (c *Chain) Steps() []reasoning.Step {
	out := make([]reasoning.Step, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.Clone()
	}
	return out
}

// Branches returns the branch registry.
func (c *Chain) Branches() []reasoning.Branch {
	if c.brancher == nil {
		return nil
	}
	return c.brancher.Branches()
}

// Reflections returns the reflection passes of this session.
func (c *Chain) Reflections() []reasoning.ReflectionSession {
	return append([]reasoning.ReflectionSession(nil), c.reflections...)
}

// #endregion

// #region initialize

// Initialize starts a session: base complexity, the initial analysis step,
// caller-planned steps and the default branch registry.
func (c *Chain) Initialize(problem string, in Input) error {
	if c.state != StateInitialized {
		return fmt.Errorf("initialize: chain is %s", c.state)
	}
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return errors.New("initialize: empty problem")
	}
	c.state = StateAnalyzing
	c.sessionID = uuid.New().String()
	c.problem = problem
	c.rc = reasoning.NewContext(in.Domain, in.Constraints, in.Metadata)
	c.baseComplexity = EstimateComplexity(problem, c.rc.Domain)
	c.rc.Complexity = c.baseComplexity

	reflector, err := reflection.NewEngine(reflection.Config{
		QualityThreshold:      c.config.QualityThreshold,
		ConfidenceThreshold:   c.config.ConfidenceThreshold,
		RestartScore:          c.config.RestartScore,
		MaxHighImpactInsights: c.config.MaxHighImpactInsights,
		MaxHistory:            c.config.MaxReflectionHistory,
		EnableLearning:        c.config.EnableLearningFromReflection,
		KnowledgeCapacity:     reflection.DefaultConfig().KnowledgeCapacity,
	})
	if err != nil {
		return c.fail(fmt.Errorf("initialize: %w", err))
	}
	c.reflector = reflector

	c.brancher = branching.NewEngine(branching.Config{
		MaxActiveBranches:        c.config.MaxActiveBranches,
		EvaluationInterval:       c.config.BranchEvaluationInterval,
		EnablePriority:           c.config.EnableBranchPriority,
		EnableConflictResolution: c.config.EnableBranchConflictResolution,
		EnableDynamicGeneration:  c.config.EnableDynamicBranchGeneration,
		DynamicComplexityTrigger: branching.DefaultConfig().DynamicComplexityTrigger,
	})
	if err := branching.RegisterDefaults(c.brancher); err != nil {
		return c.fail(fmt.Errorf("initialize: %w", err))
	}
	for _, b := range c.extra {
		if err := c.brancher.Register(b); err != nil {
			return c.fail(fmt.Errorf("initialize: %w", err))
		}
	}

	c.complexity = complexity.NewEngine(complexity.Config{
		RealTime:            c.config.EnableDynamicComplexity,
		AdjustmentThreshold: c.config.AdjustmentThreshold,
		StabilizationPeriod: c.config.StabilizationPeriod,
	})
	c.complexity.Track(c.baseComplexity)
	level := reasoning.LevelForScore(c.baseComplexity)
	c.rc.Metadata.Complexity.Level = level

	c.steps = []reasoning.Step{{
		ID:              "step_1",
		Order:           1,
		Description:     "Analyze the problem and identify its key components: " + clip(problem, 200),
		ExpectedOutput:  "Problem breakdown with key components, constraints and unknowns",
		ValidationRules: []string{"completeness", "consistency"},
	}}
	if err := c.plan(in.PlannedSteps); err != nil {
		return c.fail(fmt.Errorf("initialize: %w", err))
	}
	first := c.steps[0]
	c.rc.CurrentStep = &first

	c.saveSession("")
	log.Printf("[CHAIN] session %s initialized: domain=%s complexity=%.3f level=%s branches=%d steps=%d",
		c.sessionID, c.rc.Domain, c.baseComplexity, level, len(c.brancher.Branches()), len(c.steps))
	return nil
}

// plan appends caller-planned steps after the analysis step.
func (c *Chain) plan(planned []reasoning.Step) error {
	ids := map[string]bool{c.steps[0].ID: true}
	for i, p := range planned {
		s := p.Clone()
		if s.ID == "" {
			s.ID = fmt.Sprintf("step_%d", i+2)
		}
		if ids[s.ID] {
			return fmt.Errorf("planned step %s: duplicate id", s.ID)
		}
		ids[s.ID] = true
		s.Order = c.steps[len(c.steps)-1].Order + 1
		c.steps = append(c.steps, s)
	}
	return nil
}

// #endregion

// #region run

// Reason is Initialize followed by Run.
func (c *Chain) Reason(ctx context.Context, problem string, in Input) (*ChainOfThought, error) {
	if err := c.Initialize(problem, in); err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

// Run executes the reasoning loop until no step remains, MaxSteps is reached
// or a fatal error occurs. Fatal errors leave the chain failed.
func (c *Chain) Run(ctx context.Context) (*ChainOfThought, error) {
	if c.state != StateAnalyzing {
		return nil, fmt.Errorf("run: chain is %s, want %s", c.state, StateAnalyzing)
	}
	c.state = StateReasoning
	c.started = c.clock()

	for c.shouldContinue() {
		if err := c.iterate(ctx); err != nil {
			return nil, c.fail(err)
		}
	}

	out := c.assemble()
	c.state = StateCompleted
	c.saveSession("")
	log.Printf("[CHAIN] session %s completed: steps=%d reflections=%d adjustments=%d complexity=%.3f",
		c.sessionID, len(c.rc.PreviousSteps), len(c.reflections), len(c.adjustments), c.rc.Complexity)
	return out, nil
}

func (c *Chain) shouldContinue() bool {
	return c.state == StateReasoning &&
		len(c.rc.PreviousSteps) < c.config.MaxSteps &&
		c.rc.CurrentStep != nil
}

// iterate is one loop pass. The order is fixed: execute, reflect, branch,
// adjust complexity, advance, check time.
func (c *Chain) iterate(ctx context.Context) error {
	step := *c.rc.CurrentStep
	if err := c.execute(ctx, step); err != nil {
		return err
	}

	if c.config.EnableSelfReflection && c.reflectionDue() {
		if err := c.reflect(); err != nil {
			return err
		}
	}
	if c.config.EnableConditionalBranching {
		c.branch()
	}
	if c.config.EnableDynamicComplexity {
		c.adjustComplexity()
	}
	c.advance(step)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	limit := time.Duration(c.config.TimeoutMs) * time.Millisecond
	if elapsed := c.clock().Sub(c.started); elapsed > limit {
		return &reasoning.TimeoutError{Elapsed: elapsed, Limit: limit}
	}
	return nil
}

func (c *Chain) fail(err error) error {
	c.state = StateFailed
	c.saveSession(err.Error())
	log.Printf("[CHAIN] session %s failed: %v", c.sessionID, err)
	return err
}

// #endregion

// #region execute

func (c *Chain) execute(ctx context.Context, step reasoning.Step) error {
	var missing []string
	for _, d := range step.Dependencies {
		if !c.rc.Executed(d) {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		return &reasoning.ValidationError{StepID: step.ID, Missing: missing}
	}

	out, err := c.executor.Execute(ctx, step.Clone(), c.rc)
	if err != nil {
		return fmt.Errorf("execute step %s: %w", step.ID, err)
	}
	c.rc.Metadata.MergeFacts(out.Data)
	c.rc.PreviousSteps = append(c.rc.PreviousSteps, step)

	ev := EvaluateOutcome(step, out.Outcome)
	c.records = append(c.records, StepRecord{Step: step, Outcome: out.Outcome, Evaluation: ev, ExecutedAt: c.clock()})
	log.Printf("[CHAIN] executed %s (%d/%d): quality=%.2f failure=%s",
		step.ID, len(c.rc.PreviousSteps), c.config.MaxSteps, ev.Quality, ev.FailureType)
	return nil
}

// #endregion

// #region reflect

func (c *Chain) reflectionDue() bool {
	if c.config.EnableContinuousReflection {
		return true
	}
	return len(c.rc.PreviousSteps)%c.config.ReflectionInterval == 0
}

func (c *Chain) reflect() error {
	c.state = StateReflecting
	window := c.rc.PreviousSteps[c.lastReflected:]
	s := c.reflector.Reflect(window, c.lastReflected+1, c.rc)
	c.lastReflected = len(c.rc.PreviousSteps)
	c.reflections = append(c.reflections, s)

	if c.recorder != nil {
		if err := c.recorder.SaveReflection(c.sessionID, s); err != nil {
			log.Printf("[STORE] failed to save reflection %s: %v", s.ID, err)
		}
	}
	c.decide("reflection", string(s.Recommendation), fmt.Sprintf("%s score=%.3f valid=%v", s.ID, s.OverallScore, s.IsValid))

	if s.Recommendation == reasoning.RecommendStop {
		var issues []string
		for _, in := range s.Insights {
			if in.Impact == reasoning.ImpactCritical {
				issues = append(issues, in.Description)
			}
		}
		return &reasoning.ReflectionAbortError{Session: s, Issues: issues}
	}

	sig := &c.rc.Metadata.Reflection
	sig.Passes++
	sig.LastRecommendation = s.Recommendation
	sig.LastScore = s.OverallScore
	sig.Adjustments = s.Adjustments
	if s.Recommendation != reasoning.RecommendContinue {
		c.applyReflection(s.Adjustments)
	}
	c.state = StateReasoning
	return nil
}

// applyReflection tightens pending steps according to the adjustments.
func (c *Chain) applyReflection(adj reasoning.ReflectionAdjustments) {
	for i := range c.steps {
		s := &c.steps[i]
		if c.rc.Executed(s.ID) {
			continue
		}
		if adj.RequireExpectedOutputs && s.ExpectedOutput == "" {
			s.ExpectedOutput = "Explicit result of: " + s.Description
		}
		if adj.StrengthenVerification && !s.HasRule("accuracy") {
			s.ValidationRules = append(s.ValidationRules, "accuracy")
		}
		if adj.EnableCrossReferencing && !s.HasRule("consistency") {
			s.ValidationRules = append(s.ValidationRules, "consistency")
		}
	}
}

// #endregion

// #region branch

func (c *Chain) branch() {
	res, err := c.brancher.Evaluate(c.rc)
	if err != nil {
		log.Printf("[BRANCH] evaluation failed, skipping pass: %v", err)
		c.decide("branching", "skip", err.Error())
		return
	}
	if res.Skipped {
		return
	}
	c.activations = append(c.activations, res.Activated...)
	c.activations = append(c.activations, res.Deactivated...)
	for _, a := range res.Activated {
		c.decide("branching", "activate "+a.BranchID, a.Reason)
	}
	for _, a := range res.Deactivated {
		c.decide("branching", "deactivate "+a.BranchID, a.Reason)
	}
	c.appendAfterLast(res.Steps)

	sig := &c.rc.Metadata.Branching
	sig.ActiveBranches = c.brancher.ActiveBranches()
	sig.Activations += len(res.Activated)
}

// appendAfterLast rebases relative orders after the current maximum order.
func (c *Chain) appendAfterLast(steps []reasoning.Step) {
	if len(steps) == 0 {
		return
	}
	base := 0.0
	if n := len(c.steps); n > 0 {
		base = c.steps[n-1].Order
	}
	for _, s := range steps {
		if c.known(s.ID) {
			log.Printf("[BRANCH] step %s already queued, skipping", s.ID)
			continue
		}
		s.Order += base
		c.steps = append(c.steps, s)
	}
	reasoning.SortByOrder(c.steps)
}

func (c *Chain) known(id string) bool {
	for _, s := range c.steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// #endregion

// #region complexity

func (c *Chain) adjustComplexity() {
	m := complexity.Analyze(c.problem, c.steps, c.rc)
	c.rc.Metadata.Complexity.Metrics = m

	if adj := c.complexity.Evaluate(m, c.steps, c.rc); adj != nil {
		c.adjustments = append(c.adjustments, *adj)
		c.rc.Complexity = c.complexity.Tracked()
		sig := &c.rc.Metadata.Complexity
		sig.Level = adj.To
		sig.Adjustments++
		if c.recorder != nil {
			if err := c.recorder.SaveAdjustment(c.sessionID, *adj); err != nil {
				log.Printf("[STORE] failed to save adjustment: %v", err)
			}
		}
		c.decide("complexity", string(adj.Type), adj.Reason)
		if adj.To != adj.From && adj.To != c.tier {
			c.regeneratePending(adj.To)
			c.tier = adj.To
		}
	}

	if c.config.EnablePredictiveAdjustment {
		p := c.complexity.Predict(c.rc)
		c.prediction = &p
		c.rc.Metadata.Complexity.PredictedLevel = p.Level
		c.rc.Metadata.Complexity.PredictedScore = p.Score
	}
	if c.config.EnableMetacognition {
		for _, a := range c.complexity.Monitor(m, c.rc).Alerts {
			c.recordAlert(a)
		}
	}
}

// recordAlert keeps one alert per kind, refreshing its message.
func (c *Chain) recordAlert(a complexity.Alert) {
	for i := range c.alerts {
		if c.alerts[i].Kind == a.Kind {
			c.alerts[i] = a
			return
		}
	}
	c.alerts = append(c.alerts, a)
	log.Printf("[COMPLEXITY] monitor: %s", a.Message)
}

// regeneratePending reshapes every not-yet-executed step for level.
func (c *Chain) regeneratePending(level reasoning.ComplexityLevel) {
	var done, pending []reasoning.Step
	cur := ""
	if c.rc.CurrentStep != nil {
		cur = c.rc.CurrentStep.ID
	}
	for _, s := range c.steps {
		if c.rc.Executed(s.ID) || s.ID == cur {
			done = append(done, s)
		} else {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return
	}
	regen := complexity.GenerateSteps(pending, level)
	c.steps = append(done, regen...)
	reasoning.SortByOrder(c.steps)
	log.Printf("[COMPLEXITY] regenerated %d pending steps as %d for level %s", len(pending), len(regen), level)
}

// #endregion

// #region advance

// advance moves to the pending step with the next higher order.
func (c *Chain) advance(done reasoning.Step) {
	c.rc.CurrentStep = nil
	for _, s := range c.steps {
		if s.Order > done.Order && !c.rc.Executed(s.ID) {
			next := s
			c.rc.CurrentStep = &next
			return
		}
	}
}

// #endregion

// #region record

func (c *Chain) saveSession(errMsg string) {
	if c.recorder == nil || c.rc == nil {
		return
	}
	rec := reasoning.SessionRecord{
		SessionID:  c.sessionID,
		Problem:    c.problem,
		Domain:     c.rc.Domain,
		State:      string(c.state),
		Complexity: c.rc.Complexity,
		Level:      reasoning.LevelForScore(c.rc.Complexity),
		StepCount:  len(c.rc.PreviousSteps),
		Error:      errMsg,
		CreatedAt:  c.clock().UTC(),
	}
	if err := c.recorder.SaveSession(rec); err != nil {
		log.Printf("[STORE] failed to save session %s: %v", c.sessionID, err)
	}
}

func (c *Chain) decide(source, decision, reason string) {
	if c.decisions == nil {
		return
	}
	d := reasoning.Decision{
		SessionID: c.sessionID,
		Source:    source,
		Decision:  decision,
		Reason:    reason,
		CreatedAt: c.clock().UTC(),
	}
	if c.rc.CurrentStep != nil {
		d.StepID = c.rc.CurrentStep.ID
	}
	if err := c.decisions.LogDecision(d); err != nil {
		log.Printf("[STORE] failed to log decision: %v", err)
	}
}

// #endregion

// #region helpers

// clip cuts s to at most n bytes on a rune boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// #endregion
