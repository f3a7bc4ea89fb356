// Package reflection scores a window of executed steps against six weighted
// criteria and turns the scores into insights, adjustments and a
// continue/adjust/restart/stop recommendation.
package reflection

import (
	"fmt"
	"log"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region engine

// Engine runs reflection passes and keeps their history.
type Engine struct {
	config    Config
	criteria  []Criterion
	seq       int
	history   []reasoning.ReflectionSession
	frequency map[string]int
	knowledge *lru.Cache[string, KnowledgeEntry]
}

// NewEngine creates a reflection engine.
func NewEngine(config Config) (*Engine, error) {
	if config.MaxHistory < 1 {
		config.MaxHistory = 1
	}
	if config.KnowledgeCapacity < 1 {
		config.KnowledgeCapacity = DefaultConfig().KnowledgeCapacity
	}
	cache, err := lru.New[string, KnowledgeEntry](config.KnowledgeCapacity)
	if err != nil {
		return nil, fmt.Errorf("knowledge cache: %w", err)
	}
	return &Engine{
		config:    config,
		criteria:  Criteria(),
		frequency: make(map[string]int),
		knowledge: cache,
	}, nil
}

// Reflect assesses steps, records the session and updates learning
// bookkeeping. start is the 1-based position of steps[0] in the chain.
func (e *Engine) Reflect(steps []reasoning.Step, start int, rc *reasoning.Context) reasoning.ReflectionSession {
	e.seq++
	s := Assess(steps, rc, e.config)
	s.ID = fmt.Sprintf("reflection-%d", e.seq)
	s.StepRange = reasoning.StepRange{Start: start, End: start + len(steps) - 1}

	e.history = append(e.history, s)
	if over := len(e.history) - e.config.MaxHistory; over > 0 {
		e.history = append([]reasoning.ReflectionSession(nil), e.history[over:]...)
	}
	if e.config.EnableLearning {
		e.learn(s)
	}

	log.Printf("[REFLECT] %s steps %d-%d: score=%.3f valid=%v recommendation=%s insights=%d",
		s.ID, s.StepRange.Start, s.StepRange.End, s.OverallScore, s.IsValid, s.Recommendation, len(s.Insights))
	return s
}

// History returns retained sessions, oldest first.
func (e *Engine) History() []reasoning.ReflectionSession {
	return append([]reasoning.ReflectionSession(nil), e.history...)
}

// Frequencies returns the recommendation counter keyed "recommendation:score".
func (e *Engine) Frequencies() map[string]int {
	out := make(map[string]int, len(e.frequency))
	for k, v := range e.frequency {
		out[k] = v
	}
	return out
}

// Knowledge returns remembered actionable insights, most seen first.
func (e *Engine) Knowledge() []KnowledgeEntry {
	var out []KnowledgeEntry
	for _, k := range e.knowledge.Keys() {
		if v, ok := e.knowledge.Peek(k); ok {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seen > out[j].Seen })
	return out
}

func (e *Engine) learn(s reasoning.ReflectionSession) {
	e.frequency[fmt.Sprintf("%s:%.1f", s.Recommendation, s.OverallScore)]++
	for _, in := range s.Insights {
		if !in.Actionable {
			continue
		}
		key := string(in.Type) + "|" + in.Criterion + "|" + in.Description
		entry, _ := e.knowledge.Get(key)
		entry.Insight = in
		entry.Seen++
		entry.LastSeq = e.seq
		e.knowledge.Add(key, entry)
	}
}

// #endregion engine

// #region assess

// Assess is the pure part of a reflection pass: criteria, weighted score,
// insights, adjustments and recommendation. It carries no id or range.
func Assess(steps []reasoning.Step, rc *reasoning.Context, config Config) reasoning.ReflectionSession {
	criteria := Criteria()
	s := reasoning.ReflectionSession{Criteria: make(map[string]reasoning.CriterionResult, len(criteria))}

	for _, c := range criteria {
		r := c.Evaluate(steps, rc)
		r.Score = clamp01(r.Score)
		r.Confidence = clamp01(r.Confidence)
		s.Criteria[c.Name] = r
	}
	s.OverallScore = WeightedScore(s.Criteria)
	s.Insights = Insights(s.Criteria, rc)
	// Weaknesses backed by too little evidence never escalate past medium.
	for i, in := range s.Insights {
		r, ok := s.Criteria[in.Criterion]
		if !ok || in.Type != reasoning.InsightWeakness || r.Confidence >= config.ConfidenceThreshold {
			continue
		}
		if in.Impact == reasoning.ImpactHigh || in.Impact == reasoning.ImpactCritical {
			s.Insights[i].Impact = reasoning.ImpactMedium
		}
	}
	s.Adjustments = Adjustments(s.Criteria, rc)
	s.Recommendation = Recommend(s.OverallScore, s.Insights, config)
	s.IsValid = s.OverallScore >= config.QualityThreshold && !hasSevereWeakness(s.Insights)
	return s
}

// WeightedScore combines criterion scores with their weights.
func WeightedScore(results map[string]reasoning.CriterionResult) float64 {
	var total, weights float64
	for _, c := range Criteria() {
		r, ok := results[c.Name]
		if !ok {
			continue
		}
		total += c.Weight * r.Score
		weights += c.Weight
	}
	if weights == 0 {
		return 0
	}
	return clamp01(total / weights)
}

func hasSevereWeakness(insights []reasoning.Insight) bool {
	for _, in := range insights {
		if in.Type == reasoning.InsightWeakness && (in.Impact == reasoning.ImpactHigh || in.Impact == reasoning.ImpactCritical) {
			return true
		}
	}
	return false
}

// #endregion assess

// #region insights

// impactForGap grades how far a criterion fell below its threshold.
func impactForGap(gap float64) reasoning.Impact {
	switch {
	case gap >= 0.6:
		return reasoning.ImpactCritical
	case gap >= 0.35:
		return reasoning.ImpactHigh
	case gap >= 0.15:
		return reasoning.ImpactMedium
	default:
		return reasoning.ImpactLow
	}
}

// Insights derives threshold insights per criterion plus the contextual ones.
func Insights(results map[string]reasoning.CriterionResult, rc *reasoning.Context) []reasoning.Insight {
	var out []reasoning.Insight
	for _, c := range Criteria() {
		r, ok := results[c.Name]
		if !ok {
			continue
		}
		switch {
		case r.Score < c.Threshold:
			rec := "Improve " + c.Name
			if len(r.Suggestions) > 0 {
				rec = r.Suggestions[0]
			}
			out = append(out, reasoning.Insight{
				Type:           reasoning.InsightWeakness,
				Criterion:      c.Name,
				Description:    fmt.Sprintf("%s %.2f is below threshold %.2f", c.Name, r.Score, c.Threshold),
				Impact:         impactForGap(c.Threshold - r.Score),
				Actionable:     true,
				Recommendation: rec,
			})
		case r.Score >= c.Threshold+0.15:
			impact := reasoning.ImpactLow
			if c.Weight >= 0.2 {
				impact = reasoning.ImpactMedium
			}
			out = append(out, reasoning.Insight{
				Type:           reasoning.InsightStrength,
				Criterion:      c.Name,
				Description:    fmt.Sprintf("%s %.2f is well above threshold", c.Name, r.Score),
				Impact:         impact,
				Recommendation: "Keep the current " + c.Name + " practices",
			})
		}
	}

	if rc.Complexity > 0.8 {
		out = append(out, reasoning.Insight{
			Type:           reasoning.InsightOpportunity,
			Description:    fmt.Sprintf("complexity %.2f leaves room for further decomposition", rc.Complexity),
			Impact:         reasoning.ImpactMedium,
			Actionable:     true,
			Recommendation: "Break the problem into smaller sub-problems",
		})
	}
	if len(rc.PreviousSteps) > 8 {
		out = append(out, reasoning.Insight{
			Type:           reasoning.InsightThreat,
			Description:    fmt.Sprintf("%d steps without consolidation risk losing the thread", len(rc.PreviousSteps)),
			Impact:         reasoning.ImpactMedium,
			Actionable:     true,
			Recommendation: "Add synthesis steps that consolidate progress",
		})
	}
	return out
}

// #endregion insights

// #region adjustments

// Adjustments maps criteria below threshold to corrective actions.
func Adjustments(results map[string]reasoning.CriterionResult, rc *reasoning.Context) reasoning.ReflectionAdjustments {
	var adj reasoning.ReflectionAdjustments
	for _, c := range Criteria() {
		r, ok := results[c.Name]
		if !ok || r.Score >= c.Threshold {
			continue
		}
		switch c.Name {
		case CriterionQuality:
			adj.IncreaseValidation = true
			adj.AdditionalReviewSteps = int(math.Ceil((c.Threshold - r.Score) * 10))
		case CriterionConsistency:
			adj.EnableCrossReferencing = true
		case CriterionCompleteness:
			adj.RequireExpectedOutputs = true
		case CriterionEfficiency:
			adj.ConsolidateSteps = true
		case CriterionAccuracy:
			adj.StrengthenVerification = true
		case CriterionInnovation:
			adj.ExploreAlternatives = true
		}
	}
	if rc.Complexity > 0.8 {
		adj.DecomposeFurther = true
		adj.ReasoningDepth = "deep"
	}
	return adj
}

// #endregion adjustments

// #region recommend

// Recommend applies the recommendation rule in priority order: any critical
// insight stops; a low score or too many high-impact insights restarts; a
// score under the quality threshold adjusts; anything else continues.
func Recommend(overall float64, insights []reasoning.Insight, config Config) reasoning.Recommendation {
	high := 0
	for _, in := range insights {
		switch in.Impact {
		case reasoning.ImpactCritical:
			return reasoning.RecommendStop
		case reasoning.ImpactHigh:
			high++
		}
	}
	if overall < config.RestartScore || high > config.MaxHighImpactInsights {
		return reasoning.RecommendRestart
	}
	if overall < config.QualityThreshold {
		return reasoning.RecommendAdjust
	}
	return reasoning.RecommendContinue
}

// #endregion recommend
