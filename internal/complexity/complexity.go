// Package complexity tracks how hard the current problem looks, proposes
// level adjustments when the picture changes, and reshapes pending steps for
// the five complexity tiers.
package complexity

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region engine

// Engine holds the tracked complexity and the adjustment history of one session.
type Engine struct {
	config  Config
	tracked float64
	counter int // evaluations since the last adjustment
	history []reasoning.ComplexityAdjustment
	samples []reasoning.ComplexityMetrics
}

// NewEngine creates an engine tracking complexity 0.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Track sets the tracked overall score, e.g. to the chain's base estimate.
func (e *Engine) Track(score float64) {
	e.tracked = clamp01(score)
}

// Tracked returns the tracked overall score.
func (e *Engine) Tracked() float64 {
	return e.tracked
}

// History returns every adjustment made so far.
func (e *Engine) History() []reasoning.ComplexityAdjustment {
	return append([]reasoning.ComplexityAdjustment(nil), e.history...)
}

// Samples returns every metrics record passed to Evaluate.
func (e *Engine) Samples() []reasoning.ComplexityMetrics {
	return append([]reasoning.ComplexityMetrics(nil), e.samples...)
}

// #endregion engine

// #region evaluate

// Evaluate decides whether m warrants an adjustment. It fires only when
// real-time adjustment is on, |m.Overall - tracked| exceeds the threshold and
// the stabilization period has elapsed. Pattern bonuses only pick the target
// level; the tracked score moves to the raw m.Overall so unchanged metrics
// never re-trigger. On adjustment the stabilization counter resets.
func (e *Engine) Evaluate(m reasoning.ComplexityMetrics, steps []reasoning.Step, rc *reasoning.Context) *reasoning.ComplexityAdjustment {
	e.samples = append(e.samples, m)

	delta := m.Overall - e.tracked
	if !e.config.RealTime || math.Abs(delta) <= e.config.AdjustmentThreshold || e.counter < e.config.StabilizationPeriod {
		e.counter++
		return nil
	}

	patterns := DetectPatterns(steps, rc)
	target := m.Overall
	for _, p := range patterns {
		target += p.Bonus
	}
	target = clamp01(target)

	adj := NewAdjustment(e.tracked, target, m, patterns)
	e.history = append(e.history, adj)
	e.tracked = clamp01(m.Overall)
	e.counter = 0

	log.Printf("[COMPLEXITY] %s %s -> %s (delta=%.3f, confidence=%.2f)", adj.Type, adj.From, adj.To, delta, adj.Confidence)
	return &adj
}

// NewAdjustment builds the adjustment record for moving between two scores.
func NewAdjustment(from, to float64, m reasoning.ComplexityMetrics, patterns []Pattern) reasoning.ComplexityAdjustment {
	fromLevel, toLevel := reasoning.LevelForScore(from), reasoning.LevelForScore(to)
	fr, tr := fromLevel.Rank(), toLevel.Rank()

	typ := reasoning.AdjustStabilize
	switch {
	case tr > fr:
		typ = reasoning.AdjustIncrease
	case tr < fr:
		typ = reasoning.AdjustDecrease
	}

	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	reason := fmt.Sprintf("overall complexity moved from %.2f to %.2f", from, to)
	if len(names) > 0 {
		reason += " (patterns: " + strings.Join(names, ", ") + ")"
	}

	return reasoning.ComplexityAdjustment{
		From:       fromLevel,
		To:         toLevel,
		Type:       typ,
		Impact:     Impact(fromLevel, toLevel),
		Confidence: clamp01(0.5 + math.Min(0.4, math.Abs(to-from)) + 0.05*float64(len(patterns))),
		Reason:     reason,
		Metrics:    m,
		Patterns:   names,
	}
}

// Impact estimates the cost of moving from one level to another.
func Impact(from, to reasoning.ComplexityLevel) reasoning.AdjustmentImpact {
	fr, tr := from.Rank(), to.Rank()
	if fr < 0 || tr < 0 {
		return reasoning.AdjustmentImpact{TimeFactor: 1}
	}
	return reasoning.AdjustmentImpact{
		StepCountDelta:  expectedSteps[tr] - expectedSteps[fr],
		ValidationDelta: rulesPerStep[tr] - rulesPerStep[fr],
		ResourceDelta:   tr - fr,
		TimeFactor:      timeFactors[tr] / timeFactors[fr],
		QualityDelta:    qualityPerRank * float64(tr-fr),
	}
}

// DetectPatterns returns library patterns whose keywords appear in step
// descriptions or constraints.
func DetectPatterns(steps []reasoning.Step, rc *reasoning.Context) []Pattern {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(strings.ToLower(s.Description))
		b.WriteByte(' ')
	}
	for _, c := range rc.Constraints {
		b.WriteString(strings.ToLower(c))
		b.WriteByte(' ')
	}
	text := b.String()

	var out []Pattern
	for _, p := range Patterns {
		hit := p.MinConstraints > 0 && len(rc.Constraints) >= p.MinConstraints
		for _, k := range p.Keywords {
			if hit {
				break
			}
			hit = strings.Contains(text, k)
		}
		if hit {
			out = append(out, p)
		}
	}
	return out
}

// #endregion evaluate
