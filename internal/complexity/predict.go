package complexity

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region predict

// Predict extrapolates near-term complexity from the adjustment trend, the
// growth of validation rules across executed steps, the domain weight and
// the constraint count.
func (e *Engine) Predict(rc *reasoning.Context) Prediction {
	var factors []string
	score := e.tracked

	if trend := e.adjustmentTrend(3); trend != 0 {
		score += 0.5 * trend
		factors = append(factors, fmt.Sprintf("adjustment trend %+.2f", trend))
	}
	if growth := ruleGrowth(rc.PreviousSteps); growth != 0 {
		term := math.Max(-0.1, math.Min(0.1, 0.05*growth))
		score += term
		factors = append(factors, fmt.Sprintf("validation rule growth %+.2f", growth))
	}
	if w := DomainWeight(rc.Domain); w != 0.5 {
		score += 0.1 * (w - 0.5)
		factors = append(factors, fmt.Sprintf("domain %s weight %.2f", rc.Domain, w))
	}
	if n := len(rc.Constraints); n > 0 {
		score += math.Min(0.1, 0.02*float64(n))
		factors = append(factors, fmt.Sprintf("%d constraints", n))
	}
	score = clamp01(score)

	base := 0.5
	if recent := lastN(e.history, 3); len(recent) > 0 {
		var sum float64
		for _, a := range recent {
			sum += a.Confidence
		}
		base = sum / float64(len(recent))
	}
	conf := clamp01(base * math.Min(1, 0.5+0.125*float64(len(factors))))

	return Prediction{
		Level:      reasoning.LevelForScore(score),
		Score:      score,
		Confidence: conf,
		Factors:    factors,
	}
}

// adjustmentTrend averages the level movement of the last n adjustments.
func (e *Engine) adjustmentTrend(n int) float64 {
	recent := lastN(e.history, n)
	if len(recent) == 0 {
		return 0
	}
	var sum float64
	for _, a := range recent {
		sum += reasoning.ScoreForLevel(a.To) - reasoning.ScoreForLevel(a.From)
	}
	return sum / float64(len(recent))
}

// ruleGrowth compares average rule counts of the later half of steps with
// the earlier half.
func ruleGrowth(steps []reasoning.Step) float64 {
	if len(steps) < 2 {
		return 0
	}
	mid := len(steps) / 2
	avg := func(ss []reasoning.Step) float64 {
		var n int
		for _, s := range ss {
			n += len(s.ValidationRules)
		}
		return float64(n) / float64(len(ss))
	}
	return avg(steps[mid:]) - avg(steps[:mid])
}

func lastN(h []reasoning.ComplexityAdjustment, n int) []reasoning.ComplexityAdjustment {
	if len(h) > n {
		return h[len(h)-n:]
	}
	return h
}

// #endregion predict

// #region monitor

// Monitor flags conditions worth surfacing. It does not change engine state.
func (e *Engine) Monitor(m reasoning.ComplexityMetrics, rc *reasoning.Context) Report {
	r := Report{Level: reasoning.LevelForScore(m.Overall)}

	if r.Level == reasoning.LevelExtreme {
		r.Alerts = append(r.Alerts, Alert{AlertExtreme, fmt.Sprintf("extreme complexity (%.2f)", m.Overall)})
		r.Recommendations = append(r.Recommendations, "Decompose the problem before continuing")
	}
	if m.Cognitive > 0.8 {
		r.Alerts = append(r.Alerts, Alert{AlertCognitive, fmt.Sprintf("high cognitive load (%.2f)", m.Cognitive)})
		r.Recommendations = append(r.Recommendations, "Reduce the number of constraints considered at once")
	}
	if len(rc.PreviousSteps) > 10 && e.adjustmentTrend(3) > 0 {
		r.Alerts = append(r.Alerts, Alert{AlertLongChain, fmt.Sprintf("long chain (%d steps) with rising complexity", len(rc.PreviousSteps))})
		r.Recommendations = append(r.Recommendations, "Consolidate progress with a synthesis step")
	}
	return r
}

// #endregion monitor
