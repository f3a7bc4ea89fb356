package complexity

import (
	"math"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region vocabulary

var (
	connectives = map[string]bool{
		"and": true, "or": true, "not": true, "if": true, "then": true, "else": true,
		"because": true, "therefore": true, "however": true, "unless": true,
		"implies": true, "while": true, "but": true, "thus": true,
	}
	conditionalWords = []string{"if", "when", "unless", "otherwise", "depending", "whether"}
	urgencyWords     = []string{"deadline", "urgent", "asap", "real-time", "realtime", "immediately", "latency", "time"}
	analyticVerbs    = map[string]bool{
		"analyze": true, "analyse": true, "evaluate": true, "compare": true, "synthesize": true,
		"design": true, "optimize": true, "integrate": true, "assess": true, "derive": true,
		"prove": true, "model": true, "decompose": true,
	}
)

// #endregion vocabulary

// #region analyze

// Analyze computes the five complexity dimensions and their weighted overall
// from the problem text, the known steps and the context.
func Analyze(problem string, steps []reasoning.Step, rc *reasoning.Context) reasoning.ComplexityMetrics {
	var b strings.Builder
	b.WriteString(problem)
	for _, s := range steps {
		b.WriteString(". ")
		b.WriteString(s.Description)
	}
	text := b.String()
	words := tokenize(text)

	m := reasoning.ComplexityMetrics{
		Structural: Structural(text, words, steps),
		Logical:    Logical(words),
		Domain:     DomainWeight(rc.Domain),
		Temporal:   Temporal(steps, rc.Constraints),
		Cognitive:  Cognitive(words, steps, rc.Constraints),
	}
	m.Overall = Overall(m)
	return m
}

// Overall combines the five dimensions with the fixed weights.
func Overall(m reasoning.ComplexityMetrics) float64 {
	return clamp01(WeightStructural*m.Structural +
		WeightLogical*m.Logical +
		WeightDomain*m.Domain +
		WeightTemporal*m.Temporal +
		WeightCognitive*m.Cognitive)
}

// Structural scores size: words, sentences, steps and dependencies.
func Structural(text string, words []string, steps []reasoning.Step) float64 {
	sentences := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '?' || r == '!' })
	nSentences := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			nSentences++
		}
	}
	deps := 0
	for _, s := range steps {
		deps += len(s.Dependencies)
	}
	return clamp01(0.3*math.Min(1, float64(len(words))/200) +
		0.2*math.Min(1, float64(nSentences)/10) +
		0.3*math.Min(1, float64(len(steps))/15) +
		0.2*math.Min(1, float64(deps)/20))
}

// Logical scores connective density and conditional language.
func Logical(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	n := 0
	conditional := false
	for _, w := range words {
		if connectives[w] {
			n++
		}
		for _, c := range conditionalWords {
			if w == c {
				conditional = true
			}
		}
	}
	score := 0.7 * math.Min(1, float64(n)/float64(len(words))*5)
	if conditional {
		score += 0.3
	}
	return clamp01(score)
}

// Temporal scores urgency constraints, chain length and dependency depth.
func Temporal(steps []reasoning.Step, constraints []string) float64 {
	urgent := 0
	for _, c := range constraints {
		lc := strings.ToLower(c)
		for _, u := range urgencyWords {
			if strings.Contains(lc, u) {
				urgent++
				break
			}
		}
	}
	maxOrder := 0.0
	for _, s := range steps {
		maxOrder = math.Max(maxOrder, s.Order)
	}
	return clamp01(0.4*math.Min(1, float64(urgent)*0.25) +
		0.3*math.Min(1, maxOrder/20) +
		0.3*math.Min(1, float64(ChainDepth(steps))/8))
}

// Cognitive scores analytic verb density, constraint load and parallel steps.
func Cognitive(words []string, steps []reasoning.Step, constraints []string) float64 {
	verbs := 0
	for _, w := range words {
		if analyticVerbs[w] {
			verbs++
		}
	}
	density := 0.0
	if len(words) > 0 {
		density = math.Min(1, float64(verbs)/float64(len(words))*10)
	}
	return clamp01(0.5*density +
		0.3*math.Min(1, float64(len(constraints))/5) +
		0.2*math.Min(1, float64(parallelSteps(steps))/5))
}

// #endregion analyze

// #region graph

// ChainDepth returns the longest dependency chain among steps. Dependencies
// outside the set count as roots.
func ChainDepth(steps []reasoning.Step) int {
	byID := make(map[string]reasoning.Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}
	memo := make(map[string]int, len(steps))
	var depth func(id string, seen map[string]bool) int
	depth = func(id string, seen map[string]bool) int {
		if d, ok := memo[id]; ok {
			return d
		}
		s, ok := byID[id]
		if !ok || seen[id] {
			return 0
		}
		seen[id] = true
		best := 0
		for _, d := range s.Dependencies {
			best = max(best, depth(d, seen))
		}
		delete(seen, id)
		memo[id] = best + 1
		return best + 1
	}
	out := 0
	for _, s := range steps {
		out = max(out, depth(s.ID, map[string]bool{}))
	}
	return out
}

// parallelSteps counts steps that share their dependency set with another step.
func parallelSteps(steps []reasoning.Step) int {
	groups := make(map[string]int)
	for _, s := range steps {
		if len(s.Dependencies) == 0 {
			continue
		}
		groups[strings.Join(s.Dependencies, ",")]++
	}
	n := 0
	for _, c := range groups {
		if c > 1 {
			n += c
		}
	}
	return n
}

// #endregion graph

// #region helpers

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// #endregion helpers
