package orchestrator

// #region imports
import (
	"strings"
	"unicode"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #endregion

// #region deflection-patterns

var deflectionPatterns = []string{
	"i cannot",
	"i can't",
	"i'm not able to",
	"i am not able to",
	"unable to",
	"as an ai",
	"as a language model",
	"beyond my capabilities",
	"i don't have enough information",
	"please provide more",
}

// #endregion

// #region evaluate

// EvaluateOutcome scores a step outcome via string analysis. No model call.
func EvaluateOutcome(step reasoning.Step, outcome string) OutcomeEvaluation {
	trimmed := strings.TrimSpace(outcome)
	lower := strings.ToLower(trimmed)

	failure := detectFailure(trimmed, lower)
	quality := scoreQuality(step, trimmed, lower)

	// A detected failure caps quality so retries fire
	if failure != FailureNone && quality > 0.35 {
		quality = 0.35
	}

	return OutcomeEvaluation{
		Quality:     quality,
		FailureType: failure,
		ShouldRetry: quality < 0.4 && failure != FailureNone,
	}
}

// #endregion

// #region detect-failure

func detectFailure(trimmed, lower string) FailureType {
	if len(strings.TrimFunc(trimmed, unicode.IsSpace)) == 0 {
		return FailureEmpty
	}
	if hasRepetition(lower) {
		return FailureRepetition
	}

	deflections := 0
	for _, p := range deflectionPatterns {
		if strings.Contains(lower, p) {
			deflections++
		}
	}
	if deflections >= 2 || (deflections == 1 && len(strings.Fields(trimmed)) < 30) {
		return FailureDeflection
	}
	return FailureNone
}

// #endregion

// #region repetition-check

func hasRepetition(lower string) bool {
	// 3+ identical sentences
	sentences := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) < 3 {
		return false
	}
	counts := make(map[string]int)
	for _, s := range sentences {
		t := strings.TrimSpace(s)
		if len(t) > 10 {
			counts[t]++
		}
	}
	for _, c := range counts {
		if c >= 3 {
			return true
		}
	}
	return false
}

// #endregion

// #region quality-score

func scoreQuality(step reasoning.Step, trimmed, lower string) float64 {
	wordCount := len(strings.Fields(trimmed))

	// Length adequacy: under 5 words scales to 0.5, 5-40 linear to 1.0
	var length float64
	switch {
	case wordCount < 5:
		length = 0.1 * float64(wordCount)
	case wordCount <= 40:
		length = 0.5 + 0.5*float64(wordCount-5)/35
	default:
		length = 1
	}

	// Engagement: does the outcome reference the step's own terms?
	stepWords := strings.Fields(strings.ToLower(step.Description + " " + step.ExpectedOutput))
	outcomeSet := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		outcomeSet[strings.Trim(w, ".,;:!?")] = true
	}
	considered, shared := 0, 0
	for _, w := range stepWords {
		w = strings.Trim(w, ".,;:!?")
		if len(w) <= 3 {
			continue
		}
		considered++
		if outcomeSet[w] {
			shared++
		}
	}
	engagement := 0.0
	if considered > 0 {
		engagement = float64(shared) / float64(considered)
	}

	// Novelty: more than a restatement of the step
	novelty := 1.0
	desc := strings.ToLower(strings.TrimSpace(step.Description))
	if len(desc) > 10 && strings.Contains(lower, desc) {
		if rest := strings.Replace(lower, desc, "", 1); len(strings.Fields(rest)) < 4 {
			novelty = 0.3
		}
	}

	deflections := 0
	for _, p := range deflectionPatterns {
		if strings.Contains(lower, p) {
			deflections++
		}
	}
	density := float64(deflections) / float64(len(deflectionPatterns))

	q := 0.3*length + 0.3*engagement + 0.2*(1-density) + 0.2*novelty
	return max(0, min(1, q))
}

// #endregion
