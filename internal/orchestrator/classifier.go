package orchestrator

// #region imports
import (
	"math"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/complexity"
)

// #endregion

// #region keywords

var complexityKeywords = []string{
	"integrate", "optimize", "optimise", "recursive", "dynamic",
	"distributed", "concurrent", "parallel", "scalable", "algorithm",
	"architecture", "trade-off", "tradeoff", "uncertain", "probabilistic",
	"multi-", "constraint", "interdependent", "real-time",
}

var simplicityKeywords = []string{
	"simple", "basic", "quick", "single", "trivial", "just",
}

// #endregion

// #region estimate

// EstimateComplexity scores a problem statement in [0,1] from its length,
// complexity-signal keywords and the domain weight. No model call.
func EstimateComplexity(problem, domain string) float64 {
	lower := strings.ToLower(strings.TrimSpace(problem))
	words := strings.Fields(lower)

	score := 0.2
	score += 0.2 * math.Min(1, float64(len(words))/100)

	hits := 0
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	score += math.Min(0.4, 0.1*float64(hits))

	// Several questions in one statement usually hide several sub-problems.
	if strings.Count(lower, "?") >= 2 {
		score += 0.05
	}

	for _, kw := range simplicityKeywords {
		if containsWord(words, kw) {
			score -= 0.05
		}
	}

	score += 0.2 * complexity.DomainWeight(domain)
	return math.Max(0, math.Min(1, score))
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if strings.Trim(x, ".,;:!?") == w {
			return true
		}
	}
	return false
}

// #endregion
