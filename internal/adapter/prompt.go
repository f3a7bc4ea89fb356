package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

const (
	maxPromptHistory = 5
	maxPromptFacts   = 10
)

// systemPrompt is sent as the provider's system instruction for every step.
const systemPrompt = "You are executing one step of a structured reasoning chain. Answer only this step."

// BuildPrompt renders one step for a chat model: session context first,
// then the task, then the checks the result must pass.
func BuildPrompt(step reasoning.Step, rc *reasoning.Context) string {
	var b strings.Builder
	if rc != nil {
		fmt.Fprintf(&b, "Domain: %s\n", rc.Domain)
		fmt.Fprintf(&b, "Complexity: %s (%.2f)\n", reasoning.LevelForScore(rc.Complexity), rc.Complexity)
		if len(rc.Constraints) > 0 {
			fmt.Fprintf(&b, "Constraints: %s\n", strings.Join(rc.Constraints, "; "))
		}

		prev := rc.PreviousSteps
		if len(prev) > maxPromptHistory {
			prev = prev[len(prev)-maxPromptHistory:]
		}
		if len(prev) > 0 {
			b.WriteString("\nCompleted steps:\n")
			for _, s := range prev {
				fmt.Fprintf(&b, "- [%s] %s\n", s.ID, s.Description)
			}
		}

		if len(rc.Metadata.Facts) > 0 {
			keys := make([]string, 0, len(rc.Metadata.Facts))
			for k := range rc.Metadata.Facts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > maxPromptFacts {
				keys = keys[len(keys)-maxPromptFacts:]
			}
			b.WriteString("\nKnown facts:\n")
			for _, k := range keys {
				fmt.Fprintf(&b, "- %s: %s\n", k, rc.Metadata.Facts[k])
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Step %s: %s\n", step.ID, step.Description)
	if step.ExpectedOutput != "" {
		fmt.Fprintf(&b, "Expected output: %s\n", step.ExpectedOutput)
	}
	if len(step.ValidationRules) > 0 {
		fmt.Fprintf(&b, "Your answer will be checked for: %s\n", strings.Join(step.ValidationRules, ", "))
	}
	return b.String()
}
