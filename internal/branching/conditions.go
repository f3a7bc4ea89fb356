package branching

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region evaluate-branch

// Satisfied evaluates a branch's conditions under its logic.
// A branch without conditions is never satisfied.
func Satisfied(b reasoning.Branch, rc *reasoning.Context) (bool, error) {
	if len(b.Conditions) == 0 {
		return false, nil
	}
	results := make([]bool, len(b.Conditions))
	for i, c := range b.Conditions {
		ok, err := EvaluateCondition(c, rc)
		if err != nil {
			return false, err
		}
		results[i] = ok
	}

	switch b.Logic {
	case "", reasoning.LogicAnd:
		for _, r := range results {
			if !r {
				return false, nil
			}
		}
		return true, nil
	case reasoning.LogicOr:
		for _, r := range results {
			if r {
				return true, nil
			}
		}
		return false, nil
	case reasoning.LogicNot:
		for _, r := range results {
			if r {
				return false, nil
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown logic %q", b.Logic)
}

// #endregion evaluate-branch

// #region evaluate-condition

// EvaluateCondition resolves the condition's value and compares it to the target.
func EvaluateCondition(c reasoning.Condition, rc *reasoning.Context) (bool, error) {
	actual, err := resolve(c, rc)
	if err != nil {
		return false, err
	}
	return Compare(actual, c.Operator, c.Target)
}

func resolve(c reasoning.Condition, rc *reasoning.Context) (any, error) {
	switch c.Source {
	case reasoning.SourceComplexity:
		return rc.Complexity, nil
	case reasoning.SourceDomain:
		return rc.Domain, nil
	case reasoning.SourceStepCount:
		return float64(len(rc.PreviousSteps)), nil
	case reasoning.SourceMetadata:
		v, ok := rc.Metadata.Get(c.Namespace, c.Field)
		if !ok {
			return nil, nil
		}
		return v, nil
	case reasoning.SourceCustom:
		if c.Evaluator == nil {
			return nil, errors.New("custom condition without evaluator")
		}
		return c.Evaluator(rc)
	}
	return nil, fmt.Errorf("unknown value source %q", c.Source)
}

// #endregion evaluate-condition

// #region compare

// Compare applies op to actual and target. A missing actual value (nil)
// only satisfies ne.
func Compare(actual any, op reasoning.Operator, target any) (bool, error) {
	if actual == nil {
		switch op {
		case reasoning.OpNe:
			return target != nil, nil
		case reasoning.OpEq:
			return target == nil, nil
		}
		return false, nil
	}

	af, aNum := toFloat(actual)
	tf, tNum := toFloat(target)

	switch op {
	case reasoning.OpEq, reasoning.OpNe:
		var eq bool
		if aNum && tNum {
			eq = af == tf
		} else {
			eq = fmt.Sprint(actual) == fmt.Sprint(target)
		}
		if op == reasoning.OpEq {
			return eq, nil
		}
		return !eq, nil
	case reasoning.OpGt, reasoning.OpLt, reasoning.OpGte, reasoning.OpLte:
		if !aNum || !tNum {
			return false, fmt.Errorf("operator %s needs numeric operands, got %T and %T", op, actual, target)
		}
		switch op {
		case reasoning.OpGt:
			return af > tf, nil
		case reasoning.OpLt:
			return af < tf, nil
		case reasoning.OpGte:
			return af >= tf, nil
		default:
			return af <= tf, nil
		}
	case reasoning.OpContains:
		needle := fmt.Sprint(target)
		switch v := actual.(type) {
		case []string:
			for _, s := range v {
				if s == needle {
					return true, nil
				}
			}
			return false, nil
		default:
			return strings.Contains(fmt.Sprint(v), needle), nil
		}
	case reasoning.OpMatches:
		pattern, ok := target.(string)
		if !ok {
			return false, fmt.Errorf("operator matches needs a string pattern, got %T", target)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("compile pattern: %w", err)
		}
		return re.MatchString(fmt.Sprint(actual)), nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

// toFloat converts numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// #endregion compare
