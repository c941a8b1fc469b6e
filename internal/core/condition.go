package core

import "fmt"

// Check is one primitive gate predicate. Exactly one of the three
// forms must be set: parameter equality, a boolean flag that must be
// true, or "this is not a pull-request build".
type Check struct {
	Param  string `yaml:"param,omitempty"`
	Equals string `yaml:"equals,omitempty"`

	Flag string `yaml:"flag,omitempty"`

	NotPullRequest bool `yaml:"not_pull_request,omitempty"`
}

// Condition is a stage gate: the conjunction of its checks. A nil
// Condition always passes.
type Condition struct {
	All []Check `yaml:"all"`
}

// Evaluate decides whether the gated stage should run. Evaluation is
// pure. A check referencing a parameter the run does not carry cannot
// be evaluated and returns a ConditionEvaluationError; callers treat
// that as "skip", never as a run failure.
func (c *Condition) Evaluate(rc *RunContext, stageName string) (bool, error) {
	if c == nil {
		return true, nil
	}
	for _, check := range c.All {
		ok, err := evaluateCheck(check, rc, stageName)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evaluateCheck(check Check, rc *RunContext, stageName string) (bool, error) {
	switch {
	case check.Param != "":
		v, ok := rc.StringParam(check.Param)
		if !ok {
			// Boolean parameters compare against their canonical form.
			if b, bok := rc.BoolParam(check.Param); bok {
				v = fmt.Sprintf("%t", b)
			} else {
				return false, &ConditionEvaluationError{
					Stage:  stageName,
					Reason: fmt.Sprintf("unknown parameter %q", check.Param),
				}
			}
		}
		return v == check.Equals, nil

	case check.Flag != "":
		b, ok := rc.BoolParam(check.Flag)
		if !ok {
			return false, &ConditionEvaluationError{
				Stage:  stageName,
				Reason: fmt.Sprintf("unknown boolean flag %q", check.Flag),
			}
		}
		return b, nil

	case check.NotPullRequest:
		return !rc.Trigger.IsPullRequest, nil

	default:
		return false, &ConditionEvaluationError{Stage: stageName, Reason: "empty check"}
	}
}
