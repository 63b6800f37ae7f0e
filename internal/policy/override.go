package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/mackeh/AegisGate/internal/action"
)

// Override is an optional operator-supplied Rego policy consulted before
// the built-in rules. It may force a verdict or abstain with "default",
// in which case the built-in rules decide.
type Override struct {
	query rego.PreparedEvalQuery
}

// NewOverride compiles a Rego policy string into an Override. The policy
// must live in package aegisgate.policy and define a string `decision`:
// one of "allow", "deny", "require_approval", or "default".
func NewOverride(ctx context.Context, policyContent string) (*Override, error) {
	r := rego.New(
		rego.Query("data.aegisgate.policy.decision"),
		rego.Module("policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego query: %w", err)
	}

	return &Override{query: query}, nil
}

// LoadOverride reads and compiles a Rego policy file.
func LoadOverride(ctx context.Context, path string) (*Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewOverride(ctx, string(data))
}

// Evaluate consults the override for the action. matched is false when
// the policy abstains and the built-in rules should decide.
func (o *Override) Evaluate(ctx context.Context, act action.Action, pctx Context) (Decision, bool, error) {
	resourceType, resourceID := act.Resource()
	input := map[string]interface{}{
		"action": map[string]interface{}{
			"label":         act.Label(),
			"category":      string(act.Category()),
			"resource_type": resourceType,
			"resource_id":   resourceID,
			"description":   act.Description(),
		},
		"context": map[string]interface{}{
			"trust":      pctx.Trust.String(),
			"user_id":    pctx.UserID,
			"session_id": pctx.SessionID,
		},
	}

	results, err := o.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, false, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, false, nil
	}

	decisionStr, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return Decision{}, false, fmt.Errorf("override policy returned non-string decision")
	}

	switch decisionStr {
	case "allow":
		return allow("Allowed by override policy"), true, nil
	case "deny":
		return deny("Denied by override policy", false), true, nil
	case "require_approval":
		return needsApproval(RiskHigh, fmt.Sprintf("Override policy requires approval: %s", act.Description()), false), true, nil
	default:
		// "default" or anything unrecognized: abstain.
		return Decision{}, false, nil
	}
}
